package domain

import "context"

var (
	ErrUserNotFound       = &Error{Code: ENOTFOUND, Message: "User not found"}
	ErrInvalidCredentials = &Error{Code: EUNAUTHORIZED, Message: "Invalid username or password"}
)

// User is an account that can authenticate and own a cart.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	IsStaff      bool
}

// UserService resolves users from credentials and tokens.
type UserService interface {
	// GetUserByToken resolves the user owning an auth token.
	GetUserByToken(ctx context.Context, token string) (*User, error)

	// Login verifies the credentials and returns the user's auth token,
	// issuing one if none exists yet.
	Login(ctx context.Context, username, password string) (string, error)

	// CreateUser registers an account with a hashed password.
	CreateUser(ctx context.Context, username, password string, isStaff bool) (*User, error)
}
