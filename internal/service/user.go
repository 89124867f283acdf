package service

import (
	"context"
	"errors"

	"github.com/evanshaw/shopd/internal/auth"
	"github.com/evanshaw/shopd/internal/domain"
)

// UserStore is the persistence surface the user service needs.
type UserStore interface {
	GetUserByToken(ctx context.Context, token string) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	CreateUser(ctx context.Context, username, passwordHash string, isStaff bool) (*domain.User, error)
	GetOrCreateToken(ctx context.Context, userID int64, generated string) (string, error)
}

type userService struct {
	store UserStore
}

// Compile-time check that userService implements domain.UserService.
var _ domain.UserService = (*userService)(nil)

// NewUserService creates the user/auth service.
func NewUserService(store UserStore) domain.UserService {
	return &userService{store: store}
}

// GetUserByToken resolves the user owning an auth token.
func (s *userService) GetUserByToken(ctx context.Context, token string) (*domain.User, error) {
	return s.store.GetUserByToken(ctx, token)
}

// Login verifies the credentials and returns the user's auth token.
// Unknown usernames and wrong passwords are indistinguishable to the caller.
func (s *userService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", domain.ErrInvalidCredentials
		}
		return "", err
	}

	if err := auth.VerifyPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return "", domain.ErrInvalidCredentials
		}
		return "", domain.Internal(err, "user.login", "failed to verify password")
	}

	token, err := auth.GenerateToken()
	if err != nil {
		return "", domain.Internal(err, "user.login", "failed to generate auth token")
	}

	return s.store.GetOrCreateToken(ctx, user.ID, token)
}

// CreateUser registers an account with a bcrypt-hashed password.
func (s *userService) CreateUser(ctx context.Context, username, password string, isStaff bool) (*domain.User, error) {
	if username == "" {
		return nil, domain.NewValidationError("user.create", "username", "This field is required.")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			return nil, domain.NewValidationError("user.create", "password", auth.ErrPasswordTooShort.Error())
		}
		return nil, domain.Internal(err, "user.create", "failed to hash password")
	}

	return s.store.CreateUser(ctx, username, hash, isStaff)
}
