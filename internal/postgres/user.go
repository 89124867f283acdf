package postgres

import (
	"context"
	"errors"

	"github.com/evanshaw/shopd/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserStore persists users and their auth tokens.
type UserStore struct {
	pool *pgxpool.Pool
}

// NewUserStore creates a PostgreSQL-backed user store.
func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

// GetUserByToken resolves the user owning an auth token.
func (s *UserStore) GetUserByToken(ctx context.Context, token string) (*domain.User, error) {
	const q = `
		SELECT u.id, u.username, u.password_hash, u.is_staff
		FROM user_tokens t
		JOIN users u ON u.id = t.user_id
		WHERE t.token = $1`

	var user domain.User
	err := s.pool.QueryRow(ctx, q, token).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.IsStaff)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, domain.Internal(err, "user.get_by_token", "failed to get user by token")
	}

	return &user, nil
}

// GetUserByUsername fetches a user by username.
func (s *UserStore) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	const q = `SELECT id, username, password_hash, is_staff FROM users WHERE username = $1`

	var user domain.User
	err := s.pool.QueryRow(ctx, q, username).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.IsStaff)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, domain.Internal(err, "user.get_by_username", "failed to get user by username")
	}

	return &user, nil
}

// CreateUser inserts a user with an already-hashed password.
func (s *UserStore) CreateUser(ctx context.Context, username, passwordHash string, isStaff bool) (*domain.User, error) {
	const q = `
		INSERT INTO users (username, password_hash, is_staff)
		VALUES ($1, $2, $3)
		RETURNING id`

	user := domain.User{Username: username, PasswordHash: passwordHash, IsStaff: isStaff}
	if err := s.pool.QueryRow(ctx, q, username, passwordHash, isStaff).Scan(&user.ID); err != nil {
		if isPgError(err, pgUniqueViolation) {
			return nil, domain.Conflict("user.create", "username is already taken")
		}
		return nil, domain.Internal(err, "user.create", "failed to create user")
	}

	return &user, nil
}

// GetOrCreateToken returns the user's auth token, inserting the supplied
// freshly generated one when the user has no token yet. A concurrent
// issue resolves to whichever insert won, via the unique user_id.
func (s *UserStore) GetOrCreateToken(ctx context.Context, userID int64, generated string) (string, error) {
	const q = `
		INSERT INTO user_tokens (token, user_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING token`

	var token string
	if err := s.pool.QueryRow(ctx, q, generated, userID).Scan(&token); err != nil {
		return "", domain.Internal(err, "user.get_or_create_token", "failed to issue auth token")
	}

	return token, nil
}
