package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/evanshaw/shopd/internal/domain"
)

type stubUserService struct {
	user *domain.User
	err  error
}

func (s *stubUserService) GetUserByToken(ctx context.Context, token string) (*domain.User, error) {
	return s.user, s.err
}

func (s *stubUserService) Login(ctx context.Context, username, password string) (string, error) {
	return "", nil
}

func (s *stubUserService) CreateUser(ctx context.Context, username, password string, isStaff bool) (*domain.User, error) {
	return nil, nil
}

func userProbe(t *testing.T, got **domain.User) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = GetUserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestWithUser(t *testing.T) {
	alice := &domain.User{ID: 1, Username: "alice"}

	tests := []struct {
		name       string
		header     string
		service    *stubUserService
		expectUser bool
	}{
		{
			name:       "valid token resolves the user",
			header:     "Token abc123",
			service:    &stubUserService{user: alice},
			expectUser: true,
		},
		{
			name:       "missing header continues anonymously",
			header:     "",
			service:    &stubUserService{user: alice},
			expectUser: false,
		},
		{
			name:       "wrong scheme is ignored",
			header:     "Bearer abc123",
			service:    &stubUserService{user: alice},
			expectUser: false,
		},
		{
			name:       "unknown token continues anonymously",
			header:     "Token abc123",
			service:    &stubUserService{err: domain.ErrUserNotFound},
			expectUser: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *domain.User
			handler := WithUser(tt.service)(userProbe(t, &got))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			handler.ServeHTTP(httptest.NewRecorder(), req)

			if tt.expectUser {
				if got == nil || got.ID != alice.ID {
					t.Errorf("expected user %v in context, got %v", alice, got)
				}
			} else if got != nil {
				t.Errorf("expected no user in context, got %v", got)
			}
		})
	}
}

func TestRequireUser(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("rejects anonymous requests", func(t *testing.T) {
		w := httptest.NewRecorder()
		RequireUser(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if body["detail"] != "Authentication credentials were not provided." {
			t.Errorf("detail = %q", body["detail"])
		}
	})

	t.Run("passes authenticated requests", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		ctx := context.WithValue(req.Context(), UserContextKey, &domain.User{ID: 1})

		w := httptest.NewRecorder()
		RequireUser(next).ServeHTTP(w, req.WithContext(ctx))

		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
	})
}

func TestRequireStaff(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name     string
		user     *domain.User
		expected int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"customer", &domain.User{ID: 1}, http.StatusForbidden},
		{"staff", &domain.User{ID: 1, IsStaff: true}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tt.user != nil {
				ctx := context.WithValue(req.Context(), UserContextKey, tt.user)
				req = req.WithContext(ctx)
			}

			w := httptest.NewRecorder()
			RequireStaff(next).ServeHTTP(w, req)

			if w.Code != tt.expected {
				t.Errorf("status = %d, want %d", w.Code, tt.expected)
			}
		})
	}
}
