package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/evanshaw/shopd/internal/domain"
)

const (
	// UserContextKey is the context key for storing the authenticated user
	UserContextKey contextKey = "user"

	// tokenScheme is the Authorization scheme, "Token <key>"
	tokenScheme = "Token"
)

// WithUser resolves the user from the Authorization header and adds it to
// the request context. This middleware is optional - it adds the user if
// the token is valid but doesn't require authentication.
func WithUser(users domain.UserService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromHeader(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.GetUserByToken(r.Context(), token)
			if err != nil {
				// Invalid token, continue without user
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser rejects unauthenticated requests with 401 before any
// handler logic runs.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUserFromContext(r.Context()) == nil {
			respondWithError(w, r, domain.Unauthorized("auth.require_user", "Authentication credentials were not provided."))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireStaff rejects requests from non-staff users with 403 (or 401
// when unauthenticated).
func RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetUserFromContext(r.Context())
		if user == nil {
			respondWithError(w, r, domain.Unauthorized("auth.require_staff", "Authentication credentials were not provided."))
			return
		}

		if !user.IsStaff {
			respondWithError(w, r, domain.Forbidden("auth.require_staff", "You do not have permission to perform this action."))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// GetUserFromContext retrieves the user from the request context.
// Returns nil if no user is authenticated.
func GetUserFromContext(ctx context.Context) *domain.User {
	user, ok := ctx.Value(UserContextKey).(*domain.User)
	if !ok {
		return nil
	}
	return user
}

func tokenFromHeader(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || scheme != tokenScheme {
		return ""
	}

	return strings.TrimSpace(token)
}
