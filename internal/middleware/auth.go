package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/arjeninventory/admin-gateway/internal/auth"
	"github.com/arjeninventory/admin-gateway/internal/authz"
	"github.com/arjeninventory/admin-gateway/internal/models"
)

type contextKey string

const userKey contextKey = "user"

// SessionVerifier resolves a raw session token to a user.
type SessionVerifier interface {
	Verify(ctx context.Context, token string) (*models.User, error)
}

// Authenticate extracts the session token from the request and resolves
// it to a user, failing fast with 401 before any backend route is
// reached. The user lands in the request context.
func Authenticate(verifier SessionVerifier, cookieName string, log *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.TokenFromRequest(r, cookieName)
			if token == "" {
				unauthorized(w)
				return
			}

			user, err := verifier.Verify(r.Context(), token)
			if err != nil {
				log.Warn("token verification failed", "path", r.URL.Path, "error", err)
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Require allows the request through only when the session role holds the
// given permission.
func Require(table *authz.Table, permission string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFrom(r.Context())
			if !ok {
				unauthorized(w)
				return
			}

			if !table.Allowed(user.Role, permission) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				json.NewEncoder(w).Encode(map[string]string{"error": "Forbidden"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// UserFrom returns the authenticated user stored by Authenticate.
func UserFrom(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userKey).(*models.User)
	return user, ok
}

// WithUser returns a context carrying the given user. Used by tests and
// by handlers that authenticate out of band.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
}
