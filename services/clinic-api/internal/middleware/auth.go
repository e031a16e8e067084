// Package middleware carries the clinic API's authentication middleware.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/medplanner/medplanner/libs/auth"
	"github.com/medplanner/medplanner/services/clinic-api/internal/model"
	"github.com/medplanner/medplanner/services/clinic-api/internal/respond"
	"github.com/medplanner/medplanner/services/clinic-api/internal/storage"
)

type ctxKey struct{}

// UserFromContext returns the authenticated user set by RequireAuth.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(ctxKey{}).(*model.User)
	return u, ok
}

// RequireAuth verifies the bearer token, loads the user, and rejects
// deactivated accounts.
func RequireAuth(users storage.UserStore, secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				respond.Error(w, http.StatusUnauthorized, "Access denied. No token provided.")
				return
			}
			claims, err := auth.ParseAndVerify(raw, secret)
			if err != nil {
				respond.Error(w, http.StatusUnauthorized, "Invalid token.")
				return
			}
			user, err := users.GetByID(r.Context(), claims.Subject)
			if err != nil {
				respond.Error(w, http.StatusUnauthorized, "Invalid token.")
				return
			}
			if !user.IsActive {
				respond.Error(w, http.StatusUnauthorized, "Account is deactivated")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, user)))
		})
	}
}

// RequireRole gates a handler to one role. Must run inside RequireAuth.
func RequireRole(role model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok || user.Role != role {
				respond.Error(w, http.StatusForbidden, "Access denied. Insufficient permissions.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", false
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
