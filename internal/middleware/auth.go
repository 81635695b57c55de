package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/Lolobw32/ecom-oslan/internal/auth"
)

type TokenVerifier interface {
	Verify(token string) (auth.User, error)
}

// RoleLookup returns the role stored on the user's profile.
type RoleLookup interface {
	Role(ctx context.Context, userID string) (string, error)
}

func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

// RequireUser rejects requests without a valid bearer token and stores the
// token's user in the request context.
func RequireUser(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				WriteError(w, r, http.StatusUnauthorized, "missing bearer token")
				return
			}
			u, err := v.Verify(token)
			if err != nil {
				WriteError(w, r, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}

// RequireAdmin must run after RequireUser. The role is read from the profile
// on every request, so a demoted admin loses access before the token expires.
func RequireAdmin(roles RoleLookup, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := GetUser(r.Context())
			if !ok {
				WriteError(w, r, http.StatusUnauthorized, "missing bearer token")
				return
			}
			role, err := roles.Role(r.Context(), u.ID)
			if err != nil {
				logger.Error("role lookup failed", zap.String("user_id", u.ID), zap.Error(err))
				WriteError(w, r, http.StatusInternalServerError, "could not check permissions")
				return
			}
			if auth.Role(role) != auth.RoleAdmin {
				WriteError(w, r, http.StatusForbidden, "admin role required")
				return
			}
			u.Role = auth.RoleAdmin
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}
