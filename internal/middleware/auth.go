package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/adzspec-asad/ai-studio-api/internal/domain/user"
	"github.com/adzspec-asad/ai-studio-api/internal/service"
)

type authUserCtxKey struct{}

// publicPaths are exempt from authentication.
var publicPaths = map[string]bool{
	"/":                      true,
	"/health":                true,
	"/health/liveness":       true,
	"/health/readiness":      true,
	"/api/system/auth/login": true,
}

// Auth returns middleware that validates Bearer tokens on system routes.
// When authEnabled is false, a default superadmin context is injected so
// local development works without seeded accounts.
func Auth(authSvc *service.AuthService, authEnabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !authEnabled {
				defaultUser := &user.User{
					ID:      "00000000-0000-0000-0000-000000000000",
					Email:   "admin@localhost",
					Name:    "Admin",
					Role:    user.RoleSuperadmin,
					Enabled: true,
				}
				next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), defaultUser)))
				return
			}

			if publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, `{"error":"authorization required"}`, http.StatusUnauthorized)
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")
			if token == authHeader {
				http.Error(w, `{"error":"invalid authorization header"}`, http.StatusUnauthorized)
				return
			}

			claims, err := authSvc.ValidateAccessToken(token)
			if err != nil {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			u := &user.User{
				ID:      claims.UserID,
				Email:   claims.Email,
				Role:    claims.Role,
				Enabled: true,
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}

// WithUser stores the authenticated user in the context. The counterpart
// of UserFromContext; handlers normally receive the user via Auth, this is
// for code that builds request contexts itself.
func WithUser(ctx context.Context, u *user.User) context.Context {
	return context.WithValue(ctx, authUserCtxKey{}, u)
}

// UserFromContext returns the authenticated user from the request context.
func UserFromContext(ctx context.Context) *user.User {
	u, _ := ctx.Value(authUserCtxKey{}).(*user.User)
	return u
}
