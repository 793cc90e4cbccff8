package middleware

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/laserworks/workshop-service/internal/api"
	"github.com/laserworks/workshop-service/internal/models"
)

// contextKey is a type for context keys
type contextKey string

const userKey contextKey = "user"

// TokenResolver turns a bearer token into the user it was issued for
type TokenResolver interface {
	UserFromToken(ctx context.Context, token string) (*models.User, error)
}

// WithUser stores the authenticated user in ctx
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// GetUser returns the authenticated user, or nil for anonymous requests
func GetUser(ctx context.Context) *models.User {
	user, _ := ctx.Value(userKey).(*models.User)
	return user
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header
func BearerToken(r *http.Request) (string, bool) {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// Auth middleware for authenticating requests
func Auth(resolver TokenResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				api.WriteError(w, r, models.NewDetailError(models.ErrUnauthenticated, "Authorization header required"))
				return
			}

			user, err := resolver.UserFromToken(r.Context(), token)
			if err != nil {
				api.WriteError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RequireRole middleware for checking user roles. It must run after Auth.
func RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r.Context())
			if user == nil {
				api.WriteError(w, r, models.ErrUnauthenticated)
				return
			}

			if !slices.Contains(roles, user.Role) {
				api.WriteError(w, r, models.ErrForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
