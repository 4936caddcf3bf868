package middleware

import (
	"context"
	"net/http"

	"github.com/nkiryanov/jobboard/internal/handlers/render"
	"github.com/nkiryanov/jobboard/internal/handlers/userctx"
	"github.com/nkiryanov/jobboard/internal/models"
	"github.com/nkiryanov/jobboard/internal/service/authz"
)

type authService interface {
	// Get raw access token from request (header or cookie)
	GetAccessString(r *http.Request) (string, error)

	// Verify token and load the user it was issued to
	Authenticate(ctx context.Context, access string) (models.User, error)
}

// AuthMiddleware rejects request with 401 unless it carries valid access token of existing user
// The user is put to request context, see userctx.FromContext
func AuthMiddleware(as authService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			access, err := as.GetAccessString(r)
			if err != nil {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			user, err := as.Authenticate(r.Context(), access)
			if err != nil {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := userctx.New(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole answers 403 unless the authenticated user has one of the roles
// Must run after AuthMiddleware, before anything reads the request body
func RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := userctx.FromContext(r.Context())
			if !ok {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if err := authz.RequireRole(user, roles...); err != nil {
				render.ServiceError(w, err.Error(), http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
