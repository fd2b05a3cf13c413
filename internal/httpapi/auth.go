package httpapi

import (
	"context"
	"net/http"
	"strings"

	"bmasia/internal/domain"
	"bmasia/internal/services"
)

// Authenticator resolves a bearer token to a staff user
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

// requireStaff rejects requests without a valid staff bearer token
func requireStaff(auth Authenticator, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(ctx, w, http.StatusUnauthorized, "Authorization header required")
			return
		}

		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			writeError(ctx, w, http.StatusUnauthorized, "Invalid authorization header format")
			return
		}

		user, err := auth.Authenticate(ctx, strings.TrimSpace(token))
		if err != nil {
			writeServiceError(ctx, w, err)
			return
		}

		next(w, r.WithContext(services.ContextWithUser(ctx, user)))
	}
}
