package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/infinito/infinito-api/internal/domain/auth"
	"github.com/infinito/infinito-api/internal/domain/user"
	"github.com/infinito/infinito-api/internal/pkg/errorhandler"
	"github.com/infinito/infinito-api/internal/pkg/response"
)

// Authenticator resolves a bearer token to an identity.
type Authenticator interface {
	Authenticate(ctx context.Context, bearerToken string) (*auth.Identity, error)
}

// Auth returns middleware that authenticates the bearer token and stores the identity
func Auth(gate Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.Unauthorized(w, "Missing authorization header")
				return
			}

			token, ok := auth.BearerToken(authHeader)
			if !ok {
				response.Unauthorized(w, "Invalid authorization header format")
				return
			}

			identity, err := gate.Authenticate(r.Context(), token)
			if err != nil {
				switch {
				case errors.Is(err, auth.ErrUnauthenticated):
					response.Unauthorized(w, "Invalid or expired token")
				case errors.Is(err, auth.ErrProfileMissing):
					response.Error(w, http.StatusForbidden, "PROFILE_MISSING", "User profile not found")
				default:
					errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", err)
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
		})
	}
}

// GetIdentity extracts the authenticated identity from context
func GetIdentity(ctx context.Context) *auth.Identity {
	return auth.IdentityFromContext(ctx)
}

// GetUserID extracts user ID from context
func GetUserID(ctx context.Context) uuid.UUID {
	if identity := auth.IdentityFromContext(ctx); identity != nil {
		return identity.UserID
	}
	return uuid.Nil
}

// GetRole extracts role from context
func GetRole(ctx context.Context) user.Role {
	if identity := auth.IdentityFromContext(ctx); identity != nil {
		return identity.Role
	}
	return ""
}

// RequireAdmin returns middleware that requires the admin role
func RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := auth.RequireAdmin(GetIdentity(r.Context())); err != nil {
				if errors.Is(err, auth.ErrUnauthenticated) {
					response.Unauthorized(w, "Authentication required")
					return
				}
				response.Forbidden(w, "Admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
