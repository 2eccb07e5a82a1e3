package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/infinito/infinito-api/internal/domain/user"
	"github.com/infinito/infinito-api/internal/pkg/jwt"
)

const lookupTimeout = 3 * time.Second

// TokenVerifier exchanges a bearer token for a verified user id.
type TokenVerifier interface {
	Verify(token string) (*jwt.VerifiedUser, error)
}

// ProfileReader loads the profile carrying the caller's role.
type ProfileReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.Profile, error)
}

// Gate resolves bearer tokens to identities. It has no side effects.
type Gate struct {
	verifier TokenVerifier
	profiles ProfileReader
}

// NewGate creates the access control gate
func NewGate(verifier TokenVerifier, profiles ProfileReader) *Gate {
	return &Gate{verifier: verifier, profiles: profiles}
}

// Authenticate verifies bearerToken and loads the caller's role.
func (g *Gate) Authenticate(ctx context.Context, bearerToken string) (*Identity, error) {
	bearerToken = strings.TrimSpace(bearerToken)
	if bearerToken == "" {
		return nil, ErrUnauthenticated
	}

	verified, err := g.verifier.Verify(bearerToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	profile, err := g.profiles.GetByID(ctx, verified.ID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, ErrProfileMissing
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	email := profile.Email
	if email == "" {
		email = verified.Email
	}

	return &Identity{UserID: profile.ID, Email: email, Role: profile.Role}, nil
}

// RequireAdmin returns ErrForbidden unless identity is an admin.
func RequireAdmin(identity *Identity) error {
	if identity == nil {
		return ErrUnauthenticated
	}
	if !identity.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}
