package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/infinito/infinito-api/internal/domain/user"
)

// Identity is the authenticated caller.
type Identity struct {
	UserID uuid.UUID
	Email  string
	Role   user.Role
}

// IsAdmin returns true if the caller holds the admin role
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == user.RoleAdmin
}

type identityKey struct{}

// WithIdentity stores the identity in ctx.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFromContext returns the identity stored by WithIdentity, or nil.
func IdentityFromContext(ctx context.Context) *Identity {
	identity, _ := ctx.Value(identityKey{}).(*Identity)
	return identity
}
