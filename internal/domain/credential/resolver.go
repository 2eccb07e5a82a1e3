package credential

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/infinito/infinito-api/internal/pkg/logger"
	"github.com/infinito/infinito-api/internal/pkg/secretbox"
	"github.com/infinito/infinito-api/internal/pkg/validator"
)

// Sealer encrypts and decrypts secrets bound to a context string.
type Sealer interface {
	Seal(plaintext string, additionalData []byte) (string, error)
	Open(encoded string, additionalData []byte) (string, error)
}

var _ Sealer = (*secretbox.Box)(nil)

// Resolver picks the credential to use for an upstream call. Every call reads the store;
// secrets are never cached.
type Resolver struct {
	strategies []Strategy
	sealer     Sealer
}

// NewResolver creates a resolver trying strategies in order
func NewResolver(sealer Sealer, strategies ...Strategy) *Resolver {
	return &Resolver{strategies: strategies, sealer: sealer}
}

// Resolve returns the first active credential found by the strategies, decrypted.
// When none match it returns a *NotFoundError wrapping ErrNotFound.
func (r *Resolver) Resolve(ctx context.Context, userID uuid.UUID, serviceID string) (*Resolved, error) {
	if err := validator.ValidateVar(serviceID, "required,service_id"); err != nil {
		return nil, ErrInvalidService
	}

	for _, strategy := range r.strategies {
		c, err := strategy.Find(ctx, userID, serviceID)
		if err != nil {
			return nil, err
		}
		if c == nil || !c.IsActive {
			continue
		}

		secret, err := r.sealer.Open(c.EncryptedKey, sealContext(c.UserID, c.ServiceID))
		if err != nil {
			return nil, fmt.Errorf("%w: open credential %s: %v", ErrUnavailable, c.ID, err)
		}

		logger.FromContext(ctx).Debug().
			Str("user_id", userID.String()).
			Str("service_id", serviceID).
			Str("source", string(strategy.Source())).
			Msg("credential resolved")

		return &Resolved{Credential: c, Secret: secret, Source: strategy.Source()}, nil
	}

	return nil, &NotFoundError{ServiceID: serviceID}
}

// sealContext binds a ciphertext to its owner and service so rows cannot be swapped.
func sealContext(owner uuid.NullUUID, serviceID string) []byte {
	who := "system"
	if owner.Valid {
		who = owner.UUID.String()
	}
	return []byte(who + ":" + serviceID)
}
