package credential

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/infinito/infinito-api/internal/domain/auth"
	"github.com/infinito/infinito-api/internal/pkg/logger"
	"github.com/infinito/infinito-api/internal/pkg/secretbox"
	"github.com/infinito/infinito-api/internal/pkg/validator"
)

const minKeyLength = 10

// Service manages stored credentials. Non-admins only see and change their own rows;
// system rows and other users' rows are admin only.
type Service struct {
	repo   Repository
	sealer Sealer
}

// NewService creates credential management service
func NewService(repo Repository, sealer Sealer) *Service {
	return &Service{repo: repo, sealer: sealer}
}

// List returns the caller's own credentials.
func (s *Service) List(ctx context.Context, identity *auth.Identity) ([]Credential, error) {
	return s.repo.ListByUser(ctx, identity.UserID)
}

// ListAll returns every credential. Admin only.
func (s *Service) ListAll(ctx context.Context, identity *auth.Identity) ([]Credential, error) {
	if err := auth.RequireAdmin(identity); err != nil {
		return nil, ErrForbidden
	}
	return s.repo.ListAll(ctx)
}

// Save stores key for owner and serviceID, replacing an existing key for the same pair.
// A nil owner saves the system-wide fallback.
func (s *Service) Save(ctx context.Context, identity *auth.Identity, owner *uuid.UUID, serviceID, key string) (*Credential, error) {
	if owner == nil || *owner != identity.UserID {
		if err := auth.RequireAdmin(identity); err != nil {
			return nil, ErrForbidden
		}
	}

	serviceID = strings.TrimSpace(serviceID)
	if err := validator.ValidateVar(serviceID, "required,service_id"); err != nil {
		return nil, ErrInvalidService
	}
	key = strings.TrimSpace(key)
	if len(key) < minKeyLength {
		return nil, ErrKeyTooShort
	}

	c := &Credential{
		UserID:    Owner(owner),
		ServiceID: serviceID,
		Name:      serviceID + " API Key",
		KeyHint:   keyHint(key),
	}
	if c.IsSystem() {
		c.Name = "System " + c.Name
	}

	sealed, err := s.sealer.Seal(key, sealContext(c.UserID, serviceID))
	if err != nil {
		if errors.Is(err, secretbox.ErrKeyNotSet) {
			return nil, ErrEncryptionDisabled
		}
		return nil, fmt.Errorf("seal credential: %w", err)
	}
	c.EncryptedKey = sealed

	if err := s.repo.Upsert(ctx, c); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info().
		Str("credential_id", c.ID.String()).
		Str("service_id", serviceID).
		Bool("system", c.IsSystem()).
		Str("actor_id", identity.UserID.String()).
		Msg("credential saved")

	return c, nil
}

// Update applies a partial change to the credential flags.
func (s *Service) Update(ctx context.Context, identity *auth.Identity, id uuid.UUID, patch Patch) (*Credential, error) {
	if patch.Empty() {
		return nil, ErrEmptyPatch
	}
	if _, err := s.authorize(ctx, identity, id); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, patch)
}

// Delete removes the credential row.
func (s *Service) Delete(ctx context.Context, identity *auth.Identity, id uuid.UUID) error {
	c, err := s.authorize(ctx, identity, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	logger.FromContext(ctx).Info().
		Str("credential_id", id.String()).
		Str("service_id", c.ServiceID).
		Str("actor_id", identity.UserID.String()).
		Msg("credential deleted")
	return nil
}

// authorize hides other users' rows as not found and refuses system rows to non-admins.
func (s *Service) authorize(ctx context.Context, identity *auth.Identity, id uuid.UUID) (*Credential, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if identity.IsAdmin() || c.OwnedBy(identity.UserID) {
		return c, nil
	}
	if c.IsSystem() {
		return nil, ErrForbidden
	}
	return nil, ErrNotFound
}
