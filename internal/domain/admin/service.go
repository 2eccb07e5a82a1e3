package admin

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/infinito/infinito-api/internal/domain/auth"
	"github.com/infinito/infinito-api/internal/domain/credit"
	"github.com/infinito/infinito-api/internal/domain/ledger"
	"github.com/infinito/infinito-api/internal/domain/user"
	"github.com/infinito/infinito-api/internal/pkg/logger"
)

// ProfileStore is the profile access admins need
type ProfileStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.Profile, error)
	List(ctx context.Context) ([]user.Profile, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role user.Role) (*user.Profile, error)
}

// CreditService is the subset of the credit service used by admin operations
type CreditService interface {
	AddCredits(ctx context.Context, userID uuid.UUID, amount int64, txType ledger.TxType, description, referenceID string) (*credit.Result, error)
	Refund(ctx context.Context, userID uuid.UUID, amount int64, originalReferenceID, description string) (*credit.Result, error)
	Reconcile(ctx context.Context, userID uuid.UUID) (*credit.Reconciliation, error)
}

var _ CreditService = (*credit.Service)(nil)

// Service implements admin business logic
type Service struct {
	profiles ProfileStore
	credits  CreditService
}

// NewService creates admin service
func NewService(profiles ProfileStore, credits CreditService) *Service {
	return &Service{profiles: profiles, credits: credits}
}

// ListUsers returns all profiles, newest first
func (s *Service) ListUsers(ctx context.Context) ([]user.Profile, error) {
	return s.profiles.List(ctx)
}

// GetUser returns a single profile
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*user.Profile, error) {
	return s.profiles.GetByID(ctx, id)
}

// SetRole changes a user's role. Admins cannot demote themselves.
func (s *Service) SetRole(ctx context.Context, actor *auth.Identity, id uuid.UUID, role user.Role) (*user.Profile, error) {
	if !role.Valid() {
		return nil, user.ErrInvalidRole
	}
	if actor.UserID == id && role != user.RoleAdmin {
		return nil, ErrSelfDemotion
	}

	p, err := s.profiles.UpdateRole(ctx, id, role)
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info().
		Str("actor_id", actor.UserID.String()).
		Str("user_id", id.String()).
		Str("role", string(role)).
		Msg("admin changed user role")
	return p, nil
}

// AdjustCredits grants amount credits as an admin adjustment. An empty referenceID gets
// a generated one, so only caller-supplied references deduplicate retries.
func (s *Service) AdjustCredits(ctx context.Context, actor *auth.Identity, id uuid.UUID, amount int64, reason, referenceID string) (*credit.Result, string, error) {
	if referenceID == "" {
		referenceID = "adm_" + uuid.New().String()
	}
	description := fmt.Sprintf("Admin adjustment by %s: %s", actor.UserID, reason)

	result, err := s.credits.AddCredits(ctx, id, amount, ledger.TxTypeAdminAdjustment, description, referenceID)
	if err != nil {
		return nil, "", err
	}

	logger.FromContext(ctx).Info().
		Str("actor_id", actor.UserID.String()).
		Str("user_id", id.String()).
		Int64("amount", amount).
		Int64("new_balance", result.NewBalance).
		Bool("replayed", result.Replayed).
		Msg("admin credit adjustment")
	return result, referenceID, nil
}

// Refund returns credits charged under originalReferenceID
func (s *Service) Refund(ctx context.Context, actor *auth.Identity, id uuid.UUID, amount int64, originalReferenceID, description string) (*credit.Result, error) {
	result, err := s.credits.Refund(ctx, id, amount, originalReferenceID, description)
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info().
		Str("actor_id", actor.UserID.String()).
		Str("user_id", id.String()).
		Str("reference_id", originalReferenceID).
		Int64("amount", amount).
		Bool("replayed", result.Replayed).
		Msg("admin refund")
	return result, nil
}

// Ledger reports whether the cached balance matches the ledger
func (s *Service) Ledger(ctx context.Context, id uuid.UUID) (*credit.Reconciliation, error) {
	return s.credits.Reconcile(ctx, id)
}
