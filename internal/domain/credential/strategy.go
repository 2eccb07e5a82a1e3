package credential

import (
	"context"

	"github.com/google/uuid"
)

// Strategy is one tier of credential resolution. It returns nil, nil when it is not
// suited to the request so the next strategy is tried.
type Strategy interface {
	Source() Source
	Find(ctx context.Context, userID uuid.UUID, serviceID string) (*Credential, error)
}

// UserOwned picks the caller's own active credential.
type UserOwned struct {
	repo Repository
}

func NewUserOwned(repo Repository) UserOwned {
	return UserOwned{repo: repo}
}

func (s UserOwned) Source() Source { return SourceUserOwned }

func (s UserOwned) Find(ctx context.Context, userID uuid.UUID, serviceID string) (*Credential, error) {
	if userID == uuid.Nil {
		return nil, nil
	}
	return s.repo.FindActive(ctx, uuid.NullUUID{UUID: userID, Valid: true}, serviceID)
}

// SystemFallback picks the active system-wide credential for the service.
type SystemFallback struct {
	repo Repository
}

func NewSystemFallback(repo Repository) SystemFallback {
	return SystemFallback{repo: repo}
}

func (s SystemFallback) Source() Source { return SourceSystemFallback }

func (s SystemFallback) Find(ctx context.Context, _ uuid.UUID, serviceID string) (*Credential, error) {
	return s.repo.FindActive(ctx, uuid.NullUUID{}, serviceID)
}

// DefaultStrategies is the resolution order: the user's own key first, then the system key.
func DefaultStrategies(repo Repository) []Strategy {
	return []Strategy{NewUserOwned(repo), NewSystemFallback(repo)}
}
