package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const queryTimeout = 3 * time.Second

// Repository defines profile data access interface
type Repository interface {
	Create(ctx context.Context, profile *Profile) error
	GetByID(ctx context.Context, id uuid.UUID) (*Profile, error)
	List(ctx context.Context) ([]Profile, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role Role) (*Profile, error)
}

// repository implements Repository
type repository struct {
	db *sqlx.DB
}

// NewRepository creates new profile repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const profileColumns = `id, email, full_name, role, credits, created_at, updated_at`

// Create provisions a profile with a zero balance. Credits only arrive through the ledger.
func (r *repository) Create(ctx context.Context, profile *Profile) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if profile.Role == "" {
		profile.Role = RoleStandard
	}

	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO user_profiles (id, email, full_name, role)
		VALUES ($1, $2, $3, $4)
		RETURNING credits, created_at, updated_at
	`, profile.ID, profile.Email, profile.FullName, profile.Role).
		Scan(&profile.Credits, &profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		return fmt.Errorf("profile repository create: %w", err)
	}
	return nil
}

// GetByID returns ErrUserNotFound when no profile row exists
func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var profile Profile
	err := r.db.GetContext(ctx, &profile, `SELECT `+profileColumns+` FROM user_profiles WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("profile repository get: %w", err)
	}
	return &profile, nil
}

// List returns all profiles, newest first
func (r *repository) List(ctx context.Context) ([]Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	profiles := make([]Profile, 0)
	err := r.db.SelectContext(ctx, &profiles, `SELECT `+profileColumns+` FROM user_profiles ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("profile repository list: %w", err)
	}
	return profiles, nil
}

// UpdateRole changes a profile role. Demotions lock every admin row first, so concurrent
// demotions queue up and the last admin is never removed.
func (r *repository) UpdateRole(ctx context.Context, id uuid.UUID, role Role) (*Profile, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("profile repository update role: begin: %w", err)
	}
	defer tx.Rollback()

	if role != RoleAdmin {
		var admins []uuid.UUID
		err := tx.SelectContext(ctx, &admins, `SELECT id FROM user_profiles WHERE role = $1 ORDER BY id FOR UPDATE`, RoleAdmin)
		if err != nil {
			return nil, fmt.Errorf("profile repository lock admins: %w", err)
		}
		if len(admins) == 1 && admins[0] == id {
			return nil, ErrLastAdmin
		}
	}

	var profile Profile
	err = tx.GetContext(ctx, &profile, `
		UPDATE user_profiles SET role = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+profileColumns, id, role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("profile repository update role: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("profile repository update role: commit: %w", err)
	}
	return &profile, nil
}
