package credential

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const (
	queryTimeout = 3 * time.Second

	foreignKeyViolation = "23503"
)

// Repository defines credential data access
type Repository interface {
	// FindActive returns nil, nil when owner has no active credential for serviceID.
	FindActive(ctx context.Context, owner uuid.NullUUID, serviceID string) (*Credential, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Credential, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Credential, error)
	ListAll(ctx context.Context) ([]Credential, error)
	// Upsert inserts c or replaces the secret of the existing (owner, service) row.
	Upsert(ctx context.Context, c *Credential) error
	Update(ctx context.Context, id uuid.UUID, patch Patch) (*Credential, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates new credential repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const credentialColumns = `id, user_id, service_id, name, encrypted_key, key_hint, is_active, is_visible, created_at, updated_at`

func (r *repository) FindActive(ctx context.Context, owner uuid.NullUUID, serviceID string) (*Credential, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var (
		c   Credential
		err error
	)
	if owner.Valid {
		err = r.db.GetContext(ctx, &c, `
			SELECT `+credentialColumns+`
			FROM credentials
			WHERE user_id = $1 AND service_id = $2 AND is_active
		`, owner.UUID, serviceID)
	} else {
		err = r.db.GetContext(ctx, &c, `
			SELECT `+credentialColumns+`
			FROM credentials
			WHERE user_id IS NULL AND service_id = $1 AND is_active
		`, serviceID)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("find active", err)
	}
	return &c, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Credential, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var c Credential
	err := r.db.GetContext(ctx, &c, `SELECT `+credentialColumns+` FROM credentials WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable("get", err)
	}
	return &c, nil
}

// ListByUser returns the user's own credentials, newest first.
func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Credential, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	creds := make([]Credential, 0)
	err := r.db.SelectContext(ctx, &creds, `
		SELECT `+credentialColumns+`
		FROM credentials
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, unavailable("list by user", err)
	}
	return creds, nil
}

// ListAll returns every credential with its owner's email, newest first.
func (r *repository) ListAll(ctx context.Context) ([]Credential, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	creds := make([]Credential, 0)
	err := r.db.SelectContext(ctx, &creds, `
		SELECT c.id, c.user_id, c.service_id, c.name, c.encrypted_key, c.key_hint, c.is_active,
		       c.is_visible, c.created_at, c.updated_at, p.email AS owner_email
		FROM credentials c
		LEFT JOIN user_profiles p ON p.id = c.user_id
		ORDER BY c.created_at DESC
	`)
	if err != nil {
		return nil, unavailable("list all", err)
	}
	return creds, nil
}

func (r *repository) Upsert(ctx context.Context, c *Credential) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	conflictTarget := `(user_id, service_id) WHERE user_id IS NOT NULL`
	if !c.UserID.Valid {
		conflictTarget = `(service_id) WHERE user_id IS NULL`
	}

	err := r.db.GetContext(ctx, c, `
		INSERT INTO credentials (user_id, service_id, name, encrypted_key, key_hint)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT `+conflictTarget+`
		DO UPDATE SET encrypted_key = EXCLUDED.encrypted_key,
		              key_hint = EXCLUDED.key_hint,
		              updated_at = NOW()
		RETURNING `+credentialColumns,
		c.UserID, c.ServiceID, c.Name, c.EncryptedKey, c.KeyHint)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation {
			return ErrInvalidOwner
		}
		return unavailable("upsert", err)
	}
	return nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, patch Patch) (*Credential, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var c Credential
	err := r.db.GetContext(ctx, &c, `
		UPDATE credentials
		SET is_active = COALESCE($2, is_active),
		    is_visible = COALESCE($3, is_visible),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING `+credentialColumns,
		id, patch.IsActive, patch.IsVisible)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable("update", err)
	}
	return &c, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := r.db.ExecContext(ctx, `DELETE FROM credentials WHERE id = $1`, id)
	if err != nil {
		return unavailable("delete", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return unavailable("delete rows affected", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}
