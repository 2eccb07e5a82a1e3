package user

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Role represents a profile role (matches the user_profiles.role check)
type Role string

const (
	RoleStandard Role = "standard"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is an assignable role.
func (r Role) Valid() bool {
	return r == RoleStandard || r == RoleAdmin
}

// Profile is the user_profiles row. Credits is a cache of the ledger sum and is only
// changed through the ledger.
type Profile struct {
	ID        uuid.UUID      `db:"id" json:"id"`
	Email     string         `db:"email" json:"email"`
	FullName  sql.NullString `db:"full_name" json:"-"`
	Role      Role           `db:"role" json:"role"`
	Credits   int64          `db:"credits" json:"credits"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time      `db:"updated_at" json:"updatedAt"`
}

// IsAdmin returns true if user is an admin
func (p *Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// DisplayName returns the full name, or nil when unset.
func (p *Profile) DisplayName() *string {
	if !p.FullName.Valid {
		return nil
	}
	return &p.FullName.String
}
