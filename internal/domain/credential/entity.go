package credential

import (
	"time"

	"github.com/google/uuid"
)

// Source tells where a resolved credential came from.
type Source string

const (
	SourceUserOwned      Source = "user_owned"
	SourceSystemFallback Source = "system_fallback"
)

// Credential is a stored upstream API key. A null UserID marks the system-wide fallback
// for ServiceID. EncryptedKey never leaves the service.
type Credential struct {
	ID           uuid.UUID     `db:"id" json:"id"`
	UserID       uuid.NullUUID `db:"user_id" json:"userId"`
	ServiceID    string        `db:"service_id" json:"serviceId"`
	Name         string        `db:"name" json:"name"`
	EncryptedKey string        `db:"encrypted_key" json:"-"`
	KeyHint      string        `db:"key_hint" json:"keyHint"`
	IsActive     bool          `db:"is_active" json:"isActive"`
	IsVisible    bool          `db:"is_visible" json:"isVisible"`
	CreatedAt    time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updatedAt"`

	// OwnerEmail is filled by admin listings only.
	OwnerEmail *string `db:"owner_email" json:"ownerEmail,omitempty"`
}

// IsSystem reports whether the credential is the system-wide fallback.
func (c *Credential) IsSystem() bool {
	return !c.UserID.Valid
}

// OwnedBy reports whether userID owns the credential.
func (c *Credential) OwnedBy(userID uuid.UUID) bool {
	return c.UserID.Valid && c.UserID.UUID == userID
}

// Resolved is a usable credential with its decrypted secret.
type Resolved struct {
	Credential *Credential
	Secret     string
	Source     Source
}

// Patch is a partial update of the credential flags.
type Patch struct {
	IsActive  *bool
	IsVisible *bool
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.IsActive == nil && p.IsVisible == nil
}

// Owner returns the NullUUID for a user, or the system owner for nil.
func Owner(userID *uuid.UUID) uuid.NullUUID {
	if userID == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *userID, Valid: true}
}

// keyHint keeps the last four characters of a secret.
func keyHint(secret string) string {
	runes := []rune(secret)
	if len(runes) <= 4 {
		return "****"
	}
	return "****" + string(runes[len(runes)-4:])
}
