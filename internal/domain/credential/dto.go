package credential

import "github.com/google/uuid"

// SaveRequest stores a key for the caller.
type SaveRequest struct {
	ServiceID string `json:"serviceId" validate:"required,service_id"`
	Key       string `json:"key" validate:"required"`
}

// AdminSaveRequest stores a key for any user, or the system fallback when UserID is nil.
type AdminSaveRequest struct {
	ServiceID string     `json:"serviceId" validate:"required,service_id"`
	Key       string     `json:"key" validate:"required"`
	UserID    *uuid.UUID `json:"userId"`
}

// PatchRequest is a partial flag update.
type PatchRequest struct {
	IsActive  *bool `json:"isActive"`
	IsVisible *bool `json:"isVisible"`
}

// ListResponse wraps a credential listing.
type ListResponse struct {
	Credentials []Credential `json:"credentials"`
}

// ResolveResponse describes the credential that would be used, without its secret.
type ResolveResponse struct {
	CredentialID string `json:"credentialId"`
	ServiceID    string `json:"serviceId"`
	Source       Source `json:"source"`
	KeyHint      string `json:"keyHint"`
}
