package credential

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means no usable credential is configured. It is a configuration gap,
	// not a transient failure.
	ErrNotFound = errors.New("credential not found")

	ErrKeyTooShort        = errors.New("API key seems too short")
	ErrInvalidService     = errors.New("invalid service id")
	ErrInvalidOwner       = errors.New("invalid user")
	ErrForbidden          = errors.New("not allowed to manage this credential")
	ErrEmptyPatch         = errors.New("nothing to update")
	ErrEncryptionDisabled = errors.New("credential encryption key not configured")
	ErrUnavailable        = errors.New("credential store unavailable")
)

// NotFoundError carries the service that has no credential so callers can tell the user
// what to configure.
type NotFoundError struct {
	ServiceID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("API key for %s not found. Please configure it in AI Settings or contact admin to set system-wide key.", e.ServiceID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}
