package ledger

import "errors"

var (
	// ErrUnavailable wraps every driver, connectivity and timeout failure.
	ErrUnavailable = errors.New("ledger unavailable")

	// ErrProfileNotFound is returned when the user has no profile row
	ErrProfileNotFound = errors.New("profile not found")

	// ErrDuplicateReference is returned when (user, tx type, reference) already exists
	ErrDuplicateReference = errors.New("duplicate reference")
)
