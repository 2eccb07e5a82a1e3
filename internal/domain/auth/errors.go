package auth

import "errors"

var (
	// ErrUnauthenticated covers an absent, malformed, invalid or expired bearer token.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrProfileMissing means the token verified but no profile row exists (a provisioning gap).
	ErrProfileMissing = errors.New("user profile not found")

	// ErrForbidden is returned when the identity lacks the required role
	ErrForbidden = errors.New("admin access required")

	// ErrUnavailable wraps identity or profile lookup failures
	ErrUnavailable = errors.New("identity lookup unavailable")
)
