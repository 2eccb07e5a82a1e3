package admin

import "errors"

var (
	// ErrSelfDemotion is returned when an admin tries to drop their own admin role
	ErrSelfDemotion = errors.New("admins cannot remove their own admin role")
)
