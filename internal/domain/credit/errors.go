package credit

import "errors"

var (
	// ErrInsufficientCredits is returned when user doesn't have enough credits
	ErrInsufficientCredits = errors.New("insufficient credits")

	// ErrInvalidAmount is returned when amount is <= 0
	ErrInvalidAmount = errors.New("invalid amount: must be greater than 0")

	// ErrInvalidTxType is returned for an unknown transaction type
	ErrInvalidTxType = errors.New("invalid transaction type")

	// ErrUserNotFound is returned when user doesn't exist
	ErrUserNotFound = errors.New("user not found")

	// ErrReferenceConflict is returned when a reference id was already used with a different amount
	ErrReferenceConflict = errors.New("reference id already used with a different amount")

	// ErrRefundTargetNotFound is returned when a refund names no prior generation charge
	ErrRefundTargetNotFound = errors.New("original charge not found")

	// ErrLedgerUnavailable wraps store failures. It never means the balance is short.
	ErrLedgerUnavailable = errors.New("ledger unavailable")
)
