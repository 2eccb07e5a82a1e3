package credit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/infinito/infinito-api/internal/domain/ledger"
	"github.com/infinito/infinito-api/internal/pkg/logger"
)

// RefundReferencePrefix marks the reference of a refund issued for a generation charge.
const RefundReferencePrefix = "refund:"

// Service authorizes and records credit movements.
type Service struct {
	store ledger.Store
}

// NewService creates a new credit service
func NewService(store ledger.Store) *Service {
	return &Service{store: store}
}

// HasSufficientCredits reports whether the balance covers amount. It never mutates state.
func (s *Service) HasSufficientCredits(ctx context.Context, userID uuid.UUID, amount int64) (bool, int64, error) {
	if amount <= 0 {
		return false, 0, ErrInvalidAmount
	}

	balance, err := s.GetBalance(ctx, userID)
	if err != nil {
		return false, 0, err
	}
	return balance >= amount, balance, nil
}

// GetBalance returns the current credit balance for a user
func (s *Service) GetBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	balance, err := s.store.GetBalance(ctx, userID)
	if err != nil {
		return 0, mapLedgerError(err)
	}
	return balance, nil
}

// CheckAndDeduct re-checks sufficiency and deducts in one conditional update, then appends
// a negative ledger entry in the same transaction. On ErrInsufficientCredits nothing changes.
func (s *Service) CheckAndDeduct(ctx context.Context, userID uuid.UUID, amount int64, txType ledger.TxType, description, referenceID string) (*Result, error) {
	if err := validate(amount, txType); err != nil {
		return nil, err
	}

	return s.apply(ctx, userID, -amount, txType, description, referenceID, func(ctx context.Context, tx ledger.Tx) (int64, error) {
		balance, ok, err := tx.DebitIfSufficient(ctx, userID, amount)
		if err != nil {
			return 0, err
		}
		if ok {
			return balance, nil
		}

		exists, err := tx.ProfileExists(ctx, userID)
		if err != nil {
			return 0, err
		}
		if !exists {
			return 0, ErrUserNotFound
		}
		return 0, ErrInsufficientCredits
	})
}

// AddCredits raises the balance and appends a positive ledger entry.
func (s *Service) AddCredits(ctx context.Context, userID uuid.UUID, amount int64, txType ledger.TxType, description, referenceID string) (*Result, error) {
	if err := validate(amount, txType); err != nil {
		return nil, err
	}

	return s.apply(ctx, userID, amount, txType, description, referenceID, func(ctx context.Context, tx ledger.Tx) (int64, error) {
		return tx.Credit(ctx, userID, amount)
	})
}

// Refund credits back a generation charge identified by its reference id.
// Refunds are idempotent per original reference and never exceed the original charge.
func (s *Service) Refund(ctx context.Context, userID uuid.UUID, amount int64, originalReferenceID, description string) (*Result, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	originalReferenceID = strings.TrimSpace(originalReferenceID)
	if originalReferenceID == "" {
		return nil, ErrRefundTargetNotFound
	}

	original, err := s.store.FindByReference(ctx, userID, ledger.TxTypeAIGeneration, originalReferenceID)
	if err != nil {
		return nil, mapLedgerError(err)
	}
	if original == nil {
		return nil, ErrRefundTargetNotFound
	}
	if amount > -original.Amount {
		return nil, fmt.Errorf("%w: refund exceeds original charge of %d", ErrInvalidAmount, -original.Amount)
	}

	if description == "" {
		description = "Refund for " + originalReferenceID
	}
	return s.AddCredits(ctx, userID, amount, ledger.TxTypeRefund, description, RefundReferencePrefix+originalReferenceID)
}

// Reconcile compares the cached balance with the sum of the user's ledger.
// Both values come from one store read, so in-flight movements never show up as drift.
func (s *Service) Reconcile(ctx context.Context, userID uuid.UUID) (*Reconciliation, error) {
	snap, err := s.store.Snapshot(ctx, userID)
	if err != nil {
		return nil, mapLedgerError(err)
	}

	return &Reconciliation{
		UserID:     userID,
		Balance:    snap.Balance,
		LedgerSum:  snap.LedgerSum,
		Drift:      snap.Balance - snap.LedgerSum,
		Consistent: snap.Balance == snap.LedgerSum,
	}, nil
}

type mutation func(ctx context.Context, tx ledger.Tx) (int64, error)

// apply runs mutate and the ledger append in one store transaction. A non-empty referenceID
// makes the call idempotent: a repeat with the same signed amount is reported as a replay.
func (s *Service) apply(ctx context.Context, userID uuid.UUID, signedAmount int64, txType ledger.TxType, description, referenceID string, mutate mutation) (*Result, error) {
	referenceID = strings.TrimSpace(referenceID)

	var (
		result   *Result
		existing *ledger.Transaction
	)
	err := s.store.WithinTransaction(ctx, func(ctx context.Context, tx ledger.Tx) error {
		if referenceID != "" {
			found, err := tx.FindByReference(ctx, userID, txType, referenceID)
			if err != nil {
				return err
			}
			if found != nil {
				existing = found
				return nil
			}
		}

		balance, err := mutate(ctx, tx)
		if err != nil {
			return err
		}

		entry := &ledger.Transaction{
			UserID:       userID,
			Amount:       signedAmount,
			TxType:       txType,
			Description:  description,
			BalanceAfter: balance,
		}
		if referenceID != "" {
			entry.ReferenceID = &referenceID
		}
		if err := tx.AppendTransaction(ctx, entry); err != nil {
			return err
		}

		result = &Result{NewBalance: balance, Transaction: entry}
		return nil
	})

	switch {
	case referenceID != "" && errors.Is(err, ErrInsufficientCredits):
		// A retry of the same reference may have committed after our lookup and consumed
		// the balance this debit needed.
		found, findErr := s.store.FindByReference(ctx, userID, txType, referenceID)
		if findErr != nil {
			return nil, mapLedgerError(findErr)
		}
		if found == nil {
			return nil, err
		}
		existing = found
	case errors.Is(err, ledger.ErrDuplicateReference):
		// A concurrent caller committed the same reference first.
		found, findErr := s.store.FindByReference(ctx, userID, txType, referenceID)
		if findErr != nil {
			return nil, mapLedgerError(findErr)
		}
		if found == nil {
			return nil, fmt.Errorf("%w: reference %q vanished after conflict", ErrLedgerUnavailable, referenceID)
		}
		existing = found
	case err != nil:
		return nil, mapLedgerError(err)
	}

	if existing != nil {
		return s.replay(ctx, existing, signedAmount)
	}
	return result, nil
}

func (s *Service) replay(ctx context.Context, existing *ledger.Transaction, signedAmount int64) (*Result, error) {
	if existing.Amount != signedAmount {
		return nil, ErrReferenceConflict
	}

	balance, err := s.GetBalance(ctx, existing.UserID)
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info().
		Str("user_id", existing.UserID.String()).
		Str("reference_id", existing.Reference()).
		Str("tx_type", string(existing.TxType)).
		Msg("credit operation replayed")

	return &Result{NewBalance: balance, Replayed: true, Transaction: existing}, nil
}

func validate(amount int64, txType ledger.TxType) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if !txType.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidTxType, txType)
	}
	return nil
}

// mapLedgerError keeps service errors and translates store errors.
func mapLedgerError(err error) error {
	switch {
	case errors.Is(err, ErrInsufficientCredits),
		errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrReferenceConflict):
		return err
	case errors.Is(err, ledger.ErrProfileNotFound):
		return ErrUserNotFound
	default:
		return fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
}
