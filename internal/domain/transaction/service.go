package transaction

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/infinito/infinito-api/internal/domain/ledger"
)

// MaxLimit caps every history read.
const MaxLimit = 500

// ErrUnavailable is returned when the ledger cannot be read
var ErrUnavailable = errors.New("transaction history unavailable")

// Reader is the read side of the ledger used for history.
type Reader interface {
	ListTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]ledger.Transaction, error)
}

// Service serves a user's ledger history, newest first
type Service struct {
	reader   Reader
	maxLimit int
}

// NewService creates a transaction query service. maxLimit outside 1..500 falls back to 500.
func NewService(reader Reader, maxLimit int) *Service {
	if maxLimit <= 0 || maxLimit > MaxLimit {
		maxLimit = MaxLimit
	}
	return &Service{reader: reader, maxLimit: maxLimit}
}

// ListForUser returns the caller's own transactions. A non-positive limit means the cap.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]ledger.Transaction, error) {
	if limit <= 0 || limit > s.maxLimit {
		limit = s.maxLimit
	}

	txs, err := s.reader.ListTransactions(ctx, userID, limit)
	if err != nil {
		return nil, errors.Join(ErrUnavailable, err)
	}
	return txs, nil
}
