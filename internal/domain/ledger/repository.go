package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const (
	queryTimeout = 3 * time.Second

	uniqueViolation = "23505"
)

// Tx is the set of balance-mutating operations available inside WithinTransaction.
type Tx interface {
	// DebitIfSufficient lowers the balance by amount only when the balance covers it.
	// ok is false when no row matched: either the profile is missing or the balance is short.
	DebitIfSufficient(ctx context.Context, userID uuid.UUID, amount int64) (newBalance int64, ok bool, err error)
	Credit(ctx context.Context, userID uuid.UUID, amount int64) (int64, error)
	AppendTransaction(ctx context.Context, entry *Transaction) error
	ProfileExists(ctx context.Context, userID uuid.UUID) (bool, error)
	FindByReference(ctx context.Context, userID uuid.UUID, txType TxType, referenceID string) (*Transaction, error)
}

// Store is the only component allowed to mutate balances and ledger rows.
type Store interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	GetBalance(ctx context.Context, userID uuid.UUID) (int64, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]Transaction, error)
	FindByReference(ctx context.Context, userID uuid.UUID, txType TxType, referenceID string) (*Transaction, error)
	Snapshot(ctx context.Context, userID uuid.UUID) (*Snapshot, error)
}

// Snapshot is a balance and ledger total read at the same instant.
type Snapshot struct {
	Balance   int64 `db:"credits"`
	LedgerSum int64 `db:"ledger_sum"`
}

// Repository implements Store over PostgreSQL.
type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// WithinTransaction runs fn in a READ COMMITTED transaction bounded by the query timeout.
// fn's error is returned unchanged and rolls the transaction back.
func (r *Repository) WithinTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	sqlTx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return unavailable("begin tx", err)
	}
	defer sqlTx.Rollback()

	if err := fn(ctx, &txRepository{tx: sqlTx}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return unavailable("commit tx", err)
	}
	return nil
}

func (r *Repository) GetBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var balance int64
	err := r.db.GetContext(ctx, &balance, `SELECT credits FROM user_profiles WHERE id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrProfileNotFound
	}
	if err != nil {
		return 0, unavailable("get balance", err)
	}
	return balance, nil
}

// ListTransactions returns at most limit rows, newest first.
func (r *Repository) ListTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	transactions := make([]Transaction, 0)
	err := r.db.SelectContext(ctx, &transactions, `
		SELECT id, user_id, amount, tx_type, description, reference_id, balance_after, created_at
		FROM credit_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, unavailable("list transactions", err)
	}
	return transactions, nil
}

func (r *Repository) FindByReference(ctx context.Context, userID uuid.UUID, txType TxType, referenceID string) (*Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return findByReference(ctx, r.db, userID, txType, referenceID)
}

// Snapshot reads the cached balance and the ledger total in one statement so that a
// concurrent movement cannot land between the two reads.
func (r *Repository) Snapshot(ctx context.Context, userID uuid.UUID) (*Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var snap Snapshot
	err := r.db.GetContext(ctx, &snap, `
		SELECT p.credits,
			COALESCE((SELECT SUM(t.amount) FROM credit_transactions t WHERE t.user_id = p.id), 0) AS ledger_sum
		FROM user_profiles p
		WHERE p.id = $1
	`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, unavailable("ledger snapshot", err)
	}
	return &snap, nil
}

type txRepository struct {
	tx *sqlx.Tx
}

func (t *txRepository) DebitIfSufficient(ctx context.Context, userID uuid.UUID, amount int64) (int64, bool, error) {
	var balance int64
	err := t.tx.GetContext(ctx, &balance, `
		UPDATE user_profiles
		SET credits = credits - $2, updated_at = NOW()
		WHERE id = $1 AND credits >= $2
		RETURNING credits
	`, userID, amount)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, unavailable("debit balance", err)
	}
	return balance, true, nil
}

func (t *txRepository) Credit(ctx context.Context, userID uuid.UUID, amount int64) (int64, error) {
	var balance int64
	err := t.tx.GetContext(ctx, &balance, `
		UPDATE user_profiles
		SET credits = credits + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING credits
	`, userID, amount)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrProfileNotFound
	}
	if err != nil {
		return 0, unavailable("credit balance", err)
	}
	return balance, nil
}

// AppendTransaction inserts entry and fills its ID and CreatedAt.
func (t *txRepository) AppendTransaction(ctx context.Context, entry *Transaction) error {
	err := t.tx.QueryRowxContext(ctx, `
		INSERT INTO credit_transactions (user_id, amount, tx_type, description, reference_id, balance_after)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, entry.UserID, entry.Amount, string(entry.TxType), entry.Description, entry.ReferenceID, entry.BalanceAfter).
		Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateReference
		}
		return unavailable("insert transaction", err)
	}
	return nil
}

func (t *txRepository) ProfileExists(ctx context.Context, userID uuid.UUID) (bool, error) {
	var exists bool
	err := t.tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM user_profiles WHERE id = $1)`, userID)
	if err != nil {
		return false, unavailable("profile exists", err)
	}
	return exists, nil
}

func (t *txRepository) FindByReference(ctx context.Context, userID uuid.UUID, txType TxType, referenceID string) (*Transaction, error) {
	return findByReference(ctx, t.tx, userID, txType, referenceID)
}

// findByReference returns nil, nil when no row carries the reference.
func findByReference(ctx context.Context, q sqlx.QueryerContext, userID uuid.UUID, txType TxType, referenceID string) (*Transaction, error) {
	if referenceID == "" {
		return nil, nil
	}

	var entry Transaction
	err := sqlx.GetContext(ctx, q, &entry, `
		SELECT id, user_id, amount, tx_type, description, reference_id, balance_after, created_at
		FROM credit_transactions
		WHERE user_id = $1 AND tx_type = $2 AND reference_id = $3
		LIMIT 1
	`, userID, string(txType), referenceID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("find by reference", err)
	}
	return &entry, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}
