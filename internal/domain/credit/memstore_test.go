package credit

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/infinito/infinito-api/internal/domain/ledger"
)

// memStore is an in-memory ledger.Store. Transactions are serialized and staged until commit.
type memStore struct {
	mu       sync.Mutex
	balances map[uuid.UUID]int64
	txs      []ledger.Transaction

	// fail makes every operation return an unavailable error.
	fail error
	// racer, when set, is committed on the next append to simulate a concurrent writer
	// winning the reference index.
	racer *ledger.Transaction
	// debitRacer, when set, is committed right before the next debit to simulate a retry
	// of the same reference that passed its lookup first and already took the balance.
	debitRacer *ledger.Transaction
}

func newMemStore() *memStore {
	return &memStore{balances: map[uuid.UUID]int64{}}
}

// seed creates a profile whose balance is backed by a bonus transaction.
func (m *memStore) seed(balance int64) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New()
	m.balances[id] = balance
	if balance > 0 {
		m.txs = append(m.txs, ledger.Transaction{
			ID: uuid.New(), UserID: id, Amount: balance, TxType: ledger.TxTypeBonus,
			BalanceAfter: balance, CreatedAt: time.Now(),
		})
	}
	return id
}

func (m *memStore) count(userID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, tx := range m.txs {
		if tx.UserID == userID {
			n++
		}
	}
	return n
}

func (m *memStore) unavailable(op string) error {
	return fmt.Errorf("%w: %s: %v", ledger.ErrUnavailable, op, m.fail)
}

func (m *memStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context, tx ledger.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fail != nil {
		return m.unavailable("begin tx")
	}

	staged := &memTx{store: m, balances: map[uuid.UUID]int64{}}
	if err := fn(ctx, staged); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: commit tx: %v", ledger.ErrUnavailable, err)
	}

	for id, balance := range staged.balances {
		m.balances[id] = balance
	}
	m.txs = append(m.txs, staged.entries...)
	return nil
}

func (m *memStore) GetBalance(_ context.Context, userID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fail != nil {
		return 0, m.unavailable("get balance")
	}
	balance, ok := m.balances[userID]
	if !ok {
		return 0, ledger.ErrProfileNotFound
	}
	return balance, nil
}

func (m *memStore) ListTransactions(_ context.Context, userID uuid.UUID, limit int) ([]ledger.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fail != nil {
		return nil, m.unavailable("list transactions")
	}
	out := make([]ledger.Transaction, 0)
	for _, tx := range m.txs {
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) FindByReference(_ context.Context, userID uuid.UUID, txType ledger.TxType, referenceID string) (*ledger.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fail != nil {
		return nil, m.unavailable("find by reference")
	}
	return findRef(m.txs, userID, txType, referenceID), nil
}

func (m *memStore) Snapshot(_ context.Context, userID uuid.UUID) (*ledger.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fail != nil {
		return nil, m.unavailable("ledger snapshot")
	}
	balance, ok := m.balances[userID]
	if !ok {
		return nil, ledger.ErrProfileNotFound
	}
	var sum int64
	for _, tx := range m.txs {
		if tx.UserID == userID {
			sum += tx.Amount
		}
	}
	return &ledger.Snapshot{Balance: balance, LedgerSum: sum}, nil
}

func findRef(txs []ledger.Transaction, userID uuid.UUID, txType ledger.TxType, referenceID string) *ledger.Transaction {
	if referenceID == "" {
		return nil
	}
	for i := range txs {
		tx := txs[i]
		if tx.UserID == userID && tx.TxType == txType && tx.Reference() == referenceID {
			return &tx
		}
	}
	return nil
}

type memTx struct {
	store    *memStore
	balances map[uuid.UUID]int64
	entries  []ledger.Transaction
}

func (t *memTx) balance(userID uuid.UUID) (int64, bool) {
	if b, ok := t.balances[userID]; ok {
		return b, true
	}
	b, ok := t.store.balances[userID]
	return b, ok
}

func (t *memTx) DebitIfSufficient(_ context.Context, userID uuid.UUID, amount int64) (int64, bool, error) {
	if racer := t.store.debitRacer; racer != nil {
		t.store.debitRacer = nil
		racer.ID = uuid.New()
		racer.CreatedAt = time.Now()
		t.store.balances[racer.UserID] += racer.Amount
		racer.BalanceAfter = t.store.balances[racer.UserID]
		t.store.txs = append(t.store.txs, *racer)
	}

	current, ok := t.balance(userID)
	if !ok || current < amount {
		return 0, false, nil
	}
	t.balances[userID] = current - amount
	return current - amount, true, nil
}

func (t *memTx) Credit(_ context.Context, userID uuid.UUID, amount int64) (int64, error) {
	current, ok := t.balance(userID)
	if !ok {
		return 0, ledger.ErrProfileNotFound
	}
	t.balances[userID] = current + amount
	return current + amount, nil
}

func (t *memTx) AppendTransaction(_ context.Context, entry *ledger.Transaction) error {
	if racer := t.store.racer; racer != nil {
		t.store.racer = nil
		t.store.txs = append(t.store.txs, *racer)
		return ledger.ErrDuplicateReference
	}

	ref := entry.Reference()
	if findRef(t.store.txs, entry.UserID, entry.TxType, ref) != nil || findRef(t.entries, entry.UserID, entry.TxType, ref) != nil {
		return ledger.ErrDuplicateReference
	}

	entry.ID = uuid.New()
	entry.CreatedAt = time.Now()
	t.entries = append(t.entries, *entry)
	return nil
}

func (t *memTx) ProfileExists(_ context.Context, userID uuid.UUID) (bool, error) {
	_, ok := t.store.balances[userID]
	return ok, nil
}

func (t *memTx) FindByReference(_ context.Context, userID uuid.UUID, txType ledger.TxType, referenceID string) (*ledger.Transaction, error) {
	if tx := findRef(t.entries, userID, txType, referenceID); tx != nil {
		return tx, nil
	}
	return findRef(t.store.txs, userID, txType, referenceID), nil
}
