package ledger

import (
	"time"

	"github.com/google/uuid"
)

// TxType defines supported credit transaction types.
type TxType string

const (
	TxTypePurchase        TxType = "purchase"
	TxTypeAIGeneration    TxType = "ai_generation"
	TxTypeRefund          TxType = "refund"
	TxTypeAdminAdjustment TxType = "admin_adjustment"
	TxTypeBonus           TxType = "bonus"
)

// Valid reports whether t is a known transaction type.
func (t TxType) Valid() bool {
	switch t {
	case TxTypePurchase, TxTypeAIGeneration, TxTypeRefund, TxTypeAdminAdjustment, TxTypeBonus:
		return true
	}
	return false
}

// Transaction is an immutable ledger row. Amount is signed: positive credits, negative debits.
type Transaction struct {
	ID           uuid.UUID `db:"id" json:"id"`
	UserID       uuid.UUID `db:"user_id" json:"userId"`
	Amount       int64     `db:"amount" json:"amount"`
	TxType       TxType    `db:"tx_type" json:"txType"`
	Description  string    `db:"description" json:"description"`
	ReferenceID  *string   `db:"reference_id" json:"referenceId,omitempty"`
	BalanceAfter int64     `db:"balance_after" json:"balanceAfter"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// Reference returns the reference id or an empty string.
func (t *Transaction) Reference() string {
	if t.ReferenceID == nil {
		return ""
	}
	return *t.ReferenceID
}
