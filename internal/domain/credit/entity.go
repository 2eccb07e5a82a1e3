package credit

import (
	"github.com/google/uuid"

	"github.com/infinito/infinito-api/internal/domain/ledger"
)

// OperationCheckAndDeduct selects the deducting variant of the credit check endpoint.
const OperationCheckAndDeduct = "check_and_deduct"

// Result is the outcome of a balance-changing operation.
type Result struct {
	NewBalance int64
	// Replayed is true when the reference id matched an earlier identical operation
	// and nothing was applied.
	Replayed    bool
	Transaction *ledger.Transaction
}

// Reconciliation compares the cached balance with the ledger sum.
type Reconciliation struct {
	UserID     uuid.UUID `json:"userId"`
	Balance    int64     `json:"balance"`
	LedgerSum  int64     `json:"ledgerSum"`
	Drift      int64     `json:"drift"`
	Consistent bool      `json:"consistent"`
}
