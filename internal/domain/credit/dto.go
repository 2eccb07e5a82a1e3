package credit

// CheckRequest is the body of POST /credits/check.
// RequiredCredits is a pointer so that a missing value and zero are told apart;
// non-integral JSON numbers fail decoding.
type CheckRequest struct {
	RequiredCredits *int64 `json:"requiredCredits" validate:"required"`
	Operation       string `json:"operation" validate:"omitempty,oneof=check_and_deduct"`
	ReferenceID     string `json:"referenceId" validate:"omitempty,max=128"`
	Description     string `json:"description" validate:"omitempty,max=500"`
}

// CheckResponse is returned by a check-only request.
type CheckResponse struct {
	Sufficient bool  `json:"sufficient"`
	Credits    int64 `json:"credits"`
	Required   int64 `json:"required"`
}

// DeductResponse is returned by a successful check_and_deduct.
type DeductResponse struct {
	Credits     int64  `json:"credits"`
	Deducted    int64  `json:"deducted"`
	ReferenceID string `json:"referenceId"`
	Replayed    bool   `json:"replayed"`
}

// BalanceResponse is returned by GET /credits/balance.
type BalanceResponse struct {
	Credits int64 `json:"credits"`
}
