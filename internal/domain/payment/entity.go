package payment

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/infinito/infinito-api/internal/pkg/checkout"
)

// Metadata keys set on the checkout session when it is created.
const (
	MetadataUserID  = "userId"
	MetadataCredits = "credits"
)

const purchaseDescription = "Credit purchase via checkout"

// Purchase is a paid checkout session to be turned into credits.
type Purchase struct {
	SessionID string
	UserID    uuid.UUID
	Credits   int64
}

// Outcome reports what a webhook delivery did.
type Outcome struct {
	EventID  string
	Credited bool
	Replayed bool
	// Ignored is set for events that are acknowledged without changing balances.
	Ignored bool
	Reason  string
}

// purchaseFromSession reads the buyer and pack size from session metadata.
func purchaseFromSession(s *checkout.Session) (*Purchase, error) {
	userID, err := uuid.Parse(strings.TrimSpace(s.Metadata[MetadataUserID]))
	if err != nil {
		return nil, ErrInvalidMetadata
	}
	credits, err := strconv.ParseInt(strings.TrimSpace(s.Metadata[MetadataCredits]), 10, 64)
	if err != nil || credits <= 0 {
		return nil, ErrInvalidMetadata
	}
	return &Purchase{SessionID: s.ID, UserID: userID, Credits: credits}, nil
}
