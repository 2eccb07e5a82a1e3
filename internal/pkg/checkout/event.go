package checkout

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Event types that complete a credit purchase.
const (
	EventSessionCompleted           = "checkout.session.completed"
	EventSessionAsyncPaymentSucceed = "checkout.session.async_payment_succeeded"
)

// PaymentStatusPaid marks a session whose funds are captured.
const PaymentStatusPaid = "paid"

var ErrMalformedEvent = errors.New("malformed checkout event")

// Event is the provider's webhook envelope.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// Session is the checkout session carried by session events.
type Session struct {
	ID            string            `json:"id"`
	PaymentStatus string            `json:"payment_status"`
	Metadata      map[string]string `json:"metadata"`
}

// ParseEvent decodes a webhook body.
func ParseEvent(payload []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(payload, &e); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if e.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformedEvent)
	}
	return &e, nil
}

// Session decodes the event object as a checkout session.
func (e *Event) Session() (*Session, error) {
	var s Session
	if err := json.Unmarshal(e.Data.Object, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if s.ID == "" {
		return nil, fmt.Errorf("%w: session without id", ErrMalformedEvent)
	}
	return &s, nil
}
