package payment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/infinito/infinito-api/internal/domain/credit"
	"github.com/infinito/infinito-api/internal/domain/ledger"
	"github.com/infinito/infinito-api/internal/pkg/checkout"
	"github.com/infinito/infinito-api/internal/pkg/logger"
)

// CreditAdder records purchased credits
type CreditAdder interface {
	AddCredits(ctx context.Context, userID uuid.UUID, amount int64, txType ledger.TxType, description, referenceID string) (*credit.Result, error)
}

// Service turns completed checkout sessions into purchase credits
type Service struct {
	credits   CreditAdder
	secret    string
	tolerance time.Duration
	now       func() time.Time
}

// NewService creates payment webhook service. An empty secret rejects every delivery.
func NewService(credits CreditAdder, secret string) *Service {
	return &Service{
		credits:   credits,
		secret:    secret,
		tolerance: checkout.DefaultTolerance,
		now:       time.Now,
	}
}

// HandleWebhook verifies and applies one delivery. Returned errors other than
// ErrInvalidSignature and ErrInvalidPayload are transient and the provider should retry.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) (*Outcome, error) {
	if s.secret == "" {
		return nil, ErrWebhookDisabled
	}
	if err := checkout.VerifySignature(payload, signature, s.secret, s.now(), s.tolerance); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Msg("payment webhook signature rejected")
		return nil, ErrInvalidSignature
	}

	event, err := checkout.ParseEvent(payload)
	if err != nil {
		return nil, ErrInvalidPayload
	}

	log := logger.FromContext(ctx).With().Str("event_id", event.ID).Str("event_type", event.Type).Logger()

	switch event.Type {
	case checkout.EventSessionCompleted, checkout.EventSessionAsyncPaymentSucceed:
	default:
		log.Debug().Msg("payment webhook event ignored")
		return &Outcome{EventID: event.ID, Ignored: true, Reason: "unhandled event type"}, nil
	}

	session, err := event.Session()
	if err != nil {
		return nil, ErrInvalidPayload
	}
	if session.PaymentStatus != "" && session.PaymentStatus != checkout.PaymentStatusPaid {
		log.Info().Str("session_id", session.ID).Str("payment_status", session.PaymentStatus).
			Msg("checkout completed without captured payment")
		return &Outcome{EventID: event.ID, Ignored: true, Reason: "payment not captured"}, nil
	}

	purchase, err := purchaseFromSession(session)
	if err != nil {
		// Retrying cannot fix the metadata, so the delivery is acknowledged.
		log.Error().Err(err).Str("session_id", session.ID).Msg("paid checkout session cannot be credited")
		return &Outcome{EventID: event.ID, Ignored: true, Reason: err.Error()}, nil
	}

	result, err := s.credits.AddCredits(ctx, purchase.UserID, purchase.Credits, ledger.TxTypePurchase, purchaseDescription, purchase.SessionID)
	switch {
	case errors.Is(err, credit.ErrUserNotFound), errors.Is(err, credit.ErrReferenceConflict):
		log.Error().Err(err).
			Str("session_id", purchase.SessionID).
			Str("user_id", purchase.UserID.String()).
			Msg("paid checkout session cannot be credited")
		return &Outcome{EventID: event.ID, Ignored: true, Reason: err.Error()}, nil
	case err != nil:
		return nil, err
	}

	log.Info().
		Str("session_id", purchase.SessionID).
		Str("user_id", purchase.UserID.String()).
		Int64("credits", purchase.Credits).
		Int64("new_balance", result.NewBalance).
		Bool("replayed", result.Replayed).
		Msg("checkout purchase credited")

	return &Outcome{EventID: event.ID, Credited: !result.Replayed, Replayed: result.Replayed}, nil
}
