package payment

import "errors"

var (
	ErrWebhookDisabled  = errors.New("payment webhook secret not configured")
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrInvalidPayload   = errors.New("invalid webhook payload")
	ErrInvalidMetadata  = errors.New("checkout session metadata missing userId or credits")
)
