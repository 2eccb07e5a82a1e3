package payment

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/infinito/infinito-api/internal/pkg/checkout"
	"github.com/infinito/infinito-api/internal/pkg/errorhandler"
	"github.com/infinito/infinito-api/internal/pkg/response"
)

const maxWebhookBytes = 1 << 20

// Handler handles payment webhooks
type Handler struct {
	service *Service
}

// NewHandler creates payment handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// WebhookResponse acknowledges a delivery
type WebhookResponse struct {
	Received bool `json:"received"`
	Credited bool `json:"credited"`
	Replayed bool `json:"replayed"`
}

// Webhook handles POST /webhooks/payments
// @Summary Checkout provider webhook
// @Description Credits purchases from completed checkout sessions. Signed with the Payment-Signature header.
// @Tags Payment Webhooks
// @Accept json
// @Produce json
// @Success 200 {object} response.Response{data=WebhookResponse}
// @Failure 400 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /webhooks/payments [post]
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		response.BadRequest(w, "Invalid webhook data")
		return
	}

	outcome, err := h.service.HandleWebhook(r.Context(), payload, r.Header.Get(checkout.SignatureHeader))
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidSignature):
			response.Error(w, http.StatusBadRequest, "INVALID_SIGNATURE", "Invalid webhook signature")
		case errors.Is(err, ErrInvalidPayload):
			response.BadRequest(w, "Invalid webhook data")
		case errors.Is(err, ErrWebhookDisabled):
			errorhandler.HandleError(r.Context(), w, http.StatusServiceUnavailable, "WEBHOOK_DISABLED",
				"Payment webhook is not configured", err)
		default:
			errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "WEBHOOK_FAILED",
				"Webhook handler failed", err)
		}
		return
	}

	response.OK(w, WebhookResponse{Received: true, Credited: outcome.Credited, Replayed: outcome.Replayed})
}

// WebhookRoutes returns webhook router (no auth, but signature verification)
func (h *Handler) WebhookRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/payments", h.Webhook)
	return r
}
