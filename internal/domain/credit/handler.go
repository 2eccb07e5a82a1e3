package credit

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/infinito/infinito-api/internal/domain/ledger"
	"github.com/infinito/infinito-api/internal/middleware"
	"github.com/infinito/infinito-api/internal/pkg/errorhandler"
	"github.com/infinito/infinito-api/internal/pkg/response"
	"github.com/infinito/infinito-api/internal/pkg/validator"
)

const defaultGenerationDescription = "AI generation"

// Handler handles credit HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates credit handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Check handles POST /credits/check
// @Summary Check or deduct credits before a metered operation
// @Tags Credits
// @Accept json
// @Produce json
// @Param request body CheckRequest true "Required credits"
// @Success 200 {object} response.Response{data=CheckResponse}
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /credits/check [post]
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req CheckRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		errorhandler.LogValidationError(r.Context(), errs)
		response.ValidationError(w, errs)
		return
	}

	amount := *req.RequiredCredits

	if req.Operation == "" {
		sufficient, balance, err := h.service.HasSufficientCredits(r.Context(), userID, amount)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		if !sufficient {
			response.ErrorWithDetails(w, http.StatusConflict, "INSUFFICIENT_CREDITS", "Insufficient credits", map[string]string{
				"credits":  strconv.FormatInt(balance, 10),
				"required": strconv.FormatInt(amount, 10),
			})
			return
		}
		response.OK(w, CheckResponse{Sufficient: true, Credits: balance, Required: amount})
		return
	}

	referenceID := strings.TrimSpace(req.ReferenceID)
	if referenceID == "" {
		referenceID = "gen_" + uuid.New().String()
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = defaultGenerationDescription
	}

	result, err := h.service.CheckAndDeduct(r.Context(), userID, amount, ledger.TxTypeAIGeneration, description, referenceID)
	if err != nil {
		if errors.Is(err, ErrInsufficientCredits) {
			response.ErrorWithDetails(w, http.StatusConflict, "INSUFFICIENT_CREDITS", "Insufficient credits", map[string]string{
				"required": strconv.FormatInt(amount, 10),
			})
			return
		}
		WriteError(w, r, err)
		return
	}

	response.OK(w, DeductResponse{
		Credits:     result.NewBalance,
		Deducted:    amount,
		ReferenceID: referenceID,
		Replayed:    result.Replayed,
	})
}

// Balance handles GET /credits/balance
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	balance, err := h.service.GetBalance(r.Context(), userID)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	response.OK(w, BalanceResponse{Credits: balance})
}

// WriteError maps credit service errors to HTTP responses.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidAmount):
		response.Error(w, http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be a positive whole number of credits")
	case errors.Is(err, ErrInvalidTxType):
		response.Error(w, http.StatusBadRequest, "INVALID_TRANSACTION_TYPE", "Unknown transaction type")
	case errors.Is(err, ErrInsufficientCredits):
		response.Error(w, http.StatusConflict, "INSUFFICIENT_CREDITS", "Insufficient credits")
	case errors.Is(err, ErrReferenceConflict):
		response.Error(w, http.StatusConflict, "REFERENCE_CONFLICT", "Reference id already used with a different amount")
	case errors.Is(err, ErrUserNotFound):
		response.NotFound(w, "User not found")
	case errors.Is(err, ErrRefundTargetNotFound):
		response.NotFound(w, "Original charge not found")
	default:
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "LEDGER_UNAVAILABLE",
			"Credit ledger temporarily unavailable, please retry", err)
	}
}

// Routes returns credits router
func (h *Handler) Routes(authMiddleware, rateLimit func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.With(rateLimit).Post("/check", h.Check)
	r.Get("/balance", h.Balance)
	return r
}
