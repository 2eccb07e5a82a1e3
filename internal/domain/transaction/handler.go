package transaction

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/infinito/infinito-api/internal/domain/ledger"
	"github.com/infinito/infinito-api/internal/middleware"
	"github.com/infinito/infinito-api/internal/pkg/errorhandler"
	"github.com/infinito/infinito-api/internal/pkg/response"
)

// Handler handles transaction history HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates transaction handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// ListResponse wraps the history.
type ListResponse struct {
	Transactions []ledger.Transaction `json:"transactions"`
}

// List handles GET /transactions
// @Summary Credit transaction history, newest first
// @Tags Transactions
// @Produce json
// @Param limit query int false "Max rows (1-500)"
// @Success 200 {object} response.Response{data=ListResponse}
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /transactions [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			response.BadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}

	txs, err := h.service.ListForUser(r.Context(), userID, limit)
	if err != nil {
		errorhandler.Internal(r.Context(), w, "list transactions", err)
		return
	}

	response.OK(w, ListResponse{Transactions: txs})
}

// Routes returns transactions router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/", h.List)
	return r
}
