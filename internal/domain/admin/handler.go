package admin

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/infinito/infinito-api/internal/domain/credit"
	"github.com/infinito/infinito-api/internal/domain/user"
	"github.com/infinito/infinito-api/internal/middleware"
	"github.com/infinito/infinito-api/internal/pkg/errorhandler"
	"github.com/infinito/infinito-api/internal/pkg/response"
	"github.com/infinito/infinito-api/internal/pkg/validator"
)

// Handler handles admin HTTP requests. Callers mount it behind Auth and RequireAdmin.
type Handler struct {
	service *Service
}

// NewHandler creates admin handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// ListUsers handles GET /admin/users
// @Summary List all user profiles
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Response{data=UserListResponse}
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /admin/users [get]
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.service.ListUsers(r.Context())
	if err != nil {
		errorhandler.Internal(r.Context(), w, "admin list users", err)
		return
	}

	items := make([]UserResponse, len(profiles))
	for i := range profiles {
		items[i] = UserResponseFromProfile(&profiles[i])
	}
	response.OK(w, UserListResponse{Users: items})
}

// GetUser handles GET /admin/users/{id}
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}

	p, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, UserResponseFromProfile(p))
}

// UpdateRole handles PATCH /admin/users/{id}
func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}

	var req UpdateRoleRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	p, err := h.service.SetRole(r.Context(), middleware.GetIdentity(r.Context()), id, user.Role(req.Role))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, UserResponseFromProfile(p))
}

// AdjustCredits handles POST /admin/users/{id}/credits
// @Summary Grant credits to a user
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body AdjustCreditsRequest true "Amount and reason"
// @Success 200 {object} response.Response{data=BalanceChangeResponse}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/users/{id}/credits [post]
func (h *Handler) AdjustCredits(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}

	var req AdjustCreditsRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	result, ref, err := h.service.AdjustCredits(r.Context(), middleware.GetIdentity(r.Context()), id,
		*req.Amount, strings.TrimSpace(req.Reason), strings.TrimSpace(req.ReferenceID))
	if err != nil {
		credit.WriteError(w, r, err)
		return
	}

	response.OK(w, BalanceChangeResponse{
		UserID:      id,
		Amount:      *req.Amount,
		NewBalance:  result.NewBalance,
		ReferenceID: ref,
		Replayed:    result.Replayed,
	})
}

// Refund handles POST /admin/users/{id}/refunds
func (h *Handler) Refund(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}

	var req RefundRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	result, err := h.service.Refund(r.Context(), middleware.GetIdentity(r.Context()), id,
		*req.Amount, req.ReferenceID, strings.TrimSpace(req.Description))
	if err != nil {
		credit.WriteError(w, r, err)
		return
	}

	response.OK(w, BalanceChangeResponse{
		UserID:      id,
		Amount:      *req.Amount,
		NewBalance:  result.NewBalance,
		ReferenceID: result.Transaction.Reference(),
		Replayed:    result.Replayed,
	})
}

// Ledger handles GET /admin/users/{id}/ledger
func (h *Handler) Ledger(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}

	report, err := h.service.Ledger(r.Context(), id)
	if err != nil {
		credit.WriteError(w, r, err)
		return
	}
	response.OK(w, report)
}

func userIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid user ID")
		return uuid.Nil, false
	}
	return id, true
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, user.ErrUserNotFound):
		response.NotFound(w, "User not found")
	case errors.Is(err, user.ErrInvalidRole):
		response.BadRequest(w, "Invalid role. Must be: standard or admin")
	case errors.Is(err, user.ErrLastAdmin):
		response.Error(w, http.StatusConflict, "LAST_ADMIN", "At least one admin must remain")
	case errors.Is(err, ErrSelfDemotion):
		response.Error(w, http.StatusConflict, "SELF_DEMOTION", "You cannot remove your own admin role")
	default:
		errorhandler.Internal(r.Context(), w, "admin", err)
	}
}

// Routes returns the admin users router
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListUsers)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.GetUser)
		r.Patch("/", h.UpdateRole)
		r.Post("/credits", h.AdjustCredits)
		r.Post("/refunds", h.Refund)
		r.Get("/ledger", h.Ledger)
	})
	return r
}
