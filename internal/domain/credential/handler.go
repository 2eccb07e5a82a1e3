package credential

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/infinito/infinito-api/internal/middleware"
	"github.com/infinito/infinito-api/internal/pkg/errorhandler"
	"github.com/infinito/infinito-api/internal/pkg/response"
	"github.com/infinito/infinito-api/internal/pkg/validator"
)

// Handler handles credential HTTP requests
type Handler struct {
	service  *Service
	resolver *Resolver
}

// NewHandler creates credential handler
func NewHandler(service *Service, resolver *Resolver) *Handler {
	return &Handler{service: service, resolver: resolver}
}

// List handles GET /credentials
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	if identity == nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	creds, err := h.service.List(r.Context(), identity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, ListResponse{Credentials: creds})
}

// Save handles POST /credentials
// @Summary Save the caller's API key for a service
// @Tags Credentials
// @Accept json
// @Produce json
// @Param request body SaveRequest true "Service and key"
// @Success 200 {object} response.Response{data=Credential}
// @Failure 400 {object} response.Response
// @Router /credentials [post]
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	if identity == nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req SaveRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	c, err := h.service.Save(r.Context(), identity, &identity.UserID, req.ServiceID, req.Key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, c)
}

// Patch handles PATCH /credentials/{id}
func (h *Handler) Patch(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	if identity == nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid credential ID")
		return
	}

	var req PatchRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	c, err := h.service.Update(r.Context(), identity, id, Patch{IsActive: req.IsActive, IsVisible: req.IsVisible})
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, c)
}

// Delete handles DELETE /credentials/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	if identity == nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid credential ID")
		return
	}

	if err := h.service.Delete(r.Context(), identity, id); err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, nil)
}

// Resolve handles GET /credentials/resolve/{service}. The secret is never returned.
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	resolved, err := h.resolver.Resolve(r.Context(), userID, chi.URLParam(r, "service"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, ResolveResponse{
		CredentialID: resolved.Credential.ID.String(),
		ServiceID:    resolved.Credential.ServiceID,
		Source:       resolved.Source,
		KeyHint:      resolved.Credential.KeyHint,
	})
}

// AdminList handles GET /admin/credentials
func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	creds, err := h.service.ListAll(r.Context(), middleware.GetIdentity(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, ListResponse{Credentials: creds})
}

// AdminSave handles POST /admin/credentials
func (h *Handler) AdminSave(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	var req AdminSaveRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	c, err := h.service.Save(r.Context(), identity, req.UserID, req.ServiceID, req.Key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, c)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var notFound *NotFoundError
	switch {
	case errors.As(err, &notFound):
		response.Error(w, http.StatusNotFound, "CREDENTIAL_NOT_CONFIGURED", notFound.Error())
	case errors.Is(err, ErrNotFound):
		response.NotFound(w, "Credential not found")
	case errors.Is(err, ErrForbidden):
		response.Forbidden(w, "Not allowed to manage this credential")
	case errors.Is(err, ErrKeyTooShort):
		response.BadRequest(w, "API key seems too short")
	case errors.Is(err, ErrInvalidService):
		response.BadRequest(w, "Invalid AI service")
	case errors.Is(err, ErrInvalidOwner):
		response.BadRequest(w, "Invalid user")
	case errors.Is(err, ErrEmptyPatch):
		response.BadRequest(w, "Provide isActive and/or isVisible")
	case errors.Is(err, ErrEncryptionDisabled):
		errorhandler.HandleError(r.Context(), w, http.StatusServiceUnavailable, "ENCRYPTION_NOT_CONFIGURED",
			"Credential storage is not configured", err)
	default:
		errorhandler.Internal(r.Context(), w, "credential", err)
	}
}

// Routes returns the caller-facing credentials router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/", h.List)
	r.Post("/", h.Save)
	r.Get("/resolve/{service}", h.Resolve)
	r.Patch("/{id}", h.Patch)
	r.Delete("/{id}", h.Delete)
	return r
}

// AdminRoutes returns the admin credentials router. Callers mount it behind Auth and RequireAdmin.
func (h *Handler) AdminRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.AdminList)
	r.Post("/", h.AdminSave)
	r.Patch("/{id}", h.Patch)
	r.Delete("/{id}", h.Delete)
	return r
}
