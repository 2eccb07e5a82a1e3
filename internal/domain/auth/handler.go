package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/infinito/infinito-api/internal/pkg/response"
)

// Handler handles auth HTTP requests
type Handler struct{}

// NewHandler creates auth handler
func NewHandler() *Handler {
	return &Handler{}
}

// MeResponse describes the caller's identity and role.
type MeResponse struct {
	UserID  string `json:"userId"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	IsAdmin bool   `json:"isAdmin"`
}

// Me handles GET /auth/me
// @Summary Current identity
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Response{data=MeResponse}
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /auth/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())
	if identity == nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	response.OK(w, MeResponse{
		UserID:  identity.UserID.String(),
		Email:   identity.Email,
		Role:    string(identity.Role),
		IsAdmin: identity.IsAdmin(),
	})
}

// Routes returns auth router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/me", h.Me)
	return r
}
