package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/infinito/infinito-api/internal/domain/auth"
	"github.com/infinito/infinito-api/internal/domain/user"
)

type gateStub struct {
	identity *auth.Identity
	err      error
	token    string
}

func (g *gateStub) Authenticate(_ context.Context, token string) (*auth.Identity, error) {
	g.token = token
	return g.identity, g.err
}

func okHandler(seen *uuid.UUID) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			*seen = GetUserID(r.Context())
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddlewareStoresIdentity(t *testing.T) {
	id := uuid.New()
	gate := &gateStub{identity: &auth.Identity{UserID: id, Role: user.RoleStandard}}

	var seen uuid.UUID
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	Auth(gate)(okHandler(&seen)).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, seen)
	assert.Equal(t, "tok", gate.token)
}

func TestAuthMiddlewareStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		header string
		err    error
		status int
		code   string
	}{
		{"missing header", "", nil, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"bad scheme", "Basic abc", nil, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"invalid token", "Bearer x", auth.ErrUnauthenticated, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"profile missing", "Bearer x", auth.ErrProfileMissing, http.StatusForbidden, "PROFILE_MISSING"},
		{"lookup failure", "Bearer x", errors.Join(auth.ErrUnavailable, errors.New("db down")), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			Auth(&gateStub{err: tt.err})(okHandler(nil)).ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.code)
			assert.NotContains(t, w.Body.String(), "db down")
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	handler := RequireAdmin()(okHandler(nil))

	serve := func(identity *auth.Identity) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
		if identity != nil {
			req = req.WithContext(auth.WithIdentity(req.Context(), identity))
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, serve(&auth.Identity{UserID: uuid.New(), Role: user.RoleAdmin}).Code)

	w := serve(&auth.Identity{UserID: uuid.New(), Role: user.RoleStandard})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"success":false,"error":{"code":"FORBIDDEN","message":"Admin access required"}}`, w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, serve(nil).Code)
}
