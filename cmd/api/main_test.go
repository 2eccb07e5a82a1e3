package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/infinito/infinito-api/internal/config"
	"github.com/infinito/infinito-api/internal/domain/admin"
	"github.com/infinito/infinito-api/internal/domain/auth"
	"github.com/infinito/infinito-api/internal/domain/credential"
	"github.com/infinito/infinito-api/internal/domain/credit"
	"github.com/infinito/infinito-api/internal/domain/payment"
	"github.com/infinito/infinito-api/internal/domain/transaction"
	"github.com/infinito/infinito-api/internal/domain/user"
	"github.com/infinito/infinito-api/internal/middleware"
)

type stubGate struct{}

func (stubGate) Authenticate(_ context.Context, token string) (*auth.Identity, error) {
	if token == "member" {
		return &auth.Identity{UserID: uuid.New(), Role: user.RoleStandard}, nil
	}
	return nil, auth.ErrUnauthenticated
}

// testRouter wires handlers without stores. Requests used here are rejected before
// any handler reaches a service.
func testRouter(health func(context.Context) error) http.Handler {
	cfg := &config.Config{RequestTimeout: 5 * time.Second, AllowedOrigins: []string{"http://localhost:3000"}}
	return newRouter(cfg, routes{
		gate:          stubGate{},
		creditLimiter: middleware.NewRateLimiter(nil, "credits_check", 0, time.Minute),
		health:        health,
		auth:          auth.NewHandler(),
		credit:        credit.NewHandler(nil),
		transaction:   transaction.NewHandler(nil),
		credential:    credential.NewHandler(nil, nil),
		admin:         admin.NewHandler(nil),
		payment:       payment.NewHandler(payment.NewService(nil, "")),
	})
}

func serve(router http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := serve(testRouter(func(context.Context) error { return nil }), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = serve(testRouter(func(context.Context) error { return errors.New("down") }), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router := testRouter(nil)

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/v1/credits/check"},
		{http.MethodGet, "/api/v1/credits/balance"},
		{http.MethodGet, "/api/v1/transactions"},
		{http.MethodGet, "/api/v1/credentials"},
		{http.MethodGet, "/api/v1/credentials/resolve/openai"},
		{http.MethodGet, "/api/v1/auth/me"},
		{http.MethodGet, "/api/admin/users"},
		{http.MethodGet, "/api/admin/credentials"},
	} {
		rec := serve(router, tc.method, tc.path, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, tc.path)
	}
}

func TestAdminRoutesRejectMembers(t *testing.T) {
	router := testRouter(nil)

	for _, path := range []string{"/api/admin/users", "/api/admin/credentials", "/api/admin/users/" + uuid.NewString() + "/ledger"} {
		rec := serve(router, http.MethodGet, path, "member")
		assert.Equal(t, http.StatusForbidden, rec.Code, path)
	}
}

func TestMeRoute(t *testing.T) {
	rec := serve(testRouter(nil), http.MethodGet, "/api/v1/auth/me", "member")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"isAdmin":false`)
}

func TestWebhookDisabledWithoutSecret(t *testing.T) {
	rec := serve(testRouter(nil), http.MethodPost, "/webhooks/payments", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
