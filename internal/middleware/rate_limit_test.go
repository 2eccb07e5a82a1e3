package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/infinito/infinito-api/internal/domain/auth"
)

func rateLimitedRequest(userID uuid.UUID) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/credits/check", nil)
	return req.WithContext(auth.WithIdentity(req.Context(), &auth.Identity{UserID: userID}))
}

func TestRateLimiterAllowsThenBlocks(t *testing.T) {
	client, mock := redismock.NewClientMock()
	userID := uuid.New()
	key := "ratelimit:credits:" + userID.String()

	limiter := NewRateLimiter(client, "credits", 2, time.Minute)
	handler := limiter.Handler(okHandler(nil))

	mock.ExpectIncr(key).SetVal(1)
	mock.ExpectExpire(key, time.Minute).SetVal(true)
	mock.ExpectIncr(key).SetVal(2)
	mock.ExpectIncr(key).SetVal(3)

	for i, want := range []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests} {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, rateLimitedRequest(userID))
		assert.Equal(t, want, w.Code, "request %d", i+1)
		if want == http.StatusTooManyRequests {
			assert.Equal(t, "60", w.Header().Get("Retry-After"))
		}
	}

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimiterFailsOpen(t *testing.T) {
	client, mock := redismock.NewClientMock()
	userID := uuid.New()
	mock.ExpectIncr("ratelimit:credits:" + userID.String()).SetErr(errors.New("redis down"))

	w := httptest.NewRecorder()
	NewRateLimiter(client, "credits", 1, time.Minute).Handler(okHandler(nil)).ServeHTTP(w, rateLimitedRequest(userID))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimiterDropsCounterWhenExpireFails(t *testing.T) {
	client, mock := redismock.NewClientMock()
	userID := uuid.New()
	key := "ratelimit:credits:" + userID.String()

	mock.ExpectIncr(key).SetVal(1)
	mock.ExpectExpire(key, time.Minute).SetErr(errors.New("redis timeout"))
	mock.ExpectDel(key).SetVal(1)

	w := httptest.NewRecorder()
	NewRateLimiter(client, "credits", 1, time.Minute).Handler(okHandler(nil)).ServeHTTP(w, rateLimitedRequest(userID))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimiterDisabled(t *testing.T) {
	w := httptest.NewRecorder()
	NewRateLimiter(nil, "credits", 1, time.Minute).Handler(okHandler(nil)).ServeHTTP(w, rateLimitedRequest(uuid.New()))
	assert.Equal(t, http.StatusOK, w.Code)
}
