package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/infinito/infinito-api/internal/pkg/logger"
	"github.com/infinito/infinito-api/internal/pkg/response"
)

// RateLimiter is a fixed-window per-user counter in Redis.
type RateLimiter struct {
	redis  redis.Cmdable
	scope  string
	limit  int
	window time.Duration
}

// NewRateLimiter creates a new rate limiter. A nil client or a non-positive limit allows everything.
func NewRateLimiter(client redis.Cmdable, scope string, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{redis: client, scope: scope, limit: limit, window: window}
}

// Handler limits authenticated requests per user. It must run after Auth.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.redis == nil || rl.limit <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		userID := GetUserID(r.Context())
		key := fmt.Sprintf("ratelimit:%s:%s", rl.scope, userID)

		count, err := rl.redis.Incr(r.Context(), key).Result()
		if err != nil {
			// Fail open
			logger.FromContext(r.Context()).Warn().Err(err).Str("scope", rl.scope).Msg("rate limiter unavailable")
			next.ServeHTTP(w, r)
			return
		}

		if count == 1 {
			if err := rl.redis.Expire(r.Context(), key, rl.window).Err(); err != nil {
				// A counter without a TTL would block the user for good.
				rl.redis.Del(r.Context(), key)
				logger.FromContext(r.Context()).Warn().Err(err).Str("scope", rl.scope).Msg("rate limiter window not set")
				next.ServeHTTP(w, r)
				return
			}
		}

		if count > int64(rl.limit) {
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			response.TooManyRequests(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}
