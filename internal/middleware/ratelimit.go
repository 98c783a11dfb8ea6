package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/termfolio/pkg/errors"
	"github.com/charlesng35/termfolio/pkg/logger"
	"github.com/charlesng35/termfolio/pkg/response"
)

// RateLimitConfig tunes a fixed-window rate limiter.
type RateLimitConfig struct {
	// Scope separates counters for different route groups sharing one store.
	Scope       string
	MaxRequests int
	Window      time.Duration
	// KeyFunc derives the client key. Defaults to the client IP.
	KeyFunc func(c *gin.Context) string
}

// RateLimit limits requests per client within a fixed window, backed by the
// provided store. A nil store or non-positive limit disables the limiter.
func RateLimit(store RateStore, cfg RateLimitConfig) gin.HandlerFunc {
	keyFunc := cfg.KeyFunc
	if keyFunc == nil {
		keyFunc = func(c *gin.Context) string { return c.ClientIP() }
	}

	window := cfg.Window
	if window <= 0 {
		window = time.Minute
	}

	return func(c *gin.Context) {
		if store == nil || cfg.MaxRequests <= 0 {
			c.Next()
			return
		}

		// The store applies the limiter namespace. The middleware only
		// contributes the scope and client key.
		key := cfg.Scope + ":" + keyFunc(c)

		count, ttl, err := store.Increment(c.Request.Context(), key, window)
		if err != nil {
			// Fail open rather than blocking traffic on a store outage.
			logger.WithModule("ratelimit").Warn("rate store unavailable",
				zap.String("scope", cfg.Scope),
				zap.Error(err),
			)
			c.Next()
			return
		}

		remaining := cfg.MaxRequests - count
		if remaining < 0 {
			remaining = 0
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.MaxRequests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.Itoa(int(ttl.Seconds())))

		if count > cfg.MaxRequests {
			c.Header("Retry-After", strconv.Itoa(int(ttl.Seconds())))
			response.Error(c, errors.ErrRateLimit)
			c.Abort()
			return
		}

		c.Next()
	}
}
