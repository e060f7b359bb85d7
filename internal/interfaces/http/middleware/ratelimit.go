package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abengolea/heartlink-sub000/internal/infrastructure/ratelimit"
	"github.com/abengolea/heartlink-sub000/internal/shared/logger"
)

// RateLimit enforces limiter per client IP under the given key prefix.
// Limiter errors let the request through so a cache outage never blocks
// payment notifications.
func RateLimit(limiter ratelimit.RateLimiter, prefix string, log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := prefix + ":" + c.ClientIP()

		allowed, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			log.Warnw("rate limiter unavailable", "key", key, "error", err)
			c.Next()
			return
		}

		if !allowed {
			log.Warnw("rate limit exceeded", "key", key, "path", c.Request.URL.Path)
			abort(c, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
			return
		}

		c.Next()
	}
}
