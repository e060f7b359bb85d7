package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abengolea/heartlink-sub000/internal/shared/constants"
	"github.com/abengolea/heartlink-sub000/internal/shared/logger"
)

// CronAuth accepts requests carrying "Authorization: Bearer <secret>".
// An empty secret disables the route entirely.
func CronAuth(secret string, log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			log.Warnw("cron trigger rejected, no secret configured", "client_ip", c.ClientIP())
			abort(c, http.StatusServiceUnavailable, "cron trigger is not configured")
			return
		}

		token, ok := bearerToken(c.GetHeader(constants.HeaderAuthorization))
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			log.Warnw("cron trigger rejected, bad credentials", "client_ip", c.ClientIP())
			abort(c, http.StatusUnauthorized, constants.ErrMsgUnauthorized)
			return
		}

		c.Next()
	}
}
