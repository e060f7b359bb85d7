package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/abengolea/heartlink-sub000/internal/shared/constants"
	"github.com/abengolea/heartlink-sub000/internal/shared/logger"
)

const maxRequestIDLength = 64

// RequestID keeps a caller supplied X-Request-ID and otherwise issues one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(constants.HeaderXRequestID)
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}
		c.Set(constants.ContextKeyRequestID, id)
		c.Header(constants.HeaderXRequestID, id)
		c.Next()
	}
}

// Logger writes one record per request. 5xx log at error, 4xx (including
// 402 gate denials) at warn and the rest at debug.
func Logger(log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
			"bytes", c.Writer.Size(),
		}
		fields = appendIfSet(c, fields, "request_id", constants.ContextKeyRequestID)
		fields = appendIfSet(c, fields, "user_id", constants.ContextKeyUserID)
		fields = appendIfSet(c, fields, "access_reason", constants.ContextKeyAccessReason)
		if len(c.Errors) > 0 {
			fields = append(fields, "error", c.Errors.String())
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			log.Errorw("request failed", fields...)
		case status >= 400:
			log.Warnw("request rejected", fields...)
		default:
			log.Debugw("request served", fields...)
		}
	}
}

func appendIfSet(c *gin.Context, fields []any, name, key string) []any {
	if v := c.GetString(key); v != "" {
		return append(fields, name, v)
	}
	return fields
}
