package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/abengolea/heartlink-sub000/internal/shared/utils"
)

// abort writes the standard error envelope and stops the handler chain.
func abort(c *gin.Context, status int, message string) {
	utils.ErrorResponse(c, status, message)
	c.Abort()
}
