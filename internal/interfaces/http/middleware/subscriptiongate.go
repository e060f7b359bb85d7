package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abengolea/heartlink-sub000/internal/application/subscription/usecases"
	"github.com/abengolea/heartlink-sub000/internal/shared/constants"
	"github.com/abengolea/heartlink-sub000/internal/shared/logger"
	"github.com/abengolea/heartlink-sub000/internal/shared/utils"
)

type accessChecker interface {
	Execute(ctx context.Context, userID string) (*usecases.GateResult, error)
}

// SubscriptionGateMiddleware guards feature endpoints behind a paid
// subscription. It must run after RequireAuth and before any handler that
// mutates a protected resource.
type SubscriptionGateMiddleware struct {
	checker accessChecker
	logger  logger.Interface
}

func NewSubscriptionGateMiddleware(checker accessChecker, logger logger.Interface) *SubscriptionGateMiddleware {
	return &SubscriptionGateMiddleware{
		checker: checker,
		logger:  logger,
	}
}

func (m *SubscriptionGateMiddleware) RequireAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(constants.ContextKeyUserID)
		if userID == "" {
			abort(c, http.StatusUnauthorized, "user not authenticated")
			return
		}

		result, err := m.checker.Execute(c.Request.Context(), userID)
		if err != nil {
			utils.ErrorResponseWithError(c, err)
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyAccessReason, result.Reason.String())

		if !result.Allow {
			m.logger.Infow("feature access denied",
				"user_id", userID,
				"reason", result.Reason.String(),
				"path", c.Request.URL.Path,
			)
			c.AbortWithStatusJSON(result.HTTPStatus, result.Denial)
			return
		}

		if result.Warning != nil {
			c.Set(constants.ContextKeyGateWarning, result.Warning)
		}

		c.Next()
	}
}
