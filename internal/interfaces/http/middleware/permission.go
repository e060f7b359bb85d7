package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abengolea/heartlink-sub000/internal/shared/constants"
	"github.com/abengolea/heartlink-sub000/internal/shared/logger"
)

type permissionEnforcer interface {
	EnforceForUser(userID, role, resource, action string) (bool, error)
}

type PermissionMiddleware struct {
	enforcer permissionEnforcer
	logger   logger.Interface
}

func NewPermissionMiddleware(enforcer permissionEnforcer, logger logger.Interface) *PermissionMiddleware {
	return &PermissionMiddleware{
		enforcer: enforcer,
		logger:   logger,
	}
}

func (m *PermissionMiddleware) RequirePermission(resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(constants.ContextKeyUserID)
		if userID == "" {
			abort(c, http.StatusUnauthorized, "user not authenticated")
			return
		}
		role := c.GetString(constants.ContextKeyUserRole)

		allowed, err := m.enforcer.EnforceForUser(userID, role, resource, action)
		if err != nil {
			m.logger.Errorw("permission check failed", "error", err, "user_id", userID, "resource", resource, "action", action)
			abort(c, http.StatusInternalServerError, "permission check failed")
			return
		}

		if !allowed {
			m.logger.Warnw("permission denied", "user_id", userID, "role", role, "resource", resource, "action", action)
			abort(c, http.StatusForbidden, constants.ErrMsgForbidden)
			return
		}

		c.Next()
	}
}
