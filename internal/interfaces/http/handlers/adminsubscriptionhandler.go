package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	subdto "github.com/abengolea/heartlink-sub000/internal/application/subscription/dto"
	"github.com/abengolea/heartlink-sub000/internal/application/subscription/usecases"
	"github.com/abengolea/heartlink-sub000/internal/shared/constants"
	apperrors "github.com/abengolea/heartlink-sub000/internal/shared/errors"
	"github.com/abengolea/heartlink-sub000/internal/shared/logger"
	"github.com/abengolea/heartlink-sub000/internal/shared/utils"
)

var _ = subdto.SubscriptionDTO{}

// AdminSubscriptionHandler lets operators cancel or restore any user's subscription
type AdminSubscriptionHandler struct {
	cancelUseCase     cancelSubscriptionUseCase
	reactivateUseCase reactivateSubscriptionUseCase
	logger            logger.Interface
}

func NewAdminSubscriptionHandler(
	cancelUC cancelSubscriptionUseCase,
	reactivateUC reactivateSubscriptionUseCase,
	logger logger.Interface,
) *AdminSubscriptionHandler {
	return &AdminSubscriptionHandler{
		cancelUseCase:     cancelUC,
		reactivateUseCase: reactivateUC,
		logger:            logger,
	}
}

// CancelSubscription cancels a user's subscription
// @Summary Cancel a user's subscription
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param userId path string true "User ID"
// @Param request body CancelSubscriptionRequest false "Cancellation reason"
// @Success 200 {object} utils.APIResponse{data=subdto.SubscriptionDTO}
// @Failure 403 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Router /admin/subscriptions/{userId}/cancel [post]
func (h *AdminSubscriptionHandler) CancelSubscription(c *gin.Context) {
	userID := c.Param("userId")
	if userID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "user id is required")
		return
	}

	var req CancelSubscriptionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.ErrorResponseWithError(c, apperrors.NewValidationError("invalid request body", err.Error()))
			return
		}
	}

	actorID := c.GetString(constants.ContextKeyUserID)
	result, err := h.cancelUseCase.Execute(c.Request.Context(), usecases.CancelSubscriptionCommand{
		UserID:  userID,
		Reason:  req.Reason,
		ActorID: actorID,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	h.logger.Infow("subscription cancelled by admin", "user_id", userID, "actor_id", actorID)
	utils.SuccessResponse(c, http.StatusOK, "Subscription cancelled", result)
}

// ReactivateSubscription restores access for a suspended or cancelled subscription
// @Summary Reactivate a user's subscription
// @Description Restores a suspended or cancelled subscription while its paid period or grace window has not passed. Dates are never extended.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param userId path string true "User ID"
// @Success 200 {object} utils.APIResponse{data=subdto.SubscriptionDTO}
// @Failure 403 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Router /admin/subscriptions/{userId}/reactivate [post]
func (h *AdminSubscriptionHandler) ReactivateSubscription(c *gin.Context) {
	userID := c.Param("userId")
	if userID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "user id is required")
		return
	}

	actorID := c.GetString(constants.ContextKeyUserID)
	result, err := h.reactivateUseCase.Execute(c.Request.Context(), usecases.ReactivateSubscriptionCommand{
		UserID:  userID,
		ActorID: actorID,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	h.logger.Infow("subscription reactivated by admin", "user_id", userID, "actor_id", actorID)
	utils.SuccessResponse(c, http.StatusOK, "Subscription reactivated", result)
}
