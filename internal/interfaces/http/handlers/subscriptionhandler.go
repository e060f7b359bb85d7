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

var _ = subdto.SubscriptionStatusDTO{}

// SubscriptionHandler handles the caller's own subscription
type SubscriptionHandler struct {
	statusUseCase getSubscriptionStatusUseCase
	createUseCase createSubscriptionUseCase
	cancelUseCase cancelSubscriptionUseCase
	logger        logger.Interface
}

// NewSubscriptionHandler creates a new subscription handler
func NewSubscriptionHandler(
	statusUC getSubscriptionStatusUseCase,
	createUC createSubscriptionUseCase,
	cancelUC cancelSubscriptionUseCase,
	logger logger.Interface,
) *SubscriptionHandler {
	return &SubscriptionHandler{
		statusUseCase: statusUC,
		createUseCase: createUC,
		cancelUseCase: cancelUC,
		logger:        logger,
	}
}

// CreateSubscriptionRequest represents the request to start a paid plan
type CreateSubscriptionRequest struct {
	PlanType string `json:"plan_type" binding:"required,oneof=monthly annual"`
}

// CancelSubscriptionRequest represents the request to cancel the caller's subscription
type CancelSubscriptionRequest struct {
	Reason string `json:"reason"`
}

// GetStatus returns the subscription status of a user
// @Summary Get subscription status
// @Description Returns the subscription, remaining days, payment history and access summary. Users may only read their own status; admins may read any.
// @Tags Subscriptions
// @Produce json
// @Security BearerAuth
// @Param userId path string true "User ID"
// @Success 200 {object} utils.APIResponse{data=subdto.SubscriptionStatusDTO}
// @Failure 401 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Router /subscriptions/status/{userId} [get]
func (h *SubscriptionHandler) GetStatus(c *gin.Context) {
	callerID := c.GetString(constants.ContextKeyUserID)
	if callerID == "" {
		utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	userID := c.Param("userId")
	if userID != callerID && c.GetString(constants.ContextKeyUserRole) != constants.RoleAdmin {
		h.logger.Warnw("subscription status requested for another user", "user_id", callerID, "target_user_id", userID)
		utils.ErrorResponse(c, http.StatusForbidden, constants.ErrMsgForbidden)
		return
	}

	status, err := h.statusUseCase.Execute(c.Request.Context(), userID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", status)
}

// CreateSubscription starts a paid plan for the caller
// @Summary Create subscription
// @Description Creates an inactive subscription for the chosen plan and returns the provider checkout URL. Access starts when the payment is approved.
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateSubscriptionRequest true "Plan"
// @Success 201 {object} utils.APIResponse{data=usecases.CreateSubscriptionResult}
// @Failure 400 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Failure 503 {object} utils.APIResponse
// @Router /subscriptions [post]
func (h *SubscriptionHandler) CreateSubscription(c *gin.Context) {
	userID := c.GetString(constants.ContextKeyUserID)
	if userID == "" {
		utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	var req CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for create subscription", "error", err)
		utils.ErrorResponseWithError(c, apperrors.NewValidationError("invalid request body", err.Error()))
		return
	}

	result, err := h.createUseCase.Execute(c.Request.Context(), usecases.CreateSubscriptionCommand{
		UserID:   userID,
		PlanType: req.PlanType,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, result, "Checkout created, complete the payment to activate the subscription")
}

// CancelSubscription cancels the caller's subscription
// @Summary Cancel subscription
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CancelSubscriptionRequest false "Cancellation reason"
// @Success 200 {object} utils.APIResponse{data=subdto.SubscriptionDTO}
// @Failure 404 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Router /subscriptions/cancel [post]
func (h *SubscriptionHandler) CancelSubscription(c *gin.Context) {
	userID := c.GetString(constants.ContextKeyUserID)
	if userID == "" {
		utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	var req CancelSubscriptionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.ErrorResponseWithError(c, apperrors.NewValidationError("invalid request body", err.Error()))
			return
		}
	}

	result, err := h.cancelUseCase.Execute(c.Request.Context(), usecases.CancelSubscriptionCommand{
		UserID:  userID,
		Reason:  req.Reason,
		ActorID: userID,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Subscription cancelled", result)
}
