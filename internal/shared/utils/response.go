package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abengolea/heartlink-sub000/internal/shared/constants"
	"github.com/abengolea/heartlink-sub000/internal/shared/errors"
)

// APIResponse is the envelope of every JSON response except the 402 access
// denial and the cron sweep report.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`

	// SubscriptionWarning is set on feature responses served during a grace period.
	SubscriptionWarning interface{} `json:"subscription_warning,omitempty"`
}

type ErrorInfo struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

const defaultCreatedMessage = "Resource created successfully"

func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, ok(message, data))
}

// GatedResponse is SuccessResponse for routes behind the subscription gate:
// a grace period warning stored by the gate is copied into the envelope.
func GatedResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	resp := ok(message, data)
	if warning, found := c.Get(constants.ContextKeyGateWarning); found {
		resp.SubscriptionWarning = warning
	}
	c.JSON(statusCode, resp)
}

// CreatedResponse answers 201; message defaults to a generic text.
func CreatedResponse(c *gin.Context, data interface{}, message ...string) {
	msg := defaultCreatedMessage
	if len(message) > 0 {
		msg = message[0]
	}
	c.JSON(http.StatusCreated, ok(msg, data))
}

func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, failed(ErrorInfo{Type: "error", Message: message}))
}

// ErrorResponseWithError maps an AppError onto its status and type. Any
// other error becomes an opaque 500.
func ErrorResponseWithError(c *gin.Context, err error) {
	appErr := errors.GetAppError(err)
	if appErr == nil {
		c.JSON(http.StatusInternalServerError, failed(ErrorInfo{
			Type:    string(errors.ErrorTypeInternal),
			Message: "Internal server error occurred",
		}))
		return
	}

	c.JSON(appErr.Code, failed(ErrorInfo{
		Type:    string(appErr.Type),
		Message: appErr.Message,
		Details: appErr.Details,
	}))
}

func ok(message string, data interface{}) APIResponse {
	return APIResponse{Success: true, Data: data, Message: message}
}

func failed(info ErrorInfo) APIResponse {
	return APIResponse{Success: false, Error: &info}
}
