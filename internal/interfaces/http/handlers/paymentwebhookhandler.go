package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/abengolea/heartlink-sub000/internal/application/subscription/usecases"
	"github.com/abengolea/heartlink-sub000/internal/shared/constants"
	"github.com/abengolea/heartlink-sub000/internal/shared/logger"
	"github.com/abengolea/heartlink-sub000/internal/shared/utils"
	"github.com/abengolea/heartlink-sub000/internal/shared/utils/logutil"
)

// Maximum accepted notification body (64KB)
const maxWebhookBodySize = 64 << 10

type reconcilePaymentUseCase interface {
	Execute(ctx context.Context, cmd usecases.ReconcilePaymentCommand) (*usecases.ReconcileResult, error)
}

type webhookSignatureVerifier interface {
	Enabled() bool
	Verify(header, requestID, dataID string) error
}

// PaymentWebhookHandler receives payment provider notifications.
type PaymentWebhookHandler struct {
	reconcileUseCase reconcilePaymentUseCase
	verifier         webhookSignatureVerifier // Optional
	logger           logger.Interface
}

func NewPaymentWebhookHandler(
	reconcileUC reconcilePaymentUseCase,
	verifier webhookSignatureVerifier,
	logger logger.Interface,
) *PaymentWebhookHandler {
	return &PaymentWebhookHandler{
		reconcileUseCase: reconcileUC,
		verifier:         verifier,
		logger:           logger,
	}
}

// PaymentNotification is the provider webhook body.
type PaymentNotification struct {
	ID     flexibleID `json:"id"`
	Type   string     `json:"type"`
	Action string     `json:"action"`
	Data   struct {
		ID flexibleID `json:"id"`
	} `json:"data"`
}

// flexibleID accepts ids sent either as JSON strings or numbers.
type flexibleID string

func (f *flexibleID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	if _, err := strconv.ParseInt(n.String(), 10, 64); err != nil {
		return errors.New("id must be an integer or string")
	}
	*f = flexibleID(n.String())
	return nil
}

// HandleNotification reconciles a payment notification
// @Summary Payment provider webhook
// @Description Receives payment notifications {id, type, action, data:{id}}. Ignored and already processed notifications are acknowledged with 200.
// @Tags Webhooks
// @Accept json
// @Produce json
// @Param X-Signature header string false "Provider signature (ts=...,v1=...)"
// @Param request body PaymentNotification true "Notification"
// @Success 200 {object} utils.APIResponse{data=usecases.ReconcileResult}
// @Failure 400 {object} utils.APIResponse
// @Failure 401 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Failure 503 {object} utils.APIResponse
// @Router /webhooks/payments [post]
func (h *PaymentWebhookHandler) HandleNotification(c *gin.Context) {
	raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodySize))
	if err != nil {
		h.logger.Warnw("failed to read webhook body", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "unreadable notification body")
		return
	}

	var notification PaymentNotification
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &notification); err != nil {
			h.logger.Warnw("invalid webhook body", "error", err)
			utils.ErrorResponse(c, http.StatusBadRequest, "invalid notification body")
			return
		}
	}

	// Legacy IPN deliveries carry the topic and id in the query string only.
	if notification.Type == "" {
		notification.Type = c.DefaultQuery("type", c.Query("topic"))
	}
	if notification.Data.ID == "" {
		notification.Data.ID = flexibleID(c.DefaultQuery("data.id", c.Query("id")))
	}

	if h.verifier != nil && h.verifier.Enabled() {
		dataID := c.DefaultQuery("data.id", string(notification.Data.ID))
		if err := h.verifier.Verify(c.GetHeader(constants.HeaderXSignature), c.GetHeader(constants.HeaderXRequestID), dataID); err != nil {
			h.logger.Warnw("rejected webhook with bad signature",
				"event_id", string(notification.ID),
				"payment_id", dataID,
				"client_ip", c.ClientIP(),
				"signature", logutil.TruncateForLog(c.GetHeader(constants.HeaderXSignature), 24),
				"error", err,
			)
			utils.ErrorResponse(c, http.StatusUnauthorized, "invalid signature")
			return
		}
	}

	cmd := usecases.ReconcilePaymentCommand{
		EventID:    string(notification.ID),
		Type:       notification.Type,
		Action:     notification.Action,
		PaymentID:  string(notification.Data.ID),
		RawPayload: raw,
	}

	result, err := h.reconcileUseCase.Execute(c.Request.Context(), cmd)
	if err != nil {
		h.logger.Warnw("payment notification not applied",
			"event_id", cmd.EventID,
			"payment_id", cmd.PaymentID,
			"error", err,
		)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "notification "+string(result.Outcome), result)
}
