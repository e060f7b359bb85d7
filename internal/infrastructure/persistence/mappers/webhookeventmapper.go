package mappers

import (
	"encoding/json"

	"gorm.io/datatypes"

	"github.com/abengolea/heartlink-sub000/internal/domain/subscription"
	"github.com/abengolea/heartlink-sub000/internal/infrastructure/persistence/models"
)

const maxWebhookErrorLen = 500

func WebhookEventToModel(e *subscription.WebhookEvent) *models.WebhookEventModel {
	errMsg := e.ErrorMessage
	if len(errMsg) > maxWebhookErrorLen {
		errMsg = errMsg[:maxWebhookErrorLen]
	}
	return &models.WebhookEventModel{
		ProviderID:   e.ProviderID,
		Topic:        e.Topic,
		Action:       e.Action,
		ResourceID:   e.ResourceID,
		Payload:      payloadJSON(e.Payload),
		Outcome:      string(e.Outcome),
		ErrorMessage: errMsg,
		ReceivedAt:   e.ReceivedAt,
	}
}

// payloadJSON keeps non-JSON bodies by storing them as a JSON string.
func payloadJSON(raw []byte) datatypes.JSON {
	if len(raw) == 0 {
		return nil
	}
	if json.Valid(raw) {
		return datatypes.JSON(raw)
	}
	quoted, err := json.Marshal(string(raw))
	if err != nil {
		return nil
	}
	return datatypes.JSON(quoted)
}
