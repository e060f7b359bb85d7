package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/abengolea/heartlink-sub000/internal/shared/constants"
)

// WebhookEventModel archives every provider notification with its outcome.
type WebhookEventModel struct {
	ID           uint           `gorm:"primaryKey"`
	ProviderID   string         `gorm:"size:64;index"`
	Topic        string         `gorm:"size:32;not null"`
	Action       string         `gorm:"size:64"`
	ResourceID   string         `gorm:"size:64;index"`
	Payload      datatypes.JSON `gorm:"comment:raw notification body"`
	Outcome      string         `gorm:"size:32;not null;index"`
	ErrorMessage string         `gorm:"size:500"`
	ReceivedAt   time.Time      `gorm:"not null;index"`
	CreatedAt    time.Time
}

func (WebhookEventModel) TableName() string {
	return constants.TableWebhookEvents
}
