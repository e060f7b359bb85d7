package models

import (
	"time"

	"github.com/abengolea/heartlink-sub000/internal/shared/constants"
)

// PaymentRecordModel is an append-only row per provider payment. The unique
// provider id is what makes webhook redelivery idempotent.
type PaymentRecordModel struct {
	ID                uint      `gorm:"primaryKey"`
	ProviderPaymentID string    `gorm:"uniqueIndex:uk_payment_provider_id;not null;size:64"`
	SubscriptionID    string    `gorm:"not null;size:50;index"`
	Amount            int64     `gorm:"not null"`
	Currency          string    `gorm:"not null;size:3"`
	Status            string    `gorm:"not null;size:20"`
	PaymentDate       time.Time `gorm:"not null"`
	PaymentMethod     string    `gorm:"size:50"`
	FailureReason     string    `gorm:"size:255"`
	CreatedAt         time.Time
}

func (PaymentRecordModel) TableName() string {
	return constants.TablePaymentRecords
}
