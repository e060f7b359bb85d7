package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/abengolea/heartlink-sub000/internal/shared/constants"
)

// SubscriptionModel represents the database persistence model for subscriptions
// This is the anti-corruption layer between domain and database
type SubscriptionModel struct {
	ID                 string    `gorm:"primaryKey;size:50;comment:Stripe-style ID: sub_xxx"`
	UserID             string    `gorm:"not null;size:64;index:idx_subscription_user"`
	Status             string    `gorm:"not null;size:20;index:idx_subscription_status"`
	PlanType           string    `gorm:"not null;size:20"`
	Amount             int64     `gorm:"not null;comment:minor units"`
	Currency           string    `gorm:"not null;size:3;default:ARS"`
	StartDate          time.Time `gorm:"not null"`
	EndDate            time.Time `gorm:"not null;index:idx_subscription_expiry,priority:1"`
	NextBillingDate    time.Time `gorm:"not null"`
	GracePeriodEndDate *time.Time
	IsAccessBlocked    bool `gorm:"not null;default:false;index:idx_subscription_expiry,priority:2"`
	LastPaymentDate    *time.Time
	CancellationReason *string `gorm:"size:500"`
	CancellationDate   *time.Time
	ReactivationDate   *time.Time
	Version            int `gorm:"not null;default:1"`
	CreatedAt          time.Time
	UpdatedAt          time.Time

	Payments []PaymentRecordModel `gorm:"foreignKey:SubscriptionID;references:ID"`
}

// TableName specifies the table name for GORM
func (SubscriptionModel) TableName() string {
	return constants.TableSubscriptions
}

// BeforeCreate hook for GORM
func (s *SubscriptionModel) BeforeCreate(tx *gorm.DB) error {
	if s.Version == 0 {
		s.Version = 1
	}
	return nil
}
