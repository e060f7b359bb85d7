package models

import (
	"time"

	"github.com/abengolea/heartlink-sub000/internal/shared/constants"
)

type UserModel struct {
	ID                 string `gorm:"primaryKey;size:64"`
	Email              string `gorm:"uniqueIndex;not null;size:255"`
	Name               string `gorm:"size:100"`
	SubscriptionStatus string `gorm:"not null;size:20;default:none;comment:denormalized copy of subscriptions.status"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (UserModel) TableName() string {
	return constants.TableUsers
}
