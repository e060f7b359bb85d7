package migration

import (
	"github.com/abengolea/heartlink-sub000/internal/infrastructure/persistence/models"
)

func AutoMigrateModels() []interface{} {
	return []interface{}{
		&models.UserModel{},
		&models.SubscriptionModel{},
		&models.PaymentRecordModel{},
		&models.WebhookEventModel{},
		&models.StudyModel{},
	}
}
