package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/abengolea/heartlink-sub000/internal/domain/subscription"
	"github.com/abengolea/heartlink-sub000/internal/infrastructure/persistence/mappers"
)

type WebhookEventRepositoryImpl struct {
	db *gorm.DB
}

func NewWebhookEventRepository(db *gorm.DB) subscription.WebhookEventRepository {
	return &WebhookEventRepositoryImpl{db: db}
}

func (r *WebhookEventRepositoryImpl) Save(ctx context.Context, event *subscription.WebhookEvent) error {
	model := mappers.WebhookEventToModel(event)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save webhook event: %w", err)
	}
	event.ID = model.ID
	return nil
}
