package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/abengolea/heartlink-sub000/internal/domain/subscription"
	vo "github.com/abengolea/heartlink-sub000/internal/domain/subscription/valueobjects"
	"github.com/abengolea/heartlink-sub000/internal/infrastructure/persistence/mappers"
	"github.com/abengolea/heartlink-sub000/internal/infrastructure/persistence/models"
	"github.com/abengolea/heartlink-sub000/internal/shared/db"
	apperrors "github.com/abengolea/heartlink-sub000/internal/shared/errors"
	"github.com/abengolea/heartlink-sub000/internal/shared/logger"
)

type SubscriptionRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.SubscriptionMapper
	logger logger.Interface
}

func NewSubscriptionRepository(
	db *gorm.DB,
	logger logger.Interface,
) subscription.SubscriptionRepository {
	return &SubscriptionRepositoryImpl{
		db:     db,
		mapper: mappers.NewSubscriptionMapper(),
		logger: logger,
	}
}

func (r *SubscriptionRepositoryImpl) Create(ctx context.Context, subscriptionEntity *subscription.Subscription) error {
	model, err := r.mapper.ToModel(subscriptionEntity)
	if err != nil {
		r.logger.Errorw("failed to map subscription entity to model", "error", err)
		return fmt.Errorf("failed to map subscription entity: %w", err)
	}

	if err := db.GetTxFromContext(ctx, r.db).Omit("Payments").Create(model).Error; err != nil {
		r.logger.Errorw("failed to create subscription in database", "error", err)
		return fmt.Errorf("failed to create subscription: %w", err)
	}

	r.logger.Infow("subscription created successfully", "id", model.ID, "user_id", model.UserID)
	return nil
}

func (r *SubscriptionRepositoryImpl) GetByID(ctx context.Context, id string) (*subscription.Subscription, error) {
	var model models.SubscriptionModel

	if err := r.db.WithContext(ctx).Preload("Payments").Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get subscription by ID", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	entity, err := r.mapper.ToEntity(&model)
	if err != nil {
		r.logger.Errorw("failed to map subscription model to entity", "id", id, "error", err)
		return nil, fmt.Errorf("failed to map subscription: %w", err)
	}

	return entity, nil
}

func (r *SubscriptionRepositoryImpl) GetByUserID(ctx context.Context, userID string) (*subscription.Subscription, error) {
	var model models.SubscriptionModel

	err := db.GetTxFromContext(ctx, r.db).
		Preload("Payments").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get subscription by user ID", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	entity, err := r.mapper.ToEntity(&model)
	if err != nil {
		r.logger.Errorw("failed to map subscription model to entity", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to map subscription: %w", err)
	}

	return entity, nil
}

func (r *SubscriptionRepositoryImpl) Update(ctx context.Context, subscriptionEntity *subscription.Subscription) error {
	model, err := r.mapper.ToModel(subscriptionEntity)
	if err != nil {
		r.logger.Errorw("failed to map subscription entity to model", "id", subscriptionEntity.ID(), "error", err)
		return fmt.Errorf("failed to map subscription entity: %w", err)
	}

	result := db.GetTxFromContext(ctx, r.db).Model(&models.SubscriptionModel{}).
		Where("id = ?", model.ID).
		Updates(stateColumns(model))
	if result.Error != nil {
		r.logger.Errorw("failed to update subscription", "id", model.ID, "error", result.Error)
		return fmt.Errorf("failed to update subscription: %w", result.Error)
	}

	// Note: RowsAffected may be 0 when updated values are identical to existing values.

	r.logger.Debugw("subscription updated", "id", model.ID, "status", model.Status)
	return nil
}

func (r *SubscriptionRepositoryImpl) FindExpired(ctx context.Context, now time.Time) ([]*subscription.Subscription, error) {
	var rows []*models.SubscriptionModel

	// served by idx_subscription_expiry (end_date, is_access_blocked)
	err := r.db.WithContext(ctx).
		Where("end_date < ? AND is_access_blocked = ? AND status <> ?", now, false, vo.StatusInactive.String()).
		Order("end_date ASC").
		Find(&rows).Error
	if err != nil {
		r.logger.Errorw("failed to find expired subscriptions", "error", err)
		return nil, fmt.Errorf("failed to find expired subscriptions: %w", err)
	}

	entities, err := r.mapper.ToEntities(rows)
	if err != nil {
		r.logger.Errorw("failed to map expired subscriptions", "error", err)
		return nil, fmt.Errorf("failed to map subscriptions: %w", err)
	}

	return entities, nil
}

func (r *SubscriptionRepositoryImpl) RecordPayment(ctx context.Context, subscriptionEntity *subscription.Subscription, record *subscription.PaymentRecord) error {
	model, err := r.mapper.ToModel(subscriptionEntity)
	if err != nil {
		return fmt.Errorf("failed to map subscription entity: %w", err)
	}
	paymentModel := r.mapper.PaymentToModel(record)

	err = db.GetTxFromContext(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(paymentModel).Error; err != nil {
			if apperrors.IsDuplicateError(err) {
				return subscription.ErrPaymentAlreadyRecorded
			}
			return fmt.Errorf("failed to insert payment record: %w", err)
		}

		// other outcomes leave the subscription row as the latest writer left it
		if !record.Status().IsApproved() {
			return nil
		}

		if err := tx.Model(&models.SubscriptionModel{}).
			Where("id = ?", model.ID).
			Updates(billingColumns(model)).Error; err != nil {
			return fmt.Errorf("failed to update subscription: %w", err)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, subscription.ErrPaymentAlreadyRecorded) {
			r.logger.Errorw("failed to record payment",
				"subscription_id", model.ID,
				"payment_id", record.ID(),
				"error", err,
			)
		}
		return err
	}

	r.logger.Infow("payment recorded",
		"subscription_id", model.ID,
		"payment_id", record.ID(),
		"status", paymentModel.Status,
	)
	return nil
}

func (r *SubscriptionRepositoryImpl) BackfillGracePeriod(ctx context.Context, subscriptionEntity *subscription.Subscription) error {
	graceEnd := subscriptionEntity.GracePeriodEndDate()
	if graceEnd == nil {
		return nil
	}

	// a concurrent renewal may already have written a newer value
	err := db.GetTxFromContext(ctx, r.db).Model(&models.SubscriptionModel{}).
		Where("id = ? AND grace_period_end_date IS NULL", subscriptionEntity.ID()).
		Update("grace_period_end_date", *graceEnd).Error
	if err != nil {
		r.logger.Errorw("failed to backfill grace period", "id", subscriptionEntity.ID(), "error", err)
		return fmt.Errorf("failed to backfill grace period: %w", err)
	}
	return nil
}

func (r *SubscriptionRepositoryImpl) BlockIfExpired(ctx context.Context, subscriptionEntity *subscription.Subscription) (bool, error) {
	result := db.GetTxFromContext(ctx, r.db).Model(&models.SubscriptionModel{}).
		Where("id = ? AND end_date = ? AND is_access_blocked = ?",
			subscriptionEntity.ID(), subscriptionEntity.EndDate(), false).
		Updates(map[string]interface{}{
			"status":            subscriptionEntity.Status().String(),
			"is_access_blocked": subscriptionEntity.IsAccessBlocked(),
			"version":           gorm.Expr("version + 1"),
			"updated_at":        subscriptionEntity.UpdatedAt(),
		})
	if result.Error != nil {
		r.logger.Errorw("failed to block subscription", "id", subscriptionEntity.ID(), "error", result.Error)
		return false, fmt.Errorf("failed to block subscription: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// stateColumns lists every mutable column. A map is used so that false and
// nil values are written too.
func stateColumns(model *models.SubscriptionModel) map[string]interface{} {
	return map[string]interface{}{
		"status":                model.Status,
		"plan_type":             model.PlanType,
		"amount":                model.Amount,
		"currency":              model.Currency,
		"start_date":            model.StartDate,
		"end_date":              model.EndDate,
		"next_billing_date":     model.NextBillingDate,
		"grace_period_end_date": model.GracePeriodEndDate,
		"is_access_blocked":     model.IsAccessBlocked,
		"last_payment_date":     model.LastPaymentDate,
		"cancellation_reason":   model.CancellationReason,
		"cancellation_date":     model.CancellationDate,
		"reactivation_date":     model.ReactivationDate,
		"version":               model.Version,
		"updated_at":            model.UpdatedAt,
	}
}

// billingColumns are the columns an approved payment renews. Cancellation
// fields are left out so a snapshot read before a concurrent cancel or
// block cannot roll them back.
func billingColumns(model *models.SubscriptionModel) map[string]interface{} {
	return map[string]interface{}{
		"status":                model.Status,
		"start_date":            model.StartDate,
		"end_date":              model.EndDate,
		"next_billing_date":     model.NextBillingDate,
		"grace_period_end_date": model.GracePeriodEndDate,
		"is_access_blocked":     model.IsAccessBlocked,
		"last_payment_date":     model.LastPaymentDate,
		"version":               model.Version,
		"updated_at":            model.UpdatedAt,
	}
}
