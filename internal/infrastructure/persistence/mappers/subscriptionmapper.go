package mappers

import (
	"fmt"
	"sort"

	"github.com/abengolea/heartlink-sub000/internal/domain/subscription"
	vo "github.com/abengolea/heartlink-sub000/internal/domain/subscription/valueobjects"
	"github.com/abengolea/heartlink-sub000/internal/infrastructure/persistence/models"
	"github.com/abengolea/heartlink-sub000/internal/shared/mapper"
)

type SubscriptionMapper interface {
	ToEntity(model *models.SubscriptionModel) (*subscription.Subscription, error)
	ToModel(entity *subscription.Subscription) (*models.SubscriptionModel, error)
	ToEntities(models []*models.SubscriptionModel) ([]*subscription.Subscription, error)
	PaymentToModel(record *subscription.PaymentRecord) *models.PaymentRecordModel
}

type SubscriptionMapperImpl struct{}

func NewSubscriptionMapper() SubscriptionMapper {
	return &SubscriptionMapperImpl{}
}

// ToEntity converts a model, with its preloaded payments, into the aggregate.
func (m *SubscriptionMapperImpl) ToEntity(model *models.SubscriptionModel) (*subscription.Subscription, error) {
	if model == nil {
		return nil, nil
	}

	payments := make([]models.PaymentRecordModel, len(model.Payments))
	copy(payments, model.Payments)
	sort.SliceStable(payments, func(i, j int) bool {
		return payments[i].ID < payments[j].ID
	})

	history := make([]*subscription.PaymentRecord, 0, len(payments))
	for i := range payments {
		record, err := m.paymentToEntity(&payments[i])
		if err != nil {
			return nil, err
		}
		history = append(history, record)
	}

	return subscription.ReconstructSubscriptionWithParams(subscription.SubscriptionReconstructParams{
		ID:                 model.ID,
		UserID:             model.UserID,
		Status:             vo.SubscriptionStatus(model.Status),
		PlanType:           vo.PlanType(model.PlanType),
		Amount:             vo.NewMoney(model.Amount, model.Currency),
		StartDate:          model.StartDate.UTC(),
		EndDate:            model.EndDate.UTC(),
		NextBillingDate:    model.NextBillingDate.UTC(),
		GracePeriodEndDate: utcPtr(model.GracePeriodEndDate),
		IsAccessBlocked:    model.IsAccessBlocked,
		LastPaymentDate:    utcPtr(model.LastPaymentDate),
		CancellationReason: model.CancellationReason,
		CancellationDate:   utcPtr(model.CancellationDate),
		ReactivationDate:   utcPtr(model.ReactivationDate),
		PaymentHistory:     history,
		Version:            model.Version,
		CreatedAt:          model.CreatedAt.UTC(),
		UpdatedAt:          model.UpdatedAt.UTC(),
	})
}

// ToModel converts the aggregate; payments are persisted separately.
func (m *SubscriptionMapperImpl) ToModel(entity *subscription.Subscription) (*models.SubscriptionModel, error) {
	if entity == nil {
		return nil, nil
	}
	if err := entity.Validate(); err != nil {
		return nil, fmt.Errorf("invalid subscription %s: %w", entity.ID(), err)
	}

	return &models.SubscriptionModel{
		ID:                 entity.ID(),
		UserID:             entity.UserID(),
		Status:             entity.Status().String(),
		PlanType:           entity.PlanType().String(),
		Amount:             entity.Amount().AmountMinor(),
		Currency:           entity.Amount().Currency(),
		StartDate:          entity.StartDate(),
		EndDate:            entity.EndDate(),
		NextBillingDate:    entity.NextBillingDate(),
		GracePeriodEndDate: entity.GracePeriodEndDate(),
		IsAccessBlocked:    entity.IsAccessBlocked(),
		LastPaymentDate:    entity.LastPaymentDate(),
		CancellationReason: entity.CancellationReason(),
		CancellationDate:   entity.CancellationDate(),
		ReactivationDate:   entity.ReactivationDate(),
		Version:            entity.Version(),
		CreatedAt:          entity.CreatedAt(),
		UpdatedAt:          entity.UpdatedAt(),
	}, nil
}

func (m *SubscriptionMapperImpl) ToEntities(items []*models.SubscriptionModel) ([]*subscription.Subscription, error) {
	return mapper.MapRows(items, m.ToEntity, func(model *models.SubscriptionModel) string {
		return model.ID
	})
}

func (m *SubscriptionMapperImpl) PaymentToModel(record *subscription.PaymentRecord) *models.PaymentRecordModel {
	return &models.PaymentRecordModel{
		ProviderPaymentID: record.ID(),
		SubscriptionID:    record.SubscriptionID(),
		Amount:            record.Amount().AmountMinor(),
		Currency:          record.Amount().Currency(),
		Status:            record.Status().String(),
		PaymentDate:       record.PaymentDate(),
		PaymentMethod:     record.PaymentMethod(),
		FailureReason:     record.FailureReason(),
		CreatedAt:         record.CreatedAt(),
	}
}

func (m *SubscriptionMapperImpl) paymentToEntity(model *models.PaymentRecordModel) (*subscription.PaymentRecord, error) {
	record, err := subscription.NewPaymentRecord(
		model.ProviderPaymentID,
		model.SubscriptionID,
		vo.NewMoney(model.Amount, model.Currency),
		vo.PaymentStatus(model.Status),
		model.PaymentDate.UTC(),
		model.PaymentMethod,
		model.FailureReason,
		model.CreatedAt.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid payment record %s: %w", model.ProviderPaymentID, err)
	}
	return record, nil
}
