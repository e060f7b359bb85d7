package usecases

import (
	"context"
	"time"

	"github.com/abengolea/heartlink-sub000/internal/application/subscription/dto"
	"github.com/abengolea/heartlink-sub000/internal/domain/subscription"
	"github.com/abengolea/heartlink-sub000/internal/shared/biztime"
	apperrors "github.com/abengolea/heartlink-sub000/internal/shared/errors"
	"github.com/abengolea/heartlink-sub000/internal/shared/logger"
)

type GetSubscriptionStatusUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	gracePeriod      time.Duration
	now              func() time.Time
	logger           logger.Interface
}

func NewGetSubscriptionStatusUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	gracePeriod time.Duration,
	logger logger.Interface,
) *GetSubscriptionStatusUseCase {
	return &GetSubscriptionStatusUseCase{
		subscriptionRepo: subscriptionRepo,
		gracePeriod:      gracePeriod,
		now:              biztime.NowUTC,
		logger:           logger,
	}
}

func (uc *GetSubscriptionStatusUseCase) Execute(ctx context.Context, userID string) (*dto.SubscriptionStatusDTO, error) {
	if userID == "" {
		return nil, apperrors.NewValidationError("user id is required")
	}

	sub, err := uc.subscriptionRepo.GetByUserID(ctx, userID)
	if err != nil {
		uc.logger.Errorw("failed to get subscription", "user_id", userID, "error", err)
		return nil, apperrors.NewInternalError("failed to get subscription")
	}

	now := uc.now()
	decision := subscription.EvaluateAccess(sub, now, uc.gracePeriod)

	view := dto.ToSubscriptionDTO(sub, now)
	if view != nil {
		view.GraceDaysRemaining = biztime.DaysUntil(now, sub.EffectiveGraceEnd(uc.gracePeriod))
	}

	return &dto.SubscriptionStatusDTO{
		HasSubscription: sub != nil,
		HasAccess:       decision.HasAccess,
		Subscription:    view,
		AccessInfo:      dto.ToAccessInfo(decision),
	}, nil
}
