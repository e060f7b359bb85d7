package usecases

import (
	"context"
	"errors"
	"time"

	"github.com/abengolea/heartlink-sub000/internal/application/subscription/dto"
	"github.com/abengolea/heartlink-sub000/internal/domain/subscription"
	"github.com/abengolea/heartlink-sub000/internal/domain/user"
	"github.com/abengolea/heartlink-sub000/internal/shared/biztime"
	apperrors "github.com/abengolea/heartlink-sub000/internal/shared/errors"
	"github.com/abengolea/heartlink-sub000/internal/shared/logger"
)

type ReactivateSubscriptionCommand struct {
	UserID  string
	ActorID string
}

// ReactivateSubscriptionUseCase is an administrative override that lifts a
// suspension or cancellation while the paid period is still running.
type ReactivateSubscriptionUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	effects          *changeEffects
	gracePeriod      time.Duration
	now              func() time.Time
	logger           logger.Interface
}

func NewReactivateSubscriptionUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	userRepo user.Repository,
	gracePeriod time.Duration,
	logger logger.Interface,
) *ReactivateSubscriptionUseCase {
	return &ReactivateSubscriptionUseCase{
		subscriptionRepo: subscriptionRepo,
		effects:          newChangeEffects(userRepo, logger),
		gracePeriod:      gracePeriod,
		now:              biztime.NowUTC,
		logger:           logger,
	}
}

// SetEventPublisher sets the change publisher (optional dependency injection)
func (uc *ReactivateSubscriptionUseCase) SetEventPublisher(publisher SubscriptionEventPublisher) {
	uc.effects.publisher = publisher
}

func (uc *ReactivateSubscriptionUseCase) Execute(ctx context.Context, cmd ReactivateSubscriptionCommand) (*dto.SubscriptionDTO, error) {
	sub, err := uc.subscriptionRepo.GetByUserID(ctx, cmd.UserID)
	if err != nil {
		uc.logger.Errorw("failed to get subscription", "user_id", cmd.UserID, "error", err)
		return nil, apperrors.NewInternalError("failed to get subscription")
	}
	if sub == nil {
		return nil, apperrors.NewNotFoundError("subscription not found", cmd.UserID)
	}

	now := uc.now()
	if err := sub.Reactivate(now, uc.gracePeriod); err != nil {
		if errors.Is(err, subscription.ErrNotReactivatable) || errors.Is(err, subscription.ErrRenewalRequired) {
			return nil, apperrors.NewPolicyViolationError(err.Error())
		}
		return nil, apperrors.NewInternalError("failed to reactivate subscription")
	}

	if err := uc.subscriptionRepo.Update(ctx, sub); err != nil {
		uc.logger.Errorw("failed to update subscription", "subscription_id", sub.ID(), "error", err)
		return nil, apperrors.NewInternalError("failed to reactivate subscription")
	}

	uc.effects.syncMirror(ctx, sub)
	uc.effects.publish(ctx, sub, subscription.ChangeReactivated, now)

	uc.logger.Infow("subscription reactivated",
		"subscription_id", sub.ID(),
		"user_id", sub.UserID(),
		"actor_id", cmd.ActorID,
	)

	return dto.ToSubscriptionDTO(sub, now), nil
}
