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

const maxCancellationReasonLen = 500

type CancelSubscriptionCommand struct {
	UserID string
	Reason string
	// ActorID is the user performing the action; differs from UserID for admins.
	ActorID string
}

type CancelSubscriptionUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	sanitizer        TextSanitizer
	effects          *changeEffects
	now              func() time.Time
	logger           logger.Interface
}

func NewCancelSubscriptionUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	userRepo user.Repository,
	sanitizer TextSanitizer,
	logger logger.Interface,
) *CancelSubscriptionUseCase {
	return &CancelSubscriptionUseCase{
		subscriptionRepo: subscriptionRepo,
		sanitizer:        sanitizer,
		effects:          newChangeEffects(userRepo, logger),
		now:              biztime.NowUTC,
		logger:           logger,
	}
}

// SetEventPublisher sets the change publisher (optional dependency injection)
func (uc *CancelSubscriptionUseCase) SetEventPublisher(publisher SubscriptionEventPublisher) {
	uc.effects.publisher = publisher
}

func (uc *CancelSubscriptionUseCase) Execute(ctx context.Context, cmd CancelSubscriptionCommand) (*dto.SubscriptionDTO, error) {
	sub, err := uc.subscriptionRepo.GetByUserID(ctx, cmd.UserID)
	if err != nil {
		uc.logger.Errorw("failed to get subscription", "user_id", cmd.UserID, "error", err)
		return nil, apperrors.NewInternalError("failed to get subscription")
	}
	if sub == nil {
		return nil, apperrors.NewNotFoundError("subscription not found", cmd.UserID)
	}

	reason := cmd.Reason
	if uc.sanitizer != nil {
		reason = uc.sanitizer.PlainText(reason, maxCancellationReasonLen)
	}

	now := uc.now()
	if err := sub.Cancel(reason, now); err != nil {
		if errors.Is(err, subscription.ErrAlreadyCancelled) || errors.Is(err, subscription.ErrInvalidStatusTransition) {
			return nil, apperrors.NewPolicyViolationError(err.Error())
		}
		return nil, apperrors.NewInternalError("failed to cancel subscription")
	}

	if err := uc.subscriptionRepo.Update(ctx, sub); err != nil {
		uc.logger.Errorw("failed to update subscription", "subscription_id", sub.ID(), "error", err)
		return nil, apperrors.NewInternalError("failed to cancel subscription")
	}

	uc.effects.syncMirror(ctx, sub)
	uc.effects.publish(ctx, sub, subscription.ChangeCancelled, now)

	uc.logger.Infow("subscription cancelled",
		"subscription_id", sub.ID(),
		"user_id", sub.UserID(),
		"actor_id", cmd.ActorID,
		"reason", reason,
	)

	return dto.ToSubscriptionDTO(sub, now), nil
}
