package usecases

import (
	"context"
	"net/http"
	"time"

	"github.com/abengolea/heartlink-sub000/internal/application/subscription/dto"
	"github.com/abengolea/heartlink-sub000/internal/domain/subscription"
	"github.com/abengolea/heartlink-sub000/internal/shared/biztime"
	apperrors "github.com/abengolea/heartlink-sub000/internal/shared/errors"
	"github.com/abengolea/heartlink-sub000/internal/shared/logger"
)

// GateResult is the access gate's verdict for a feature request.
type GateResult struct {
	Allow      bool
	HTTPStatus int
	Reason     subscription.AccessReason
	Denial     *dto.DenialBody
	Warning    *dto.SubscriptionWarning
}

// CheckAccessUseCase evaluates a user's subscription at request time. It reads
// the Subscription record, never the user mirror.
type CheckAccessUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	redirectTo       string
	gracePeriod      time.Duration
	metrics          BillingMetrics // Optional
	now              func() time.Time
	logger           logger.Interface
}

func NewCheckAccessUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	redirectTo string,
	gracePeriod time.Duration,
	logger logger.Interface,
) *CheckAccessUseCase {
	return &CheckAccessUseCase{
		subscriptionRepo: subscriptionRepo,
		redirectTo:       redirectTo,
		gracePeriod:      gracePeriod,
		now:              biztime.NowUTC,
		logger:           logger,
	}
}

// SetMetrics sets the metrics recorder (optional dependency injection)
func (uc *CheckAccessUseCase) SetMetrics(metrics BillingMetrics) {
	uc.metrics = metrics
}

func (uc *CheckAccessUseCase) Execute(ctx context.Context, userID string) (*GateResult, error) {
	if userID == "" {
		return nil, apperrors.NewUnauthorizedError("user not authenticated")
	}

	sub, err := uc.subscriptionRepo.GetByUserID(ctx, userID)
	if err != nil {
		uc.logger.Errorw("failed to load subscription for access check", "user_id", userID, "error", err)
		return nil, apperrors.NewInternalError("failed to check subscription")
	}

	now := uc.now()
	decision := subscription.EvaluateAccess(sub, now, uc.gracePeriod)

	if uc.metrics != nil {
		uc.metrics.ObserveGate(decision.Reason.String(), decision.HasAccess)
	}

	if !decision.HasAccess {
		uc.logger.Debugw("access denied", "user_id", userID, "reason", decision.Reason.String())
		return &GateResult{
			Allow:      false,
			HTTPStatus: http.StatusPaymentRequired,
			Reason:     decision.Reason,
			Denial: &dto.DenialBody{
				Error:                dto.DenialMessage(decision.Reason),
				Reason:               decision.Reason.String(),
				SubscriptionRequired: true,
				RedirectTo:           uc.redirectTo,
			},
		}, nil
	}

	result := &GateResult{
		Allow:      true,
		HTTPStatus: http.StatusOK,
		Reason:     decision.Reason,
	}
	if decision.InGracePeriod() {
		graceEnd := sub.EffectiveGraceEnd(uc.gracePeriod)
		result.Warning = &dto.SubscriptionWarning{
			Reason:             decision.Reason.String(),
			Message:            "Your subscription has expired. Renew it before the grace period ends to keep access.",
			GracePeriodEndDate: graceEnd,
			DaysRemaining:      biztime.DaysUntil(now, graceEnd),
		}
	}
	return result, nil
}
