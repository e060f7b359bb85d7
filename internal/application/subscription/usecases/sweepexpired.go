package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/abengolea/heartlink-sub000/internal/domain/subscription"
	"github.com/abengolea/heartlink-sub000/internal/domain/user"
	"github.com/abengolea/heartlink-sub000/internal/shared/logger"
)

// SweepReport summarizes one sweep run.
type SweepReport struct {
	Processed    int       `json:"processed"`
	Blocked      int       `json:"blocked"`
	TotalExpired int       `json:"total_expired"`
	Backfilled   int       `json:"backfilled"`
	Failed       int       `json:"failed"`
	Timestamp    time.Time `json:"timestamp"`
}

// SweepExpiredSubscriptionsUseCase blocks subscriptions whose grace window has
// passed. It is safe to run redundantly: blocked rows are not selected again
// and every write is conditional.
type SweepExpiredSubscriptionsUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	effects          *changeEffects
	metrics          BillingMetrics // Optional
	gracePeriod      time.Duration
	logger           logger.Interface
}

func NewSweepExpiredSubscriptionsUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	userRepo user.Repository,
	gracePeriod time.Duration,
	logger logger.Interface,
) *SweepExpiredSubscriptionsUseCase {
	return &SweepExpiredSubscriptionsUseCase{
		subscriptionRepo: subscriptionRepo,
		effects:          newChangeEffects(userRepo, logger),
		gracePeriod:      gracePeriod,
		logger:           logger,
	}
}

// SetEventPublisher sets the change publisher (optional dependency injection)
func (uc *SweepExpiredSubscriptionsUseCase) SetEventPublisher(publisher SubscriptionEventPublisher) {
	uc.effects.publisher = publisher
}

// SetNotifier sets the email notifier (optional dependency injection)
func (uc *SweepExpiredSubscriptionsUseCase) SetNotifier(notifier BillingNotifier) {
	uc.effects.notifier = notifier
}

// SetMetrics sets the metrics recorder (optional dependency injection)
func (uc *SweepExpiredSubscriptionsUseCase) SetMetrics(metrics BillingMetrics) {
	uc.metrics = metrics
}

// Execute sweeps every expired subscription as of now. Only a failure to list
// candidates is returned; per-subscription failures are counted and logged.
func (uc *SweepExpiredSubscriptionsUseCase) Execute(ctx context.Context, now time.Time) (*SweepReport, error) {
	started := time.Now()

	expired, err := uc.subscriptionRepo.FindExpired(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to find expired subscriptions: %w", err)
	}

	report := &SweepReport{
		TotalExpired: len(expired),
		Timestamp:    now,
	}

	if len(expired) > 0 {
		uc.logger.Infow("found expired subscriptions to process", "count", len(expired))
	}

	for _, sub := range expired {
		if ctx.Err() != nil {
			uc.logger.Warnw("sweep interrupted",
				"remaining", report.TotalExpired-report.Processed-report.Failed,
				"error", ctx.Err(),
			)
			break
		}

		backfilled, blocked, err := uc.sweepOne(ctx, sub, now)
		if backfilled {
			report.Backfilled++
		}
		if err != nil {
			report.Failed++
			uc.logger.Errorw("failed to sweep subscription",
				"subscription_id", sub.ID(),
				"user_id", sub.UserID(),
				"error", err,
			)
			continue
		}
		report.Processed++
		if blocked {
			report.Blocked++
		}
	}

	if uc.metrics != nil {
		uc.metrics.ObserveSweep(report, time.Since(started))
	}

	uc.logger.Infow("subscription sweep completed",
		"total_expired", report.TotalExpired,
		"processed", report.Processed,
		"blocked", report.Blocked,
		"backfilled", report.Backfilled,
		"failed", report.Failed,
	)

	return report, nil
}

// sweepOne isolates a single subscription, including panics from bad records.
func (uc *SweepExpiredSubscriptionsUseCase) sweepOne(ctx context.Context, sub *subscription.Subscription, now time.Time) (backfilled, blocked bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while sweeping: %v", r)
		}
	}()

	if sub.BackfillGracePeriod(uc.gracePeriod) {
		if err := uc.subscriptionRepo.BackfillGracePeriod(ctx, sub); err != nil {
			return false, false, fmt.Errorf("failed to backfill grace period: %w", err)
		}
		backfilled = true
		uc.logger.Debugw("grace period backfilled",
			"subscription_id", sub.ID(),
			"grace_period_end_date", *sub.GracePeriodEndDate(),
		)
	}

	if !sub.IsGraceExhausted(now, uc.gracePeriod) {
		return backfilled, false, nil
	}

	if err := sub.Suspend(now); err != nil {
		return backfilled, false, err
	}

	ok, err := uc.subscriptionRepo.BlockIfExpired(ctx, sub)
	if err != nil {
		return backfilled, false, fmt.Errorf("failed to block subscription: %w", err)
	}
	if !ok {
		uc.logger.Infow("subscription changed during sweep, skipping block",
			"subscription_id", sub.ID(),
		)
		return backfilled, false, nil
	}

	uc.effects.syncMirror(ctx, sub)
	uc.effects.publish(ctx, sub, subscription.ChangeBlocked, now)
	uc.effects.notify(sub, noticeAccessSuspended)

	uc.logger.Infow("subscription blocked after grace period",
		"subscription_id", sub.ID(),
		"user_id", sub.UserID(),
		"status", sub.Status().String(),
	)
	return backfilled, true, nil
}
