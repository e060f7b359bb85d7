package usecases

import (
	"context"
	"time"

	"github.com/abengolea/heartlink-sub000/internal/domain/subscription"
	"github.com/abengolea/heartlink-sub000/internal/domain/user"
	"github.com/abengolea/heartlink-sub000/internal/shared/goroutine"
	"github.com/abengolea/heartlink-sub000/internal/shared/logger"
	"github.com/abengolea/heartlink-sub000/internal/shared/utils/logutil"
)

const notifyTimeout = 30 * time.Second

type noticeKind int

const (
	noticePaymentApproved noticeKind = iota
	noticeAccessSuspended
)

// changeEffects runs the follow-up work after a subscription write commits:
// the user mirror, the change broadcast and the email notice. None of them
// can fail the operation that triggered them.
type changeEffects struct {
	userRepo  user.Repository
	publisher SubscriptionEventPublisher // Optional
	notifier  BillingNotifier            // Optional
	logger    logger.Interface
}

func newChangeEffects(userRepo user.Repository, log logger.Interface) *changeEffects {
	return &changeEffects{userRepo: userRepo, logger: log}
}

// syncMirror writes User.subscriptionStatus. It must run after the
// subscription write so a failure leaves the mirror stale, never ahead.
func (e *changeEffects) syncMirror(ctx context.Context, sub *subscription.Subscription) {
	if e.userRepo == nil {
		return
	}
	if err := e.userRepo.UpdateSubscriptionStatus(ctx, sub.UserID(), sub.Status().String()); err != nil {
		e.logger.Warnw("failed to update user subscription mirror",
			"user_id", sub.UserID(),
			"subscription_id", sub.ID(),
			"status", sub.Status().String(),
			"error", err,
		)
	}
}

func (e *changeEffects) publish(ctx context.Context, sub *subscription.Subscription, reason subscription.ChangeReason, at time.Time) {
	if e.publisher == nil {
		return
	}
	event := subscription.NewSubscriptionChangedEvent(sub, reason, at)
	if err := e.publisher.Publish(ctx, event); err != nil {
		e.logger.Warnw("failed to publish subscription change",
			"subscription_id", sub.ID(),
			"reason", string(reason),
			"error", err,
		)
	}
}

// notify sends the email in the background; it outlives the request context.
func (e *changeEffects) notify(sub *subscription.Subscription, kind noticeKind) {
	if e.notifier == nil || e.userRepo == nil {
		return
	}
	goroutine.SafeGo(e.logger, "billing-notice", func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		u, err := e.userRepo.GetByID(ctx, sub.UserID())
		if err != nil || u == nil {
			e.logger.Warnw("cannot notify user, user lookup failed",
				"user_id", sub.UserID(),
				"error", err,
			)
			return
		}

		switch kind {
		case noticePaymentApproved:
			err = e.notifier.NotifyPaymentApproved(ctx, u, sub)
		case noticeAccessSuspended:
			err = e.notifier.NotifyAccessSuspended(ctx, u, sub)
		}
		if err != nil {
			e.logger.Warnw("failed to send billing notice",
				"user_id", sub.UserID(),
				"email", logutil.MaskEmail(u.Email()),
				"subscription_id", sub.ID(),
				"error", err,
			)
		}
	})
}
