package usecases

import (
	"context"
	"time"

	"github.com/abengolea/heartlink-sub000/internal/domain/subscription"
	vo "github.com/abengolea/heartlink-sub000/internal/domain/subscription/valueobjects"
	"github.com/abengolea/heartlink-sub000/internal/domain/user"
)

// PaymentLock serializes concurrent deliveries of the same provider payment.
// The unique payment id in storage remains the final guard.
type PaymentLock interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// TransactionRunner runs fn in a storage transaction carried by ctx.
type TransactionRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// SubscriptionEventPublisher broadcasts committed subscription changes.
type SubscriptionEventPublisher interface {
	Publish(ctx context.Context, event *subscription.SubscriptionChangedEvent) error
}

// BillingNotifier sends user facing notices. Calls are best effort.
type BillingNotifier interface {
	NotifyPaymentApproved(ctx context.Context, u *user.User, sub *subscription.Subscription) error
	NotifyAccessSuspended(ctx context.Context, u *user.User, sub *subscription.Subscription) error
}

// BillingMetrics records counters for the billing core.
type BillingMetrics interface {
	ObserveReconcile(outcome string)
	ObserveSweep(report *SweepReport, duration time.Duration)
	ObserveGate(reason string, allowed bool)
}

// PlanPrice is the catalog entry for a plan type.
type PlanPrice struct {
	PlanType        vo.PlanType
	Title           string
	Amount          vo.Money
	DiscountPercent int
}

// PlanCatalog resolves the current price of a plan.
type PlanCatalog interface {
	Price(planType vo.PlanType) (*PlanPrice, error)
}

// TextSanitizer cleans user supplied free text before it is stored.
type TextSanitizer interface {
	PlainText(text string, maxLen int) string
}
