package subscription

import (
	"context"
	"time"
)

type SubscriptionRepository interface {
	Create(ctx context.Context, subscription *Subscription) error
	GetByID(ctx context.Context, id string) (*Subscription, error)
	// GetByUserID returns the user's most recent subscription with its payment
	// history, or nil when the user has none.
	GetByUserID(ctx context.Context, userID string) (*Subscription, error)
	Update(ctx context.Context, subscription *Subscription) error

	// FindExpired returns subscriptions with end_date < now that are not yet
	// blocked, excluding inactive ones that never started.
	FindExpired(ctx context.Context, now time.Time) ([]*Subscription, error)

	// RecordPayment inserts the payment record and persists the subscription's
	// billing fields atomically. A duplicate payment id yields ErrPaymentAlreadyRecorded
	// and leaves both rows unchanged.
	RecordPayment(ctx context.Context, subscription *Subscription, record *PaymentRecord) error

	// BackfillGracePeriod stores grace_period_end_date only if it is still unset.
	BackfillGracePeriod(ctx context.Context, subscription *Subscription) error

	// BlockIfExpired persists a block only while end_date still equals the value
	// the caller observed. It returns false when a concurrent renewal won.
	BlockIfExpired(ctx context.Context, subscription *Subscription) (bool, error)
}

type WebhookEventRepository interface {
	Save(ctx context.Context, event *WebhookEvent) error
}
