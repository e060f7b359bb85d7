package subscription

import "time"

// ChangeReason describes why a subscription changed.
type ChangeReason string

const (
	ChangeCreated         ChangeReason = "created"
	ChangePaymentApproved ChangeReason = "payment_approved"
	ChangeBlocked         ChangeReason = "blocked"
	ChangeCancelled       ChangeReason = "cancelled"
	ChangeReactivated     ChangeReason = "reactivated"
)

// SubscriptionChangedEvent is broadcast after a subscription write commits.
type SubscriptionChangedEvent struct {
	SubscriptionID     string       `json:"subscription_id"`
	UserID             string       `json:"user_id"`
	Reason             ChangeReason `json:"reason"`
	Status             string       `json:"status"`
	IsAccessBlocked    bool         `json:"is_access_blocked"`
	EndDate            time.Time    `json:"end_date"`
	GracePeriodEndDate *time.Time   `json:"grace_period_end_date,omitempty"`
	Timestamp          time.Time    `json:"timestamp"`
}

func NewSubscriptionChangedEvent(sub *Subscription, reason ChangeReason, at time.Time) *SubscriptionChangedEvent {
	return &SubscriptionChangedEvent{
		SubscriptionID:     sub.ID(),
		UserID:             sub.UserID(),
		Reason:             reason,
		Status:             sub.Status().String(),
		IsAccessBlocked:    sub.IsAccessBlocked(),
		EndDate:            sub.EndDate(),
		GracePeriodEndDate: sub.GracePeriodEndDate(),
		Timestamp:          at,
	}
}

// GetEventType returns the routing name, e.g. "subscription.blocked".
func (e *SubscriptionChangedEvent) GetEventType() string {
	return "subscription." + string(e.Reason)
}
