package dto

import (
	"time"

	"github.com/abengolea/heartlink-sub000/internal/domain/subscription"
	"github.com/abengolea/heartlink-sub000/internal/shared/biztime"
	"github.com/abengolea/heartlink-sub000/internal/shared/mapper"
)

// The status endpoint is consumed by the existing web client, which expects camelCase keys.

type PaymentRecordDTO struct {
	ID            string    `json:"id"`
	Amount        int64     `json:"amount"` // minor units
	AmountDisplay string    `json:"amountDisplay"`
	Currency      string    `json:"currency"`
	Status        string    `json:"status"`
	PaymentDate   time.Time `json:"paymentDate"`
	PaymentMethod string    `json:"paymentMethod,omitempty"`
	FailureReason string    `json:"failureReason,omitempty"`
}

type SubscriptionDTO struct {
	ID                 string              `json:"id"`
	UserID             string              `json:"userId"`
	Status             string              `json:"status"`
	PlanType           string              `json:"planType"`
	Amount             int64               `json:"amount"` // minor units
	AmountDisplay      string              `json:"amountDisplay"`
	Currency           string              `json:"currency"`
	StartDate          time.Time           `json:"startDate"`
	EndDate            time.Time           `json:"endDate"`
	NextBillingDate    time.Time           `json:"nextBillingDate"`
	GracePeriodEndDate *time.Time          `json:"gracePeriodEndDate,omitempty"`
	IsAccessBlocked    bool                `json:"isAccessBlocked"`
	LastPaymentDate    *time.Time          `json:"lastPaymentDate,omitempty"`
	CancellationReason *string             `json:"cancellationReason,omitempty"`
	CancellationDate   *time.Time          `json:"cancellationDate,omitempty"`
	ReactivationDate   *time.Time          `json:"reactivationDate,omitempty"`
	DaysRemaining      int                 `json:"daysRemaining"`
	GraceDaysRemaining int                 `json:"graceDaysRemaining"`
	PaymentHistory     []*PaymentRecordDTO `json:"paymentHistory"`
}

type AccessInfoDTO struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
	Color   string `json:"color"`
}

type SubscriptionStatusDTO struct {
	HasSubscription bool             `json:"hasSubscription"`
	HasAccess       bool             `json:"hasAccess"`
	Subscription    *SubscriptionDTO `json:"subscription,omitempty"`
	AccessInfo      AccessInfoDTO    `json:"accessInfo"`
}

// DenialBody is returned with HTTP 402 when the access gate refuses a request.
type DenialBody struct {
	Error                string `json:"error"`
	Reason               string `json:"reason"`
	SubscriptionRequired bool   `json:"subscription_required"`
	RedirectTo           string `json:"redirect_to"`
}

// SubscriptionWarning is attached to successful responses while in the grace window.
type SubscriptionWarning struct {
	Reason             string    `json:"reason"`
	Message            string    `json:"message"`
	GracePeriodEndDate time.Time `json:"grace_period_end_date"`
	DaysRemaining      int       `json:"days_remaining"`
}

// ToPaymentRecordDTO converts a payment record for API output
func ToPaymentRecordDTO(p *subscription.PaymentRecord) *PaymentRecordDTO {
	return &PaymentRecordDTO{
		ID:            p.ID(),
		Amount:        p.Amount().AmountMinor(),
		AmountDisplay: p.Amount().String(),
		Currency:      p.Amount().Currency(),
		Status:        p.Status().String(),
		PaymentDate:   p.PaymentDate(),
		PaymentMethod: p.PaymentMethod(),
		FailureReason: p.FailureReason(),
	}
}

// ToSubscriptionDTO converts a subscription; day counters are relative to now.
func ToSubscriptionDTO(sub *subscription.Subscription, now time.Time) *SubscriptionDTO {
	if sub == nil {
		return nil
	}

	graceDays := 0
	if g := sub.GracePeriodEndDate(); g != nil {
		graceDays = biztime.DaysUntil(now, *g)
	}

	history := mapper.MapSlice(sub.PaymentHistory(), ToPaymentRecordDTO)
	if history == nil {
		history = []*PaymentRecordDTO{}
	}

	return &SubscriptionDTO{
		ID:                 sub.ID(),
		UserID:             sub.UserID(),
		Status:             sub.Status().String(),
		PlanType:           sub.PlanType().String(),
		Amount:             sub.Amount().AmountMinor(),
		AmountDisplay:      sub.Amount().String(),
		Currency:           sub.Amount().Currency(),
		StartDate:          sub.StartDate(),
		EndDate:            sub.EndDate(),
		NextBillingDate:    sub.NextBillingDate(),
		GracePeriodEndDate: sub.GracePeriodEndDate(),
		IsAccessBlocked:    sub.IsAccessBlocked(),
		LastPaymentDate:    sub.LastPaymentDate(),
		CancellationReason: sub.CancellationReason(),
		CancellationDate:   sub.CancellationDate(),
		ReactivationDate:   sub.ReactivationDate(),
		DaysRemaining:      biztime.DaysUntil(now, sub.EndDate()),
		GraceDaysRemaining: graceDays,
		PaymentHistory:     history,
	}
}

// ToAccessInfo renders an access decision for the client badge.
func ToAccessInfo(decision subscription.AccessDecision) AccessInfoDTO {
	info := AccessInfoDTO{Reason: decision.Reason.String()}
	switch decision.Reason {
	case subscription.ReasonActive:
		info.Message, info.Color = "Subscription active", "green"
	case subscription.ReasonGracePeriod:
		info.Message, info.Color = "Subscription expired, renew before the grace period ends to keep access", "orange"
	case subscription.ReasonExpired:
		info.Message, info.Color = "Subscription expired", "red"
	case subscription.ReasonAccessBlocked:
		info.Message, info.Color = "Access blocked for non-payment", "red"
	case subscription.ReasonSubscriptionInactive:
		info.Message, info.Color = "Subscription is not active", "gray"
	default:
		info.Message, info.Color = "No subscription", "gray"
	}
	return info
}

// DenialMessage is the human readable error for a denied gate decision.
func DenialMessage(reason subscription.AccessReason) string {
	switch reason {
	case subscription.ReasonAccessBlocked:
		return "Access blocked due to an unpaid subscription"
	case subscription.ReasonSubscriptionInactive:
		return "Your subscription is not active"
	case subscription.ReasonExpired:
		return "Your subscription has expired"
	default:
		return "An active subscription is required"
	}
}
