package subscription

import (
	"time"

	vo "github.com/abengolea/heartlink-sub000/internal/domain/subscription/valueobjects"
)

// AccessReason explains an access decision.
type AccessReason string

const (
	ReasonNoSubscription       AccessReason = "no_subscription"
	ReasonAccessBlocked        AccessReason = "access_blocked"
	ReasonSubscriptionInactive AccessReason = "subscription_inactive"
	ReasonActive               AccessReason = "active"
	ReasonGracePeriod          AccessReason = "grace_period"
	ReasonExpired              AccessReason = "expired"
)

func (r AccessReason) String() string {
	return string(r)
}

// AccessDecision is the result of EvaluateAccess.
type AccessDecision struct {
	HasAccess bool
	Reason    AccessReason
}

// InGracePeriod reports whether access was granted only by the grace window.
func (d AccessDecision) InGracePeriod() bool {
	return d.HasAccess && d.Reason == ReasonGracePeriod
}

// EvaluateAccess decides whether sub grants access at now. The rules are
// checked in order and the first match wins. It never reads the clock.
// grace is the configured window applied when the record has no grace end
// yet, so the decision does not depend on whether the sweeper has backfilled it.
func EvaluateAccess(sub *Subscription, now time.Time, grace time.Duration) AccessDecision {
	switch {
	case sub == nil:
		return AccessDecision{HasAccess: false, Reason: ReasonNoSubscription}
	case sub.isAccessBlocked:
		return AccessDecision{HasAccess: false, Reason: ReasonAccessBlocked}
	case sub.status != vo.StatusActive:
		return AccessDecision{HasAccess: false, Reason: ReasonSubscriptionInactive}
	case !now.After(sub.endDate):
		return AccessDecision{HasAccess: true, Reason: ReasonActive}
	case !now.After(sub.EffectiveGraceEnd(grace)):
		return AccessDecision{HasAccess: true, Reason: ReasonGracePeriod}
	default:
		return AccessDecision{HasAccess: false, Reason: ReasonExpired}
	}
}
