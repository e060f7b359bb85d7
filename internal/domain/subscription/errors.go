package subscription

import (
	"errors"
	"fmt"
)

var (
	ErrSubscriptionNotFound     = errors.New("subscription not found")
	ErrInvalidReference         = errors.New("invalid payment reference")
	ErrPaymentAlreadyRecorded   = errors.New("payment already recorded")
	ErrInvalidStatusTransition  = errors.New("invalid status transition")
	ErrAlreadyCancelled         = errors.New("subscription already cancelled")
	ErrNotReactivatable         = errors.New("subscription is not suspended or cancelled")
	ErrRenewalRequired          = errors.New("paid period has lapsed, a new payment is required")
	ErrActiveSubscriptionExists = errors.New("user already has an active subscription")
	ErrInvalidGracePeriod       = errors.New("grace period must be positive")
	ErrPlanChangeInGrace        = errors.New("renew the current plan before changing plans")
)

func ErrInvalidTransition(from, to string) error {
	return fmt.Errorf("%w: from %s to %s", ErrInvalidStatusTransition, from, to)
}

func errInvalidReference(token, reason string) error {
	return fmt.Errorf("%w: %q: %s", ErrInvalidReference, token, reason)
}
