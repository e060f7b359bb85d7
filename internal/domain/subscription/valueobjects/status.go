package valueobjects

import "fmt"

type SubscriptionStatus string

const (
	StatusInactive  SubscriptionStatus = "inactive"
	StatusActive    SubscriptionStatus = "active"
	StatusSuspended SubscriptionStatus = "suspended"
	StatusCancelled SubscriptionStatus = "cancelled"
)

func (s SubscriptionStatus) String() string {
	return string(s)
}

func (s SubscriptionStatus) IsValid() bool {
	return ValidStatuses[s]
}

func (s SubscriptionStatus) CanTransitionTo(target SubscriptionStatus) bool {
	transitions := map[SubscriptionStatus][]SubscriptionStatus{
		StatusInactive:  {StatusActive, StatusCancelled},
		StatusActive:    {StatusActive, StatusSuspended, StatusCancelled},
		StatusSuspended: {StatusActive, StatusCancelled},
		StatusCancelled: {StatusActive, StatusSuspended},
	}

	allowed, exists := transitions[s]
	if !exists {
		return false
	}

	for _, allowedStatus := range allowed {
		if allowedStatus == target {
			return true
		}
	}
	return false
}

var ValidStatuses = map[SubscriptionStatus]bool{
	StatusInactive:  true,
	StatusActive:    true,
	StatusSuspended: true,
	StatusCancelled: true,
}

// NewSubscriptionStatus parses a persisted status value.
func NewSubscriptionStatus(s string) (SubscriptionStatus, error) {
	status := SubscriptionStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid subscription status: %s", s)
	}
	return status, nil
}
