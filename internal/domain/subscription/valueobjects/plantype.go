package valueobjects

import (
	"fmt"
	"time"
)

// PlanType represents the billing period of a subscription plan
type PlanType string

const (
	PlanTypeMonthly PlanType = "monthly"
	PlanTypeAnnual  PlanType = "annual"
)

// IsValid checks if the plan type is valid
func (pt PlanType) IsValid() bool {
	return pt == PlanTypeMonthly || pt == PlanTypeAnnual
}

// String returns the string representation of the plan type
func (pt PlanType) String() string {
	return string(pt)
}

// NewPlanType creates a new PlanType from a string
func NewPlanType(s string) (PlanType, error) {
	pt := PlanType(s)
	if !pt.IsValid() {
		return "", fmt.Errorf("invalid plan type: %s, must be 'monthly' or 'annual'", s)
	}
	return pt, nil
}

// Period returns the end of one billing period starting at from.
// Calendar arithmetic follows time.AddDate, so Jan 31 + 1 month is Mar 3 (or 2).
func (pt PlanType) Period(from time.Time) time.Time {
	if pt == PlanTypeAnnual {
		return from.AddDate(1, 0, 0)
	}
	return from.AddDate(0, 1, 0)
}
