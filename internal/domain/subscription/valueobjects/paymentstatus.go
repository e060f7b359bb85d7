package valueobjects

import "strings"

// PaymentStatus is the outcome reported by the payment provider for a single payment.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusApproved  PaymentStatus = "approved"
	PaymentStatusRejected  PaymentStatus = "rejected"
	PaymentStatusCancelled PaymentStatus = "cancelled"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

var validPaymentStatuses = map[PaymentStatus]bool{
	PaymentStatusPending:   true,
	PaymentStatusApproved:  true,
	PaymentStatusRejected:  true,
	PaymentStatusCancelled: true,
	PaymentStatusRefunded:  true,
}

func (s PaymentStatus) String() string {
	return string(s)
}

func (s PaymentStatus) IsValid() bool {
	return validPaymentStatuses[s]
}

func (s PaymentStatus) IsApproved() bool {
	return s == PaymentStatusApproved
}

// PaymentStatusFromProvider maps a provider status string onto PaymentStatus.
// Unknown values map to pending so they are recorded without billing effects.
func PaymentStatusFromProvider(raw string) PaymentStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "approved":
		return PaymentStatusApproved
	case "rejected":
		return PaymentStatusRejected
	case "cancelled", "canceled":
		return PaymentStatusCancelled
	case "refunded", "charged_back":
		return PaymentStatusRefunded
	default:
		// pending, in_process, in_mediation, authorized
		return PaymentStatusPending
	}
}
