package paymentgateway

import (
	"context"
	"errors"
	"time"
)

// ErrPaymentNotFound is returned when the provider has no payment with the given id.
var ErrPaymentNotFound = errors.New("payment not found at provider")

// ErrGatewayUnavailable is returned while the provider client is failing fast.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// Gateway defines the payment provider operations the billing core depends on.
type Gateway interface {
	// GetPayment fetches the payment resource referenced by a webhook notification.
	GetPayment(ctx context.Context, paymentID string) (*Payment, error)
	// CreateCheckout registers a checkout preference carrying the correlation token.
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutResponse, error)
}

// Payment is the provider's view of a single payment.
// TransactionAmount is a decimal in major units exactly as the provider reports it.
type Payment struct {
	ID                string
	Status            string
	StatusDetail      string
	ExternalReference string
	TransactionAmount float64
	CurrencyID        string
	PaymentMethodID   string
	DateCreated       time.Time
	DateApproved      *time.Time
}

// PaidAt returns the approval date when known, otherwise the creation date.
func (p *Payment) PaidAt() time.Time {
	if p.DateApproved != nil && !p.DateApproved.IsZero() {
		return *p.DateApproved
	}
	return p.DateCreated
}

// CheckoutRequest contains the data needed to create a checkout preference
type CheckoutRequest struct {
	ExternalReference string
	Title             string
	AmountMinor       int64 // Amount in smallest currency unit
	Currency          string
	PayerEmail        string
	NotificationURL   string
	SuccessURL        string
	FailureURL        string
	PendingURL        string
}

type CheckoutResponse struct {
	PreferenceID string
	CheckoutURL  string
}
