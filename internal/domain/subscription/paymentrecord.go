package subscription

import (
	"fmt"
	"time"

	vo "github.com/abengolea/heartlink-sub000/internal/domain/subscription/valueobjects"
)

// PaymentRecord is one provider-confirmed payment. The provider payment id is
// the natural key; a record is never mutated after creation.
type PaymentRecord struct {
	id             string
	subscriptionID string
	amount         vo.Money
	status         vo.PaymentStatus
	paymentDate    time.Time
	paymentMethod  string
	failureReason  string
	createdAt      time.Time
}

func NewPaymentRecord(
	paymentID, subscriptionID string,
	amount vo.Money,
	status vo.PaymentStatus,
	paymentDate time.Time,
	paymentMethod, failureReason string,
	createdAt time.Time,
) (*PaymentRecord, error) {
	if paymentID == "" {
		return nil, fmt.Errorf("payment ID is required")
	}
	if subscriptionID == "" {
		return nil, fmt.Errorf("subscription ID is required")
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid payment status: %s", status)
	}

	return &PaymentRecord{
		id:             paymentID,
		subscriptionID: subscriptionID,
		amount:         amount,
		status:         status,
		paymentDate:    paymentDate,
		paymentMethod:  paymentMethod,
		failureReason:  failureReason,
		createdAt:      createdAt,
	}, nil
}

func (p *PaymentRecord) ID() string {
	return p.id
}

func (p *PaymentRecord) SubscriptionID() string {
	return p.subscriptionID
}

func (p *PaymentRecord) Amount() vo.Money {
	return p.amount
}

func (p *PaymentRecord) Status() vo.PaymentStatus {
	return p.status
}

func (p *PaymentRecord) PaymentDate() time.Time {
	return p.paymentDate
}

func (p *PaymentRecord) PaymentMethod() string {
	return p.paymentMethod
}

// FailureReason holds the provider's status detail for non-approved payments.
func (p *PaymentRecord) FailureReason() string {
	return p.failureReason
}

func (p *PaymentRecord) CreatedAt() time.Time {
	return p.createdAt
}
