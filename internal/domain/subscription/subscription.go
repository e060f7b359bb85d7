package subscription

import (
	"fmt"
	"time"

	vo "github.com/abengolea/heartlink-sub000/internal/domain/subscription/valueobjects"
	"github.com/abengolea/heartlink-sub000/internal/shared/id"
)

// Subscription represents the subscription aggregate root.
// gracePeriodEndDate is stored explicitly so it can be extended independently of endDate.
type Subscription struct {
	id                 string
	userID             string
	status             vo.SubscriptionStatus
	planType           vo.PlanType
	amount             vo.Money
	startDate          time.Time
	endDate            time.Time
	nextBillingDate    time.Time
	gracePeriodEndDate *time.Time
	isAccessBlocked    bool
	lastPaymentDate    *time.Time
	cancellationReason *string
	cancellationDate   *time.Time
	reactivationDate   *time.Time
	paymentHistory     []*PaymentRecord
	version            int
	createdAt          time.Time
	updatedAt          time.Time
}

// NewSubscription creates an inactive subscription whose dates cover the
// prospective billing period starting at now.
func NewSubscription(userID string, planType vo.PlanType, amount vo.Money, now time.Time, grace time.Duration) (*Subscription, error) {
	if userID == "" {
		return nil, fmt.Errorf("user ID is required")
	}
	if !planType.IsValid() {
		return nil, fmt.Errorf("invalid plan type: %s", planType)
	}
	if grace <= 0 {
		return nil, ErrInvalidGracePeriod
	}

	subID, err := id.NewSubscriptionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate subscription ID: %w", err)
	}

	endDate := planType.Period(now)
	graceEnd := endDate.Add(grace)

	return &Subscription{
		id:                 subID,
		userID:             userID,
		status:             vo.StatusInactive,
		planType:           planType,
		amount:             amount,
		startDate:          now,
		endDate:            endDate,
		nextBillingDate:    endDate,
		gracePeriodEndDate: &graceEnd,
		version:            1,
		createdAt:          now,
		updatedAt:          now,
	}, nil
}

// SubscriptionReconstructParams carries persisted state into ReconstructSubscriptionWithParams.
type SubscriptionReconstructParams struct {
	ID                 string
	UserID             string
	Status             vo.SubscriptionStatus
	PlanType           vo.PlanType
	Amount             vo.Money
	StartDate          time.Time
	EndDate            time.Time
	NextBillingDate    time.Time
	GracePeriodEndDate *time.Time
	IsAccessBlocked    bool
	LastPaymentDate    *time.Time
	CancellationReason *string
	CancellationDate   *time.Time
	ReactivationDate   *time.Time
	PaymentHistory     []*PaymentRecord
	Version            int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ReconstructSubscriptionWithParams reconstructs a subscription from persistence
func ReconstructSubscriptionWithParams(p SubscriptionReconstructParams) (*Subscription, error) {
	if p.ID == "" {
		return nil, fmt.Errorf("subscription ID is required")
	}
	if p.UserID == "" {
		return nil, fmt.Errorf("user ID is required")
	}
	if !p.Status.IsValid() {
		return nil, fmt.Errorf("invalid subscription status: %s", p.Status)
	}
	if !p.PlanType.IsValid() {
		return nil, fmt.Errorf("invalid plan type: %s", p.PlanType)
	}

	history := make([]*PaymentRecord, len(p.PaymentHistory))
	copy(history, p.PaymentHistory)

	nextBilling := p.NextBillingDate
	if nextBilling.IsZero() {
		nextBilling = p.EndDate
	}

	return &Subscription{
		id:                 p.ID,
		userID:             p.UserID,
		status:             p.Status,
		planType:           p.PlanType,
		amount:             p.Amount,
		startDate:          p.StartDate,
		endDate:            p.EndDate,
		nextBillingDate:    nextBilling,
		gracePeriodEndDate: p.GracePeriodEndDate,
		isAccessBlocked:    p.IsAccessBlocked,
		lastPaymentDate:    p.LastPaymentDate,
		cancellationReason: p.CancellationReason,
		cancellationDate:   p.CancellationDate,
		reactivationDate:   p.ReactivationDate,
		paymentHistory:     history,
		version:            p.Version,
		createdAt:          p.CreatedAt,
		updatedAt:          p.UpdatedAt,
	}, nil
}

func (s *Subscription) ID() string {
	return s.id
}

func (s *Subscription) UserID() string {
	return s.userID
}

func (s *Subscription) Status() vo.SubscriptionStatus {
	return s.status
}

func (s *Subscription) PlanType() vo.PlanType {
	return s.planType
}

func (s *Subscription) Amount() vo.Money {
	return s.amount
}

func (s *Subscription) StartDate() time.Time {
	return s.startDate
}

func (s *Subscription) EndDate() time.Time {
	return s.endDate
}

// NextBillingDate is informational and equals EndDate.
func (s *Subscription) NextBillingDate() time.Time {
	return s.nextBillingDate
}

func (s *Subscription) GracePeriodEndDate() *time.Time {
	return s.gracePeriodEndDate
}

func (s *Subscription) IsAccessBlocked() bool {
	return s.isAccessBlocked
}

func (s *Subscription) LastPaymentDate() *time.Time {
	return s.lastPaymentDate
}

func (s *Subscription) CancellationReason() *string {
	return s.cancellationReason
}

func (s *Subscription) CancellationDate() *time.Time {
	return s.cancellationDate
}

func (s *Subscription) ReactivationDate() *time.Time {
	return s.reactivationDate
}

// Version returns the aggregate version, incremented on every state change
func (s *Subscription) Version() int {
	return s.version
}

func (s *Subscription) CreatedAt() time.Time {
	return s.createdAt
}

func (s *Subscription) UpdatedAt() time.Time {
	return s.updatedAt
}

// PaymentHistory returns the recorded payments in insertion order.
func (s *Subscription) PaymentHistory() []*PaymentRecord {
	history := make([]*PaymentRecord, len(s.paymentHistory))
	copy(history, s.paymentHistory)
	return history
}

// HasPayment reports whether a provider payment id is already in the history.
func (s *Subscription) HasPayment(paymentID string) bool {
	for _, p := range s.paymentHistory {
		if p.ID() == paymentID {
			return true
		}
	}
	return false
}

// AppendPayment adds a record to the history. Records are never edited.
func (s *Subscription) AppendPayment(record *PaymentRecord) error {
	if record == nil {
		return fmt.Errorf("payment record is required")
	}
	if record.SubscriptionID() != s.id {
		return fmt.Errorf("payment %s belongs to subscription %s, not %s", record.ID(), record.SubscriptionID(), s.id)
	}
	if s.HasPayment(record.ID()) {
		return ErrPaymentAlreadyRecorded
	}
	s.paymentHistory = append(s.paymentHistory, record)
	return nil
}

// ApplyApprovedPayment starts a fresh billing period at now and clears any block.
func (s *Subscription) ApplyApprovedPayment(now, paymentDate time.Time, grace time.Duration) error {
	if grace <= 0 {
		return ErrInvalidGracePeriod
	}
	if !s.status.CanTransitionTo(vo.StatusActive) {
		return ErrInvalidTransition(s.status.String(), vo.StatusActive.String())
	}

	if s.status == vo.StatusInactive {
		s.startDate = now
	}

	endDate := s.planType.Period(now)
	graceEnd := endDate.Add(grace)
	paid := paymentDate

	s.endDate = endDate
	s.nextBillingDate = endDate
	s.gracePeriodEndDate = &graceEnd
	s.status = vo.StatusActive
	s.isAccessBlocked = false
	s.lastPaymentDate = &paid
	s.touch(now)

	return nil
}

// BackfillGracePeriod sets gracePeriodEndDate from endDate when it was never
// recorded. It returns true when the field changed.
func (s *Subscription) BackfillGracePeriod(grace time.Duration) bool {
	if s.gracePeriodEndDate != nil || grace <= 0 {
		return false
	}
	graceEnd := s.endDate.Add(grace)
	s.gracePeriodEndDate = &graceEnd
	return true
}

// EffectiveGraceEnd returns the recorded grace end, or endDate plus grace
// when none was recorded.
func (s *Subscription) EffectiveGraceEnd(grace time.Duration) time.Time {
	if s.gracePeriodEndDate != nil {
		return *s.gracePeriodEndDate
	}
	if grace <= 0 {
		return s.endDate
	}
	return s.endDate.Add(grace)
}

// IsGraceExhausted reports whether now is past the grace window.
func (s *Subscription) IsGraceExhausted(now time.Time, grace time.Duration) bool {
	return now.After(s.EffectiveGraceEnd(grace))
}

// Suspend blocks access after the grace window. Cancelled subscriptions are
// suspended too; their cancellation fields remain as history.
func (s *Subscription) Suspend(now time.Time) error {
	if s.status == vo.StatusSuspended && s.isAccessBlocked {
		return nil
	}
	if s.status != vo.StatusSuspended && !s.status.CanTransitionTo(vo.StatusSuspended) {
		return ErrInvalidTransition(s.status.String(), vo.StatusSuspended.String())
	}

	s.status = vo.StatusSuspended
	s.isAccessBlocked = true
	s.touch(now)
	return nil
}

// Cancel records an explicit cancellation. Access ends immediately since the
// evaluator only grants access to active subscriptions.
func (s *Subscription) Cancel(reason string, now time.Time) error {
	if s.status == vo.StatusCancelled {
		return ErrAlreadyCancelled
	}
	if !s.status.CanTransitionTo(vo.StatusCancelled) {
		return ErrInvalidTransition(s.status.String(), vo.StatusCancelled.String())
	}

	cancelledAt := now
	s.status = vo.StatusCancelled
	s.cancellationDate = &cancelledAt
	if reason != "" {
		r := reason
		s.cancellationReason = &r
	}
	s.touch(now)
	return nil
}

// Reactivate restores a suspended or cancelled subscription without extending
// its dates. A lapsed period needs a payment instead.
func (s *Subscription) Reactivate(now time.Time, grace time.Duration) error {
	if s.status != vo.StatusSuspended && s.status != vo.StatusCancelled {
		return fmt.Errorf("%w: status is %s", ErrNotReactivatable, s.status)
	}
	if s.IsGraceExhausted(now, grace) {
		return ErrRenewalRequired
	}

	reactivatedAt := now
	s.status = vo.StatusActive
	s.isAccessBlocked = false
	s.reactivationDate = &reactivatedAt
	s.touch(now)
	return nil
}

func (s *Subscription) touch(now time.Time) {
	s.updatedAt = now
	s.version++
}

// Validate performs domain-level validation
func (s *Subscription) Validate() error {
	if s.userID == "" {
		return fmt.Errorf("user ID is required")
	}
	if !s.status.IsValid() {
		return fmt.Errorf("invalid status: %s", s.status)
	}
	if s.endDate.Before(s.startDate) {
		return fmt.Errorf("end date must be after start date")
	}
	if s.gracePeriodEndDate != nil && !s.gracePeriodEndDate.After(s.endDate) {
		return fmt.Errorf("grace period end must be after end date")
	}
	return nil
}
