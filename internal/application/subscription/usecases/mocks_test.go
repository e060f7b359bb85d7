package usecases

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/abengolea/heartlink-sub000/internal/application/payment/paymentgateway"
	"github.com/abengolea/heartlink-sub000/internal/domain/subscription"
	vo "github.com/abengolea/heartlink-sub000/internal/domain/subscription/valueobjects"
	"github.com/abengolea/heartlink-sub000/internal/domain/user"
)

// =====================================================================
// subscription repository
// =====================================================================

type mockSubscriptionRepository struct {
	CreateFunc              func(ctx context.Context, sub *subscription.Subscription) error
	GetByIDFunc             func(ctx context.Context, id string) (*subscription.Subscription, error)
	GetByUserIDFunc         func(ctx context.Context, userID string) (*subscription.Subscription, error)
	UpdateFunc              func(ctx context.Context, sub *subscription.Subscription) error
	FindExpiredFunc         func(ctx context.Context, now time.Time) ([]*subscription.Subscription, error)
	RecordPaymentFunc       func(ctx context.Context, sub *subscription.Subscription, record *subscription.PaymentRecord) error
	BackfillGracePeriodFunc func(ctx context.Context, sub *subscription.Subscription) error
	BlockIfExpiredFunc      func(ctx context.Context, sub *subscription.Subscription) (bool, error)
}

func (m *mockSubscriptionRepository) Create(ctx context.Context, sub *subscription.Subscription) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, sub)
	}
	return nil
}

func (m *mockSubscriptionRepository) GetByID(ctx context.Context, id string) (*subscription.Subscription, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockSubscriptionRepository) GetByUserID(ctx context.Context, userID string) (*subscription.Subscription, error) {
	if m.GetByUserIDFunc != nil {
		return m.GetByUserIDFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockSubscriptionRepository) Update(ctx context.Context, sub *subscription.Subscription) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, sub)
	}
	return nil
}

func (m *mockSubscriptionRepository) FindExpired(ctx context.Context, now time.Time) ([]*subscription.Subscription, error) {
	if m.FindExpiredFunc != nil {
		return m.FindExpiredFunc(ctx, now)
	}
	return nil, nil
}

func (m *mockSubscriptionRepository) RecordPayment(ctx context.Context, sub *subscription.Subscription, record *subscription.PaymentRecord) error {
	if m.RecordPaymentFunc != nil {
		return m.RecordPaymentFunc(ctx, sub, record)
	}
	return nil
}

func (m *mockSubscriptionRepository) BackfillGracePeriod(ctx context.Context, sub *subscription.Subscription) error {
	if m.BackfillGracePeriodFunc != nil {
		return m.BackfillGracePeriodFunc(ctx, sub)
	}
	return nil
}

func (m *mockSubscriptionRepository) BlockIfExpired(ctx context.Context, sub *subscription.Subscription) (bool, error) {
	if m.BlockIfExpiredFunc != nil {
		return m.BlockIfExpiredFunc(ctx, sub)
	}
	return true, nil
}

// memorySubscriptionStore is a stateful repository used by the scenario tests.
// Reads return copies so use cases cannot mutate stored state without a write.
type memorySubscriptionStore struct {
	mu       sync.Mutex
	byUser   map[string]*subscription.Subscription
	payments map[string]bool
}

func newMemorySubscriptionStore(subs ...*subscription.Subscription) *memorySubscriptionStore {
	s := &memorySubscriptionStore{
		byUser:   make(map[string]*subscription.Subscription),
		payments: make(map[string]bool),
	}
	for _, sub := range subs {
		s.byUser[sub.UserID()] = cloneSubscription(sub)
		for _, p := range sub.PaymentHistory() {
			s.payments[p.ID()] = true
		}
	}
	return s
}

func (s *memorySubscriptionStore) get(userID string) *subscription.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub, ok := s.byUser[userID]; ok {
		return cloneSubscription(sub)
	}
	return nil
}

func (s *memorySubscriptionStore) Create(_ context.Context, sub *subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byUser[sub.UserID()] = cloneSubscription(sub)
	return nil
}

func (s *memorySubscriptionStore) GetByID(_ context.Context, id string) (*subscription.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.byUser {
		if sub.ID() == id {
			return cloneSubscription(sub), nil
		}
	}
	return nil, nil
}

func (s *memorySubscriptionStore) GetByUserID(_ context.Context, userID string) (*subscription.Subscription, error) {
	return s.get(userID), nil
}

func (s *memorySubscriptionStore) Update(_ context.Context, sub *subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byUser[sub.UserID()] = cloneSubscription(sub)
	return nil
}

func (s *memorySubscriptionStore) FindExpired(_ context.Context, now time.Time) ([]*subscription.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*subscription.Subscription
	for _, sub := range s.byUser {
		if sub.EndDate().Before(now) && !sub.IsAccessBlocked() && sub.Status() != vo.StatusInactive {
			out = append(out, cloneSubscription(sub))
		}
	}
	return out, nil
}

func (s *memorySubscriptionStore) RecordPayment(_ context.Context, sub *subscription.Subscription, record *subscription.PaymentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.payments[record.ID()] {
		return subscription.ErrPaymentAlreadyRecorded
	}
	s.payments[record.ID()] = true
	if record.Status().IsApproved() {
		s.byUser[sub.UserID()] = cloneSubscription(sub)
		return nil
	}
	stored := s.byUser[sub.UserID()]
	if stored == nil {
		return nil
	}
	updated := cloneSubscription(stored)
	if err := updated.AppendPayment(record); err != nil {
		return err
	}
	s.byUser[sub.UserID()] = updated
	return nil
}

func (s *memorySubscriptionStore) BackfillGracePeriod(_ context.Context, sub *subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := s.byUser[sub.UserID()]
	if stored != nil && stored.GracePeriodEndDate() == nil {
		s.byUser[sub.UserID()] = cloneSubscription(sub)
	}
	return nil
}

func (s *memorySubscriptionStore) BlockIfExpired(_ context.Context, sub *subscription.Subscription) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := s.byUser[sub.UserID()]
	if stored == nil || !stored.EndDate().Equal(sub.EndDate()) || stored.IsAccessBlocked() {
		return false, nil
	}
	s.byUser[sub.UserID()] = cloneSubscription(sub)
	return true, nil
}

func cloneSubscription(sub *subscription.Subscription) *subscription.Subscription {
	clone, err := subscription.ReconstructSubscriptionWithParams(subscription.SubscriptionReconstructParams{
		ID:                 sub.ID(),
		UserID:             sub.UserID(),
		Status:             sub.Status(),
		PlanType:           sub.PlanType(),
		Amount:             sub.Amount(),
		StartDate:          sub.StartDate(),
		EndDate:            sub.EndDate(),
		NextBillingDate:    sub.NextBillingDate(),
		GracePeriodEndDate: sub.GracePeriodEndDate(),
		IsAccessBlocked:    sub.IsAccessBlocked(),
		LastPaymentDate:    sub.LastPaymentDate(),
		CancellationReason: sub.CancellationReason(),
		CancellationDate:   sub.CancellationDate(),
		ReactivationDate:   sub.ReactivationDate(),
		PaymentHistory:     sub.PaymentHistory(),
		Version:            sub.Version(),
		CreatedAt:          sub.CreatedAt(),
		UpdatedAt:          sub.UpdatedAt(),
	})
	if err != nil {
		panic(err)
	}
	return clone
}

// =====================================================================
// user repository
// =====================================================================

type mockUserRepository struct {
	mu                           sync.Mutex
	CreateFunc                   func(ctx context.Context, u *user.User) error
	GetByIDFunc                  func(ctx context.Context, id string) (*user.User, error)
	UpdateSubscriptionStatusFunc func(ctx context.Context, id string, status string) error
	mirror                       map[string]string
}

func (m *mockUserRepository) Create(ctx context.Context, u *user.User) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, u)
	}
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepository) UpdateSubscriptionStatus(ctx context.Context, id string, status string) error {
	m.mu.Lock()
	if m.mirror == nil {
		m.mirror = make(map[string]string)
	}
	m.mirror[id] = status
	m.mu.Unlock()
	if m.UpdateSubscriptionStatusFunc != nil {
		return m.UpdateSubscriptionStatusFunc(ctx, id, status)
	}
	return nil
}

func (m *mockUserRepository) mirrorOf(id string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mirror[id]
}

// =====================================================================
// collaborators
// =====================================================================

type mockGateway struct {
	GetPaymentFunc     func(ctx context.Context, paymentID string) (*paymentgateway.Payment, error)
	CreateCheckoutFunc func(ctx context.Context, req paymentgateway.CheckoutRequest) (*paymentgateway.CheckoutResponse, error)
}

func (m *mockGateway) GetPayment(ctx context.Context, paymentID string) (*paymentgateway.Payment, error) {
	if m.GetPaymentFunc != nil {
		return m.GetPaymentFunc(ctx, paymentID)
	}
	return nil, paymentgateway.ErrPaymentNotFound
}

func (m *mockGateway) CreateCheckout(ctx context.Context, req paymentgateway.CheckoutRequest) (*paymentgateway.CheckoutResponse, error) {
	if m.CreateCheckoutFunc != nil {
		return m.CreateCheckoutFunc(ctx, req)
	}
	return &paymentgateway.CheckoutResponse{PreferenceID: "pref-1", CheckoutURL: "https://checkout.example/pref-1"}, nil
}

type mockPaymentLock struct {
	mu         sync.Mutex
	held       map[string]bool
	AcquireErr error
	released   []string
}

func (m *mockPaymentLock) Acquire(_ context.Context, key string, _ time.Duration) (bool, error) {
	if m.AcquireErr != nil {
		return false, m.AcquireErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held == nil {
		m.held = make(map[string]bool)
	}
	if m.held[key] {
		return false, nil
	}
	m.held[key] = true
	return true, nil
}

func (m *mockPaymentLock) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, key)
	m.released = append(m.released, key)
	return nil
}

type mockPublisher struct {
	mu     sync.Mutex
	events []*subscription.SubscriptionChangedEvent
}

func (m *mockPublisher) Publish(_ context.Context, event *subscription.SubscriptionChangedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *mockPublisher) reasons() []subscription.ChangeReason {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]subscription.ChangeReason, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.Reason)
	}
	return out
}

type mockWebhookRepository struct {
	mu     sync.Mutex
	events []*subscription.WebhookEvent
}

func (m *mockWebhookRepository) Save(_ context.Context, event *subscription.WebhookEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

type mockMetrics struct {
	mu        sync.Mutex
	reconcile []string
	sweeps    int
	gates     []string
}

func (m *mockMetrics) ObserveReconcile(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reconcile = append(m.reconcile, outcome)
}

func (m *mockMetrics) ObserveSweep(_ *SweepReport, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweeps++
}

func (m *mockMetrics) ObserveGate(reason string, _ bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gates = append(m.gates, reason)
}

type mockCatalog struct {
	prices map[vo.PlanType]*PlanPrice
}

func (m *mockCatalog) Price(planType vo.PlanType) (*PlanPrice, error) {
	if p, ok := m.prices[planType]; ok {
		return p, nil
	}
	return nil, errors.New("plan not in catalog")
}

type passthroughSanitizer struct{}

func (passthroughSanitizer) PlainText(text string, maxLen int) string {
	if maxLen > 0 && len(text) > maxLen {
		return text[:maxLen]
	}
	return text
}

// =====================================================================
// transaction runner
// =====================================================================

type mockTransactionRunner struct {
	calls int
}

func (m *mockTransactionRunner) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	return fn(ctx)
}
