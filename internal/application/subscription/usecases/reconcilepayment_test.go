package usecases

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abengolea/heartlink-sub000/internal/application/payment/paymentgateway"
	"github.com/abengolea/heartlink-sub000/internal/domain/subscription"
	vo "github.com/abengolea/heartlink-sub000/internal/domain/subscription/valueobjects"
	apperrors "github.com/abengolea/heartlink-sub000/internal/shared/errors"
	"github.com/abengolea/heartlink-sub000/internal/shared/logger"
)

const testGrace = 10 * 24 * time.Hour

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func timePtr(t time.Time) *time.Time {
	return &t
}

func newTestSubscription(t *testing.T, userID string, status vo.SubscriptionStatus, endDate time.Time, graceEnd *time.Time, blocked bool) *subscription.Subscription {
	t.Helper()
	sub, err := subscription.ReconstructSubscriptionWithParams(subscription.SubscriptionReconstructParams{
		ID:                 "sub_" + userID,
		UserID:             userID,
		Status:             status,
		PlanType:           vo.PlanTypeMonthly,
		Amount:             vo.NewMoney(150000, "ARS"),
		StartDate:          endDate.AddDate(0, -1, 0),
		EndDate:            endDate,
		GracePeriodEndDate: graceEnd,
		IsAccessBlocked:    blocked,
		Version:            1,
		CreatedAt:          endDate.AddDate(0, -1, 0),
		UpdatedAt:          endDate.AddDate(0, -1, 0),
	})
	require.NoError(t, err)
	return sub
}

func approvedPayment(id, reference string) *paymentgateway.Payment {
	approvedAt := fixedNow.Add(-time.Minute)
	return &paymentgateway.Payment{
		ID:                id,
		Status:            "approved",
		StatusDetail:      "accredited",
		ExternalReference: reference,
		TransactionAmount: 1500,
		CurrencyID:        "ARS",
		PaymentMethodID:   "visa",
		DateCreated:       fixedNow.Add(-2 * time.Minute),
		DateApproved:      &approvedAt,
	}
}

type reconcileFixture struct {
	store     *memorySubscriptionStore
	users     *mockUserRepository
	gateway   *mockGateway
	lock      *mockPaymentLock
	publisher *mockPublisher
	webhooks  *mockWebhookRepository
	metrics   *mockMetrics
	uc        *ReconcilePaymentUseCase
}

func newReconcileFixture(store *memorySubscriptionStore, payments ...*paymentgateway.Payment) *reconcileFixture {
	byID := make(map[string]*paymentgateway.Payment)
	for _, p := range payments {
		byID[p.ID] = p
	}

	f := &reconcileFixture{
		store: store,
		users: &mockUserRepository{},
		gateway: &mockGateway{
			GetPaymentFunc: func(ctx context.Context, paymentID string) (*paymentgateway.Payment, error) {
				if p, ok := byID[paymentID]; ok {
					return p, nil
				}
				return nil, paymentgateway.ErrPaymentNotFound
			},
		},
		lock:      &mockPaymentLock{},
		publisher: &mockPublisher{},
		webhooks:  &mockWebhookRepository{},
		metrics:   &mockMetrics{},
	}

	f.uc = NewReconcilePaymentUseCase(store, f.users, f.gateway, f.lock, testGrace, logger.NewNopLogger())
	f.uc.SetEventPublisher(f.publisher)
	f.uc.SetWebhookRepository(f.webhooks)
	f.uc.SetMetrics(f.metrics)
	f.uc.now = func() time.Time { return fixedNow }
	return f
}

func paymentCommand(paymentID string) ReconcilePaymentCommand {
	return ReconcilePaymentCommand{
		EventID:    "evt-" + paymentID,
		Type:       "payment",
		Action:     "payment.updated",
		PaymentID:  paymentID,
		RawPayload: []byte(`{"type":"payment","data":{"id":"` + paymentID + `"}}`),
	}
}

// Scenario C
func TestReconcilePayment_ApprovedRenewsSubscription(t *testing.T) {
	sub := newTestSubscription(t, "u123", vo.StatusInactive, fixedNow.AddDate(0, 1, 0), nil, false)
	store := newMemorySubscriptionStore(sub)
	f := newReconcileFixture(store, approvedPayment("pay-1", "subscription_u123_monthly_1700000000000"))

	result, err := f.uc.Execute(context.Background(), paymentCommand("pay-1"))
	require.NoError(t, err)

	assert.Equal(t, subscription.WebhookOutcomeApplied, result.Outcome)
	wantEnd := fixedNow.AddDate(0, 1, 0)
	require.NotNil(t, result.NewEndDate)
	assert.Equal(t, wantEnd, *result.NewEndDate)

	stored := store.get("u123")
	assert.Equal(t, vo.StatusActive, stored.Status())
	assert.Equal(t, wantEnd, stored.EndDate())
	require.NotNil(t, stored.GracePeriodEndDate())
	assert.Equal(t, wantEnd.Add(testGrace), *stored.GracePeriodEndDate())
	assert.False(t, stored.IsAccessBlocked())
	require.NotNil(t, stored.LastPaymentDate())
	assert.Equal(t, fixedNow.Add(-time.Minute), *stored.LastPaymentDate())
	require.Len(t, stored.PaymentHistory(), 1)
	assert.Equal(t, vo.PaymentStatusApproved, stored.PaymentHistory()[0].Status())
	assert.Equal(t, int64(150000), stored.PaymentHistory()[0].Amount().AmountMinor())

	assert.Equal(t, "active", f.users.mirrorOf("u123"))
	assert.Equal(t, []subscription.ChangeReason{subscription.ChangePaymentApproved}, f.publisher.reasons())
	assert.Equal(t, []string{"payment:pay-1"}, f.lock.released)
	require.Len(t, f.webhooks.events, 1)
	assert.Equal(t, subscription.WebhookOutcomeApplied, f.webhooks.events[0].Outcome)
}

func TestReconcilePayment_ApprovedClearsBlock(t *testing.T) {
	end := fixedNow.AddDate(0, 0, -20)
	sub := newTestSubscription(t, "u123", vo.StatusSuspended, end, timePtr(end.Add(testGrace)), true)
	store := newMemorySubscriptionStore(sub)
	f := newReconcileFixture(store, approvedPayment("pay-9", "subscription_u123_monthly_1700000000000"))

	_, err := f.uc.Execute(context.Background(), paymentCommand("pay-9"))
	require.NoError(t, err)

	stored := store.get("u123")
	assert.Equal(t, vo.StatusActive, stored.Status())
	assert.False(t, stored.IsAccessBlocked())
	assert.True(t, subscription.EvaluateAccess(stored, fixedNow, testGrace).HasAccess)
}

// Scenario D
func TestReconcilePayment_InvalidReference(t *testing.T) {
	sub := newTestSubscription(t, "u123", vo.StatusActive, fixedNow.AddDate(0, 0, 3), nil, false)
	store := newMemorySubscriptionStore(sub)
	f := newReconcileFixture(store, approvedPayment("pay-2", "u123_monthly_1700000000000"))

	result, err := f.uc.Execute(context.Background(), paymentCommand("pay-2"))
	require.Error(t, err)
	assert.Nil(t, result)

	appErr := apperrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrorTypeInvalidReference, appErr.Type)
	assert.Equal(t, 400, appErr.Code)

	stored := store.get("u123")
	assert.Empty(t, stored.PaymentHistory())
	assert.Equal(t, sub.EndDate(), stored.EndDate())
	assert.Empty(t, f.publisher.reasons())
	require.Len(t, f.webhooks.events, 1)
	assert.Equal(t, subscription.WebhookOutcomeFailed, f.webhooks.events[0].Outcome)
	assert.NotEmpty(t, f.webhooks.events[0].ErrorMessage)
}

// Scenario E
func TestReconcilePayment_DuplicateDeliveryIsIdempotent(t *testing.T) {
	sub := newTestSubscription(t, "u123", vo.StatusActive, fixedNow.AddDate(0, 0, 3), nil, false)
	store := newMemorySubscriptionStore(sub)
	f := newReconcileFixture(store, approvedPayment("pay-3", "subscription_u123_monthly_1700000000000"))

	first, err := f.uc.Execute(context.Background(), paymentCommand("pay-3"))
	require.NoError(t, err)
	assert.Equal(t, subscription.WebhookOutcomeApplied, first.Outcome)
	endAfterFirst := store.get("u123").EndDate()

	// a later delivery must not extend the period again
	f.uc.now = func() time.Time { return fixedNow.Add(time.Hour) }
	second, err := f.uc.Execute(context.Background(), paymentCommand("pay-3"))
	require.NoError(t, err)
	assert.Equal(t, subscription.WebhookOutcomeAlreadyProcessed, second.Outcome)

	stored := store.get("u123")
	assert.Len(t, stored.PaymentHistory(), 1)
	assert.Equal(t, endAfterFirst, stored.EndDate())
	assert.Equal(t, []string{"applied", "already_processed"}, f.metrics.reconcile)
}

func TestReconcilePayment_ConcurrentInsertRace(t *testing.T) {
	sub := newTestSubscription(t, "u123", vo.StatusActive, fixedNow.AddDate(0, 0, 3), nil, false)
	repo := &mockSubscriptionRepository{
		GetByUserIDFunc: func(ctx context.Context, userID string) (*subscription.Subscription, error) {
			return cloneSubscription(sub), nil
		},
		RecordPaymentFunc: func(ctx context.Context, s *subscription.Subscription, r *subscription.PaymentRecord) error {
			return subscription.ErrPaymentAlreadyRecorded
		},
	}
	users := &mockUserRepository{}
	gw := &mockGateway{GetPaymentFunc: func(ctx context.Context, id string) (*paymentgateway.Payment, error) {
		return approvedPayment(id, "subscription_u123_monthly_1"), nil
	}}

	uc := NewReconcilePaymentUseCase(repo, users, gw, &mockPaymentLock{}, testGrace, logger.NewNopLogger())
	uc.now = func() time.Time { return fixedNow }

	result, err := uc.Execute(context.Background(), paymentCommand("pay-4"))
	require.NoError(t, err)
	assert.Equal(t, subscription.WebhookOutcomeAlreadyProcessed, result.Outcome)
	assert.Empty(t, users.mirrorOf("u123"), "mirror untouched when nothing was applied")
}

func TestReconcilePayment_LockHeldByOtherDelivery(t *testing.T) {
	sub := newTestSubscription(t, "u123", vo.StatusActive, fixedNow.AddDate(0, 0, 3), nil, false)
	store := newMemorySubscriptionStore(sub)
	f := newReconcileFixture(store, approvedPayment("pay-5", "subscription_u123_monthly_1"))
	f.lock.held = map[string]bool{"payment:pay-5": true}

	_, err := f.uc.Execute(context.Background(), paymentCommand("pay-5"))
	require.Error(t, err)
	assert.True(t, apperrors.IsConflictError(err))
	assert.Empty(t, store.get("u123").PaymentHistory())
}

func TestReconcilePayment_LockBackendDownStillProcesses(t *testing.T) {
	sub := newTestSubscription(t, "u123", vo.StatusActive, fixedNow.AddDate(0, 0, 3), nil, false)
	store := newMemorySubscriptionStore(sub)
	f := newReconcileFixture(store, approvedPayment("pay-6", "subscription_u123_monthly_1"))
	f.lock.AcquireErr = errors.New("redis: connection refused")

	result, err := f.uc.Execute(context.Background(), paymentCommand("pay-6"))
	require.NoError(t, err)
	assert.Equal(t, subscription.WebhookOutcomeApplied, result.Outcome)
	assert.Empty(t, f.lock.released)
}

func TestReconcilePayment_NonApprovedRecordsOnly(t *testing.T) {
	tests := []struct {
		providerStatus string
		wantStatus     vo.PaymentStatus
	}{
		{providerStatus: "rejected", wantStatus: vo.PaymentStatusRejected},
		{providerStatus: "cancelled", wantStatus: vo.PaymentStatusCancelled},
		{providerStatus: "in_process", wantStatus: vo.PaymentStatusPending},
		{providerStatus: "pending", wantStatus: vo.PaymentStatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.providerStatus, func(t *testing.T) {
			end := fixedNow.AddDate(0, 0, -2)
			sub := newTestSubscription(t, "u123", vo.StatusActive, end, timePtr(end.Add(testGrace)), false)
			store := newMemorySubscriptionStore(sub)

			p := approvedPayment("pay-r", "subscription_u123_monthly_1")
			p.Status = tt.providerStatus
			p.StatusDetail = "cc_rejected_insufficient_amount"
			p.DateApproved = nil
			f := newReconcileFixture(store, p)

			result, err := f.uc.Execute(context.Background(), paymentCommand("pay-r"))
			require.NoError(t, err)
			assert.Equal(t, subscription.WebhookOutcomeRecorded, result.Outcome)
			assert.Nil(t, result.NewEndDate)

			stored := store.get("u123")
			assert.Equal(t, vo.StatusActive, stored.Status())
			assert.Equal(t, end, stored.EndDate())
			assert.False(t, stored.IsAccessBlocked())
			require.Len(t, stored.PaymentHistory(), 1)
			rec := stored.PaymentHistory()[0]
			assert.Equal(t, tt.wantStatus, rec.Status())
			assert.Equal(t, "cc_rejected_insufficient_amount", rec.FailureReason())
			assert.Equal(t, p.DateCreated, rec.PaymentDate())
			assert.Empty(t, f.users.mirrorOf("u123"))
			assert.Empty(t, f.publisher.reasons())
		})
	}
}

// sweptAfterRead blocks the stored subscription right after handing out a
// snapshot, as a sweep running between the reconcile read and write would.
type sweptAfterRead struct {
	*memorySubscriptionStore
}

func (s sweptAfterRead) GetByUserID(ctx context.Context, userID string) (*subscription.Subscription, error) {
	snapshot, err := s.memorySubscriptionStore.GetByUserID(ctx, userID)
	if err != nil || snapshot == nil {
		return snapshot, err
	}
	current := s.get(userID)
	if err := current.Suspend(fixedNow); err != nil {
		return nil, err
	}
	if _, err := s.BlockIfExpired(ctx, current); err != nil {
		return nil, err
	}
	return snapshot, nil
}

func TestReconcilePayment_RejectedPaymentKeepsConcurrentBlock(t *testing.T) {
	end := fixedNow.AddDate(0, 0, -15)
	store := newMemorySubscriptionStore(newTestSubscription(t, "u123", vo.StatusActive, end, timePtr(end.Add(testGrace)), false))

	p := approvedPayment("pay-late", "subscription_u123_monthly_1")
	p.Status = "rejected"
	p.DateApproved = nil
	f := newReconcileFixture(store, p)
	f.uc.subscriptionRepo = sweptAfterRead{store}

	result, err := f.uc.Execute(context.Background(), paymentCommand("pay-late"))
	require.NoError(t, err)
	assert.Equal(t, subscription.WebhookOutcomeRecorded, result.Outcome)

	stored := store.get("u123")
	assert.Equal(t, vo.StatusSuspended, stored.Status())
	assert.True(t, stored.IsAccessBlocked())
	assert.True(t, stored.HasPayment("pay-late"))
}

func TestReconcilePayment_IgnoresNonPaymentTopics(t *testing.T) {
	f := newReconcileFixture(newMemorySubscriptionStore())
	f.gateway.GetPaymentFunc = func(ctx context.Context, paymentID string) (*paymentgateway.Payment, error) {
		t.Fatal("gateway must not be called for ignored topics")
		return nil, nil
	}

	result, err := f.uc.Execute(context.Background(), ReconcilePaymentCommand{EventID: "e1", Type: "merchant_order", PaymentID: "123"})
	require.NoError(t, err)
	assert.Equal(t, subscription.WebhookOutcomeIgnored, result.Outcome)
	assert.Equal(t, []string{"ignored"}, f.metrics.reconcile)
}

func TestReconcilePayment_SubscriptionNotFound(t *testing.T) {
	store := newMemorySubscriptionStore()
	f := newReconcileFixture(store, approvedPayment("pay-7", "subscription_ghost_monthly_1"))

	_, err := f.uc.Execute(context.Background(), paymentCommand("pay-7"))
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFoundError(err))
	assert.Nil(t, store.get("ghost"), "no subscription is fabricated")
}

func TestReconcilePayment_GatewayErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{name: "not found", err: paymentgateway.ErrPaymentNotFound, wantCode: 404},
		{name: "circuit open", err: paymentgateway.ErrGatewayUnavailable, wantCode: 503},
		{name: "other", err: errors.New("boom"), wantCode: 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newReconcileFixture(newMemorySubscriptionStore())
			f.gateway.GetPaymentFunc = func(ctx context.Context, paymentID string) (*paymentgateway.Payment, error) {
				return nil, tt.err
			}

			_, err := f.uc.Execute(context.Background(), paymentCommand("x"))
			appErr := apperrors.GetAppError(err)
			require.NotNil(t, appErr)
			assert.Equal(t, tt.wantCode, appErr.Code)
		})
	}
}

func TestReconcilePayment_MissingPaymentID(t *testing.T) {
	f := newReconcileFixture(newMemorySubscriptionStore())
	_, err := f.uc.Execute(context.Background(), ReconcilePaymentCommand{Type: "payment"})
	assert.True(t, apperrors.IsValidationError(err))
}
