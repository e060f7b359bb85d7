package subscription

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vo "github.com/abengolea/heartlink-sub000/internal/domain/subscription/valueobjects"
)

const testGrace = 10 * 24 * time.Hour

// --- helpers ---

var baseTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func timePtr(t time.Time) *time.Time {
	return &t
}

func reconstructSubscription(t *testing.T, status vo.SubscriptionStatus, endDate time.Time, graceEnd *time.Time, blocked bool) *Subscription {
	t.Helper()
	sub, err := ReconstructSubscriptionWithParams(SubscriptionReconstructParams{
		ID:                 "sub_test123",
		UserID:             "u123",
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

func newPayment(t *testing.T, sub *Subscription, paymentID string, status vo.PaymentStatus) *PaymentRecord {
	t.Helper()
	rec, err := NewPaymentRecord(paymentID, sub.ID(), vo.NewMoney(150000, "ARS"), status, baseTime, "visa", "", baseTime)
	require.NoError(t, err)
	return rec
}

// =====================================================================
// NewSubscription
// =====================================================================

func TestNewSubscription_ProspectiveDates(t *testing.T) {
	sub, err := NewSubscription("u123", vo.PlanTypeMonthly, vo.NewMoney(150000, "ARS"), baseTime, testGrace)
	require.NoError(t, err)

	assert.Contains(t, sub.ID(), "sub_")
	assert.Equal(t, vo.StatusInactive, sub.Status())
	assert.False(t, sub.IsAccessBlocked())
	assert.Equal(t, baseTime, sub.StartDate())
	assert.Equal(t, baseTime.AddDate(0, 1, 0), sub.EndDate())
	assert.Equal(t, sub.EndDate(), sub.NextBillingDate())
	require.NotNil(t, sub.GracePeriodEndDate())
	assert.Equal(t, sub.EndDate().Add(testGrace), *sub.GracePeriodEndDate())
	assert.NoError(t, sub.Validate())
}

func TestNewSubscription_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		userID string
		plan   vo.PlanType
		grace  time.Duration
	}{
		{name: "empty user", userID: "", plan: vo.PlanTypeMonthly, grace: testGrace},
		{name: "bad plan", userID: "u1", plan: "weekly", grace: testGrace},
		{name: "zero grace", userID: "u1", plan: vo.PlanTypeAnnual, grace: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub, err := NewSubscription(tt.userID, tt.plan, vo.NewMoney(100, "ARS"), baseTime, tt.grace)
			assert.Error(t, err)
			assert.Nil(t, sub)
		})
	}
}

// =====================================================================
// Payments
// =====================================================================

func TestApplyApprovedPayment_FromInactive(t *testing.T) {
	sub, err := NewSubscription("u123", vo.PlanTypeMonthly, vo.NewMoney(150000, "ARS"), baseTime, testGrace)
	require.NoError(t, err)

	now := baseTime.Add(2 * time.Hour)
	require.NoError(t, sub.ApplyApprovedPayment(now, now.Add(-time.Minute), testGrace))

	assert.Equal(t, vo.StatusActive, sub.Status())
	assert.False(t, sub.IsAccessBlocked())
	assert.Equal(t, now, sub.StartDate())
	assert.Equal(t, now.AddDate(0, 1, 0), sub.EndDate())
	assert.Equal(t, now.AddDate(0, 1, 0).Add(testGrace), *sub.GracePeriodEndDate())
	require.NotNil(t, sub.LastPaymentDate())
	assert.Equal(t, now.Add(-time.Minute), *sub.LastPaymentDate())
}

func TestApplyApprovedPayment_ClearsBlock(t *testing.T) {
	end := baseTime.AddDate(0, 0, -20)
	sub := reconstructSubscription(t, vo.StatusSuspended, end, timePtr(end.Add(testGrace)), true)

	require.NoError(t, sub.ApplyApprovedPayment(baseTime, baseTime, testGrace))

	assert.Equal(t, vo.StatusActive, sub.Status())
	assert.False(t, sub.IsAccessBlocked())
	assert.Equal(t, end.AddDate(0, -1, 0), sub.StartDate(), "renewal keeps the original start date")
	assert.Equal(t, baseTime.AddDate(0, 1, 0), sub.EndDate())
}

func TestApplyApprovedPayment_Annual(t *testing.T) {
	sub, err := ReconstructSubscriptionWithParams(SubscriptionReconstructParams{
		ID: "sub_a", UserID: "u1", Status: vo.StatusActive, PlanType: vo.PlanTypeAnnual,
		StartDate: baseTime, EndDate: baseTime.AddDate(1, 0, 0),
	})
	require.NoError(t, err)

	require.NoError(t, sub.ApplyApprovedPayment(baseTime, baseTime, testGrace))
	assert.Equal(t, baseTime.AddDate(1, 0, 0), sub.EndDate())
}

func TestAppendPayment(t *testing.T) {
	sub := reconstructSubscription(t, vo.StatusActive, baseTime, nil, false)

	require.NoError(t, sub.AppendPayment(newPayment(t, sub, "pay-1", vo.PaymentStatusApproved)))
	assert.True(t, sub.HasPayment("pay-1"))
	assert.False(t, sub.HasPayment("pay-2"))

	err := sub.AppendPayment(newPayment(t, sub, "pay-1", vo.PaymentStatusApproved))
	assert.ErrorIs(t, err, ErrPaymentAlreadyRecorded)
	assert.Len(t, sub.PaymentHistory(), 1)

	other, err := NewPaymentRecord("pay-3", "sub_other", vo.NewMoney(1, "ARS"), vo.PaymentStatusPending, baseTime, "", "", baseTime)
	require.NoError(t, err)
	assert.Error(t, sub.AppendPayment(other))
}

// =====================================================================
// Sweep transitions
// =====================================================================

func TestBackfillGracePeriod(t *testing.T) {
	end := baseTime.AddDate(0, 0, -1)
	sub := reconstructSubscription(t, vo.StatusActive, end, nil, false)

	assert.True(t, sub.BackfillGracePeriod(testGrace))
	require.NotNil(t, sub.GracePeriodEndDate())
	assert.Equal(t, end.Add(testGrace), *sub.GracePeriodEndDate())

	assert.False(t, sub.BackfillGracePeriod(testGrace), "second backfill is a no-op")
}

func TestSuspend(t *testing.T) {
	t.Run("active becomes suspended and blocked", func(t *testing.T) {
		sub := reconstructSubscription(t, vo.StatusActive, baseTime.AddDate(0, 0, -11), timePtr(baseTime.AddDate(0, 0, -1)), false)
		require.NoError(t, sub.Suspend(baseTime))
		assert.Equal(t, vo.StatusSuspended, sub.Status())
		assert.True(t, sub.IsAccessBlocked())
	})

	t.Run("cancelled becomes suspended and blocked", func(t *testing.T) {
		sub := reconstructSubscription(t, vo.StatusCancelled, baseTime.AddDate(0, 0, -11), nil, false)
		require.NoError(t, sub.Suspend(baseTime))
		assert.Equal(t, vo.StatusSuspended, sub.Status())
		assert.True(t, sub.IsAccessBlocked())
	})

	t.Run("inactive cannot be suspended", func(t *testing.T) {
		sub := reconstructSubscription(t, vo.StatusInactive, baseTime.AddDate(0, 0, -11), nil, false)
		assert.ErrorIs(t, sub.Suspend(baseTime), ErrInvalidStatusTransition)
		assert.False(t, sub.IsAccessBlocked())
	})

	t.Run("already suspended is a no-op", func(t *testing.T) {
		sub := reconstructSubscription(t, vo.StatusSuspended, baseTime.AddDate(0, 0, -11), nil, true)
		version := sub.Version()
		require.NoError(t, sub.Suspend(baseTime))
		assert.Equal(t, version, sub.Version())
	})

	t.Run("inactive cannot be suspended", func(t *testing.T) {
		sub := reconstructSubscription(t, vo.StatusInactive, baseTime.AddDate(0, 0, -11), nil, false)
		assert.ErrorIs(t, sub.Suspend(baseTime), ErrInvalidStatusTransition)
	})
}

// =====================================================================
// Cancel / Reactivate
// =====================================================================

func TestCancel(t *testing.T) {
	sub := reconstructSubscription(t, vo.StatusActive, baseTime.AddDate(0, 0, 10), nil, false)

	require.NoError(t, sub.Cancel("too expensive", baseTime))
	assert.Equal(t, vo.StatusCancelled, sub.Status())
	require.NotNil(t, sub.CancellationReason())
	assert.Equal(t, "too expensive", *sub.CancellationReason())
	assert.Equal(t, baseTime, *sub.CancellationDate())

	assert.ErrorIs(t, sub.Cancel("again", baseTime), ErrAlreadyCancelled)
}

func TestReactivate(t *testing.T) {
	t.Run("suspended within grace", func(t *testing.T) {
		end := baseTime.AddDate(0, 0, -2)
		sub := reconstructSubscription(t, vo.StatusSuspended, end, timePtr(end.Add(testGrace)), true)

		require.NoError(t, sub.Reactivate(baseTime, testGrace))
		assert.Equal(t, vo.StatusActive, sub.Status())
		assert.False(t, sub.IsAccessBlocked())
		assert.Equal(t, end, sub.EndDate(), "dates are not extended")
		assert.Equal(t, baseTime, *sub.ReactivationDate())
	})

	t.Run("cancelled before end date", func(t *testing.T) {
		sub := reconstructSubscription(t, vo.StatusCancelled, baseTime.AddDate(0, 0, 5), nil, false)
		require.NoError(t, sub.Reactivate(baseTime, testGrace))
		assert.Equal(t, vo.StatusActive, sub.Status())
	})

	t.Run("lapsed period requires payment", func(t *testing.T) {
		end := baseTime.AddDate(0, 0, -30)
		sub := reconstructSubscription(t, vo.StatusSuspended, end, timePtr(end.Add(testGrace)), true)
		assert.ErrorIs(t, sub.Reactivate(baseTime, testGrace), ErrRenewalRequired)
		assert.True(t, sub.IsAccessBlocked())
	})

	t.Run("active is not reactivatable", func(t *testing.T) {
		sub := reconstructSubscription(t, vo.StatusActive, baseTime.AddDate(0, 0, 5), nil, false)
		assert.ErrorIs(t, sub.Reactivate(baseTime, testGrace), ErrNotReactivatable)
	})
}
