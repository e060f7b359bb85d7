package usecases

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abengolea/heartlink-sub000/internal/application/payment/paymentgateway"
	"github.com/abengolea/heartlink-sub000/internal/domain/subscription"
	vo "github.com/abengolea/heartlink-sub000/internal/domain/subscription/valueobjects"
	"github.com/abengolea/heartlink-sub000/internal/domain/user"
	apperrors "github.com/abengolea/heartlink-sub000/internal/shared/errors"
	"github.com/abengolea/heartlink-sub000/internal/shared/logger"
)

func testCatalog() *mockCatalog {
	return &mockCatalog{prices: map[vo.PlanType]*PlanPrice{
		vo.PlanTypeMonthly: {
			PlanType: vo.PlanTypeMonthly,
			Title:    "HeartLink monthly",
			Amount:   vo.NewMoney(150000, "ARS"),
		},
		vo.PlanTypeAnnual: {
			PlanType:        vo.PlanTypeAnnual,
			Title:           "HeartLink annual",
			Amount:          vo.NewMoney(1800000, "ARS"),
			DiscountPercent: 15,
		},
	}}
}

func usersWith(u *user.User) *mockUserRepository {
	return &mockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*user.User, error) {
			if u != nil && u.ID() == id {
				return u, nil
			}
			return nil, nil
		},
	}
}

func testUser(t *testing.T) *user.User {
	t.Helper()
	u, err := user.NewUser("u1", "doctor@example.com", "Dr. Who", fixedNow)
	require.NoError(t, err)
	return u
}

func newCreateUseCase(store subscription.SubscriptionRepository, users *mockUserRepository, gw *mockGateway) *CreateSubscriptionUseCase {
	uc := NewCreateSubscriptionUseCase(store, users, testCatalog(), gw, CheckoutURLs{
		Notification: "https://api.example/webhooks/payment",
		Success:      "https://app.example/subscription/success",
		Failure:      "https://app.example/subscription/failure",
		Pending:      "https://app.example/subscription/pending",
	}, testGrace, logger.NewNopLogger())
	uc.now = func() time.Time { return fixedNow }
	return uc
}

func TestCreateSubscription_StartsCheckout(t *testing.T) {
	store := newMemorySubscriptionStore()
	var captured paymentgateway.CheckoutRequest
	gw := &mockGateway{
		CreateCheckoutFunc: func(ctx context.Context, req paymentgateway.CheckoutRequest) (*paymentgateway.CheckoutResponse, error) {
			captured = req
			return &paymentgateway.CheckoutResponse{PreferenceID: "pref-42", CheckoutURL: "https://checkout.example/pref-42"}, nil
		},
	}
	publisher := &mockPublisher{}
	uc := newCreateUseCase(store, usersWith(testUser(t)), gw)
	uc.SetEventPublisher(publisher)

	result, err := uc.Execute(context.Background(), CreateSubscriptionCommand{UserID: "u1", PlanType: "monthly"})
	require.NoError(t, err)

	assert.Equal(t, "pref-42", result.PreferenceID)
	assert.Equal(t, "https://checkout.example/pref-42", result.CheckoutURL)
	assert.Equal(t, int64(150000), result.Amount)
	assert.Equal(t, "ARS", result.Currency)
	assert.Equal(t, fixedNow.AddDate(0, 1, 0), result.EndDate)
	assert.Equal(t, "subscription_u1_monthly_1717243200000", result.ExternalReference)

	assert.Equal(t, result.ExternalReference, captured.ExternalReference)
	assert.Equal(t, "doctor@example.com", captured.PayerEmail)
	assert.Equal(t, "HeartLink monthly", captured.Title)
	assert.Equal(t, int64(150000), captured.AmountMinor)
	assert.Equal(t, "https://api.example/webhooks/payment", captured.NotificationURL)

	token, err := subscription.ParseCorrelationToken(captured.ExternalReference)
	require.NoError(t, err)
	assert.Equal(t, "u1", token.UserID)
	assert.Equal(t, vo.PlanTypeMonthly, token.PlanType)

	stored := store.get("u1")
	require.NotNil(t, stored)
	assert.Equal(t, vo.StatusInactive, stored.Status())
	assert.Equal(t, result.SubscriptionID, stored.ID())
	assert.True(t, strings.HasPrefix(stored.ID(), "sub_"))
	assert.False(t, subscription.EvaluateAccess(stored, fixedNow, testGrace).HasAccess)
	assert.Equal(t, []subscription.ChangeReason{subscription.ChangeCreated}, publisher.reasons())
}

func TestCreateSubscription_AppliesPlanDiscount(t *testing.T) {
	store := newMemorySubscriptionStore()
	uc := newCreateUseCase(store, usersWith(testUser(t)), &mockGateway{})

	result, err := uc.Execute(context.Background(), CreateSubscriptionCommand{UserID: "u1", PlanType: "annual"})
	require.NoError(t, err)
	assert.Equal(t, int64(1530000), result.Amount)
	assert.Equal(t, fixedNow.AddDate(1, 0, 0), result.EndDate)
	assert.Equal(t, int64(1530000), store.get("u1").Amount().AmountMinor())
}

func TestCreateSubscription_RejectsWhileAccessIsGranted(t *testing.T) {
	existing := newTestSubscription(t, "u1", vo.StatusActive, fixedNow.AddDate(0, 0, 5), nil, false)
	store := newMemorySubscriptionStore(existing)
	gw := &mockGateway{
		CreateCheckoutFunc: func(ctx context.Context, req paymentgateway.CheckoutRequest) (*paymentgateway.CheckoutResponse, error) {
			t.Fatal("checkout must not be created")
			return nil, nil
		},
	}

	_, err := newCreateUseCase(store, usersWith(testUser(t)), gw).Execute(context.Background(), CreateSubscriptionCommand{UserID: "u1", PlanType: "monthly"})
	appErr := apperrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrorTypePolicyViolation, appErr.Type)
	assert.Equal(t, existing.ID(), store.get("u1").ID())
}

func TestCreateSubscription_RenewsDuringGracePeriod(t *testing.T) {
	end := fixedNow.AddDate(0, 0, -2)
	existing := newTestSubscription(t, "u1", vo.StatusActive, end, timePtr(end.Add(testGrace)), false)
	store := newMemorySubscriptionStore(existing)
	var captured paymentgateway.CheckoutRequest
	gw := &mockGateway{
		CreateCheckoutFunc: func(ctx context.Context, req paymentgateway.CheckoutRequest) (*paymentgateway.CheckoutResponse, error) {
			captured = req
			return &paymentgateway.CheckoutResponse{PreferenceID: "pref-renew", CheckoutURL: "https://checkout.example/pref-renew"}, nil
		},
	}
	publisher := &mockPublisher{}
	uc := newCreateUseCase(store, usersWith(testUser(t)), gw)
	uc.SetEventPublisher(publisher)

	result, err := uc.Execute(context.Background(), CreateSubscriptionCommand{UserID: "u1", PlanType: "monthly"})
	require.NoError(t, err)

	assert.True(t, result.Renewal)
	assert.Equal(t, existing.ID(), result.SubscriptionID)
	assert.Equal(t, "https://checkout.example/pref-renew", result.CheckoutURL)
	assert.Equal(t, fixedNow.AddDate(0, 1, 0), result.EndDate)
	assert.Equal(t, result.ExternalReference, captured.ExternalReference)

	stored := store.get("u1")
	assert.Equal(t, existing.ID(), stored.ID(), "no new subscription row")
	assert.Equal(t, vo.StatusActive, stored.Status())
	assert.True(t, subscription.EvaluateAccess(stored, fixedNow, testGrace).InGracePeriod(), "grace access is kept")
	assert.Empty(t, publisher.reasons())
}

func TestCreateSubscription_GraceRenewalKeepsPlan(t *testing.T) {
	end := fixedNow.AddDate(0, 0, -2)
	existing := newTestSubscription(t, "u1", vo.StatusActive, end, nil, false)
	store := newMemorySubscriptionStore(existing)

	_, err := newCreateUseCase(store, usersWith(testUser(t)), &mockGateway{}).Execute(context.Background(), CreateSubscriptionCommand{UserID: "u1", PlanType: "annual"})
	appErr := apperrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrorTypePolicyViolation, appErr.Type)
	assert.Equal(t, existing.ID(), store.get("u1").ID())
}

func TestCreateSubscription_ReplacesLapsedSubscription(t *testing.T) {
	end := fixedNow.AddDate(0, 0, -40)
	lapsed := newTestSubscription(t, "u1", vo.StatusSuspended, end, timePtr(end.Add(testGrace)), true)
	store := newMemorySubscriptionStore(lapsed)

	result, err := newCreateUseCase(store, usersWith(testUser(t)), &mockGateway{}).Execute(context.Background(), CreateSubscriptionCommand{UserID: "u1", PlanType: "monthly"})
	require.NoError(t, err)
	assert.NotEqual(t, lapsed.ID(), result.SubscriptionID)
}

func TestCreateSubscription_Errors(t *testing.T) {
	tests := []struct {
		name     string
		cmd      CreateSubscriptionCommand
		gwErr    error
		wantCode int
	}{
		{
			name:     "unknown plan",
			cmd:      CreateSubscriptionCommand{UserID: "u1", PlanType: "weekly"},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown user",
			cmd:      CreateSubscriptionCommand{UserID: "ghost", PlanType: "monthly"},
			wantCode: http.StatusNotFound,
		},
		{
			name:     "provider unavailable",
			cmd:      CreateSubscriptionCommand{UserID: "u1", PlanType: "monthly"},
			gwErr:    paymentgateway.ErrGatewayUnavailable,
			wantCode: http.StatusServiceUnavailable,
		},
		{
			name:     "provider error",
			cmd:      CreateSubscriptionCommand{UserID: "u1", PlanType: "monthly"},
			gwErr:    errors.New("400 bad request"),
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &mockGateway{}
			if tt.gwErr != nil {
				gw.CreateCheckoutFunc = func(ctx context.Context, req paymentgateway.CheckoutRequest) (*paymentgateway.CheckoutResponse, error) {
					return nil, tt.gwErr
				}
			}

			_, err := newCreateUseCase(newMemorySubscriptionStore(), usersWith(testUser(t)), gw).Execute(context.Background(), tt.cmd)
			appErr := apperrors.GetAppError(err)
			require.NotNil(t, appErr)
			assert.Equal(t, tt.wantCode, appErr.Code)
		})
	}
}

func TestCreateSubscription_RunsCheckAndInsertInTransaction(t *testing.T) {
	store := newMemorySubscriptionStore()
	tx := &mockTransactionRunner{}
	uc := newCreateUseCase(store, usersWith(testUser(t)), &mockGateway{})
	uc.SetTransactionRunner(tx)

	_, err := uc.Execute(context.Background(), CreateSubscriptionCommand{UserID: "u1", PlanType: "monthly"})
	require.NoError(t, err)
	assert.Equal(t, 1, tx.calls)
	assert.NotNil(t, store.get("u1"))
}
