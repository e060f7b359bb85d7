package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	subdto "github.com/abengolea/heartlink-sub000/internal/application/subscription/dto"
	"github.com/abengolea/heartlink-sub000/internal/application/subscription/usecases"
	"github.com/abengolea/heartlink-sub000/internal/interfaces/http/handlers/testutil"
	"github.com/abengolea/heartlink-sub000/internal/shared/constants"
	apperrors "github.com/abengolea/heartlink-sub000/internal/shared/errors"
)

func newSubscriptionHandler(status *mockStatusUC, create *mockCreateSubscriptionUC, cancel *mockCancelSubscriptionUC) *SubscriptionHandler {
	if status == nil {
		status = &mockStatusUC{}
	}
	if create == nil {
		create = &mockCreateSubscriptionUC{}
	}
	if cancel == nil {
		cancel = &mockCancelSubscriptionUC{}
	}
	return NewSubscriptionHandler(status, create, cancel, testutil.NewMockLogger())
}

func TestGetStatus(t *testing.T) {
	status := &mockStatusUC{result: &subdto.SubscriptionStatusDTO{
		HasSubscription: true,
		HasAccess:       true,
		AccessInfo:      subdto.AccessInfoDTO{Reason: "active", Color: "green"},
	}}

	tests := []struct {
		name     string
		caller   string
		role     string
		target   string
		wantCode int
	}{
		{"own status", "u1", constants.RoleUser, "u1", http.StatusOK},
		{"other user", "u1", constants.RoleUser, "u2", http.StatusForbidden},
		{"admin reads any", "admin-1", constants.RoleAdmin, "u2", http.StatusOK},
		{"unauthenticated", "", "", "u1", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status.requested = ""
			h := newSubscriptionHandler(status, nil, nil)

			c, w := testutil.NewTestContext(http.MethodGet, "/api/subscriptions/status/"+tt.target, nil)
			if tt.caller != "" {
				testutil.SetAuthContext(c, tt.caller, tt.role)
			}
			testutil.SetURLParam(c, "userId", tt.target)

			h.GetStatus(c)

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantCode != http.StatusOK {
				assert.Empty(t, status.requested)
				return
			}
			assert.Equal(t, tt.target, status.requested)

			var resp testutil.APIResponse
			require.NoError(t, testutil.ParseResponse(w, &resp))
			var data subdto.SubscriptionStatusDTO
			require.NoError(t, json.Unmarshal(resp.Data, &data))
			assert.True(t, data.HasAccess)
			assert.Equal(t, "active", data.AccessInfo.Reason)
		})
	}
}

func TestCreateSubscription(t *testing.T) {
	create := &mockCreateSubscriptionUC{result: &usecases.CreateSubscriptionResult{
		SubscriptionID: "sub_1",
		PlanType:       "monthly",
		CheckoutURL:    "https://checkout.example/pref-1",
		EndDate:        time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
	}}
	h := newSubscriptionHandler(nil, create, nil)

	c, w := testutil.NewTestContext(http.MethodPost, "/api/subscriptions", CreateSubscriptionRequest{PlanType: "monthly"})
	testutil.SetAuthContext(c, "u1", constants.RoleUser)

	h.CreateSubscription(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "u1", create.cmd.UserID)
	assert.Equal(t, "monthly", create.cmd.PlanType)

	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	var data usecases.CreateSubscriptionResult
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, "https://checkout.example/pref-1", data.CheckoutURL)
}

func TestCreateSubscription_InvalidPlan(t *testing.T) {
	create := &mockCreateSubscriptionUC{}
	h := newSubscriptionHandler(nil, create, nil)

	c, w := testutil.NewTestContext(http.MethodPost, "/api/subscriptions", map[string]string{"plan_type": "weekly"})
	testutil.SetAuthContext(c, "u1", constants.RoleUser)

	h.CreateSubscription(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, create.cmd.UserID)
}

func TestCreateSubscription_AlreadySubscribed(t *testing.T) {
	create := &mockCreateSubscriptionUC{err: apperrors.NewPolicyViolationError("user already has an active subscription")}
	h := newSubscriptionHandler(nil, create, nil)

	c, w := testutil.NewTestContext(http.MethodPost, "/api/subscriptions", CreateSubscriptionRequest{PlanType: "annual"})
	testutil.SetAuthContext(c, "u1", constants.RoleUser)

	h.CreateSubscription(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCancelSubscription_Self(t *testing.T) {
	cancel := &mockCancelSubscriptionUC{result: &subdto.SubscriptionDTO{ID: "sub_1", Status: "cancelled"}}
	h := newSubscriptionHandler(nil, nil, cancel)

	c, w := testutil.NewTestContext(http.MethodPost, "/api/subscriptions/cancel", CancelSubscriptionRequest{Reason: "too expensive"})
	testutil.SetAuthContext(c, "u1", constants.RoleUser)

	h.CancelSubscription(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, usecases.CancelSubscriptionCommand{UserID: "u1", Reason: "too expensive", ActorID: "u1"}, cancel.cmd)
}

func TestCancelSubscription_EmptyBody(t *testing.T) {
	cancel := &mockCancelSubscriptionUC{result: &subdto.SubscriptionDTO{ID: "sub_1", Status: "cancelled"}}
	h := newSubscriptionHandler(nil, nil, cancel)

	c, w := testutil.NewTestContext(http.MethodPost, "/api/subscriptions/cancel", nil)
	testutil.SetAuthContext(c, "u1", constants.RoleUser)

	h.CancelSubscription(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", cancel.cmd.UserID)
	assert.Empty(t, cancel.cmd.Reason)
}

func TestAdminSubscriptionHandler(t *testing.T) {
	cancel := &mockCancelSubscriptionUC{result: &subdto.SubscriptionDTO{ID: "sub_2", Status: "cancelled"}}
	reactivate := &mockReactivateSubscriptionUC{result: &subdto.SubscriptionDTO{ID: "sub_2", Status: "active"}}
	h := NewAdminSubscriptionHandler(cancel, reactivate, testutil.NewMockLogger())

	c, w := testutil.NewTestContext(http.MethodPost, "/api/admin/subscriptions/u2/cancel", CancelSubscriptionRequest{Reason: "chargeback"})
	testutil.SetAuthContext(c, "admin-1", constants.RoleAdmin)
	testutil.SetURLParam(c, "userId", "u2")
	h.CancelSubscription(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, usecases.CancelSubscriptionCommand{UserID: "u2", Reason: "chargeback", ActorID: "admin-1"}, cancel.cmd)

	c, w = testutil.NewTestContext(http.MethodPost, "/api/admin/subscriptions/u2/reactivate", nil)
	testutil.SetAuthContext(c, "admin-1", constants.RoleAdmin)
	testutil.SetURLParam(c, "userId", "u2")
	h.ReactivateSubscription(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, usecases.ReactivateSubscriptionCommand{UserID: "u2", ActorID: "admin-1"}, reactivate.cmd)

	reactivate.err = apperrors.NewPolicyViolationError("grace window has passed")
	c, w = testutil.NewTestContext(http.MethodPost, "/api/admin/subscriptions/u2/reactivate", nil)
	testutil.SetURLParam(c, "userId", "u2")
	h.ReactivateSubscription(c)
	assert.Equal(t, http.StatusConflict, w.Code)
}
