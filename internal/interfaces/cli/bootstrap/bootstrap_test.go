package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/abengolea/heartlink-sub000/internal/domain/subscription"
	"github.com/abengolea/heartlink-sub000/internal/infrastructure/metrics"
	"github.com/abengolea/heartlink-sub000/internal/shared/logger"
)

func TestMapEnvToGinMode(t *testing.T) {
	tests := map[string]string{
		"production":  gin.ReleaseMode,
		"prod":        gin.ReleaseMode,
		"test":        gin.TestMode,
		"development": gin.DebugMode,
		"":            gin.DebugMode,
	}
	for env, want := range tests {
		assert.Equal(t, want, MapEnvToGinMode(env), env)
	}
}

func TestResolveEnv(t *testing.T) {
	t.Setenv("ENV", "")
	assert.Equal(t, "development", ResolveEnv("development"))

	t.Setenv("ENV", "production")
	assert.Equal(t, "production", ResolveEnv("development"))
}

func TestChangeEventRecorder(t *testing.T) {
	m := metrics.NewBillingMetrics()
	record := ChangeEventRecorder(m, logger.NewNopLogger())

	record(context.Background(), subscription.SubscriptionChangedEvent{
		SubscriptionID: "sub_1",
		UserID:         "u1",
		Reason:         subscription.ChangeCancelled,
		Status:         "cancelled",
	})

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), `heartlink_subscription_changes_total{reason="cancelled"} 1`)
}
