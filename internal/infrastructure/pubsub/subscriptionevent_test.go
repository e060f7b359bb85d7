package pubsub

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abengolea/heartlink-sub000/internal/domain/subscription"
	"github.com/abengolea/heartlink-sub000/internal/shared/logger"
)

func TestDecodeSubscriptionEvent(t *testing.T) {
	end := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	data, err := json.Marshal(subscription.SubscriptionChangedEvent{
		SubscriptionID:  "sub_1",
		UserID:          "u1",
		Reason:          subscription.ChangeBlocked,
		Status:          "suspended",
		IsAccessBlocked: true,
		EndDate:         end,
	})
	require.NoError(t, err)

	event, err := decodeSubscriptionEvent(string(data))
	require.NoError(t, err)
	assert.Equal(t, "sub_1", event.SubscriptionID)
	assert.Equal(t, subscription.ChangeBlocked, event.Reason)
	assert.True(t, event.IsAccessBlocked)
	assert.True(t, end.Equal(event.EndDate))

	_, err = decodeSubscriptionEvent(`{"user_id":"u1"}`)
	assert.Error(t, err)

	_, err = decodeSubscriptionEvent("not json")
	assert.Error(t, err)
}

func TestRedisSubscriptionEventBus_PublishSubscribe(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 15})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	bus := NewRedisSubscriptionEventBus(client, logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan subscription.SubscriptionChangedEvent, 1)
	go func() {
		_ = bus.Subscribe(ctx, func(_ context.Context, event subscription.SubscriptionChangedEvent) {
			received <- event
		})
	}()

	// give the subscriber time to register
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, bus.Publish(context.Background(), &subscription.SubscriptionChangedEvent{
		SubscriptionID: "sub_1",
		UserID:         "u1",
		Reason:         subscription.ChangePaymentApproved,
	}))

	select {
	case event := <-received:
		assert.Equal(t, "sub_1", event.SubscriptionID)
		assert.Equal(t, subscription.ChangePaymentApproved, event.Reason)
	case <-time.After(2 * time.Second):
		t.Fatal("event not received")
	}
}
