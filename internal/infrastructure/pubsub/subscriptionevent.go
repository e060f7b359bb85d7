package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/abengolea/heartlink-sub000/internal/domain/subscription"
	"github.com/abengolea/heartlink-sub000/internal/shared/goroutine"
	"github.com/abengolea/heartlink-sub000/internal/shared/logger"
)

// SubscriptionEventHandler is a callback function for handling subscription events
type SubscriptionEventHandler func(ctx context.Context, event subscription.SubscriptionChangedEvent)

const SubscriptionChangeChannel = "heartlink:subscription:change"

// RedisSubscriptionEventBus broadcasts subscription changes to every instance
// through Redis Pub/Sub. Delivery is at most once.
type RedisSubscriptionEventBus struct {
	client *redis.Client
	logger logger.Interface
}

// NewRedisSubscriptionEventBus creates a new Redis-based subscription event bus
func NewRedisSubscriptionEventBus(client *redis.Client, logger logger.Interface) *RedisSubscriptionEventBus {
	return &RedisSubscriptionEventBus{
		client: client,
		logger: logger,
	}
}

// Publish sends a committed change to the channel.
func (b *RedisSubscriptionEventBus) Publish(ctx context.Context, event *subscription.SubscriptionChangedEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.client.Publish(ctx, SubscriptionChangeChannel, data).Err(); err != nil {
		b.logger.Errorw("failed to publish subscription change event",
			"subscription_id", event.SubscriptionID,
			"user_id", event.UserID,
			"reason", event.Reason,
			"error", err,
		)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debugw("subscription change event published",
		"subscription_id", event.SubscriptionID,
		"reason", event.Reason,
	)
	return nil
}

// Subscribe blocks and calls handler for each event until ctx is cancelled.
func (b *RedisSubscriptionEventBus) Subscribe(ctx context.Context, handler SubscriptionEventHandler) error {
	ps := b.client.Subscribe(ctx, SubscriptionChangeChannel)
	defer ps.Close()

	// Wait for subscription confirmation
	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to channel: %w", err)
	}

	b.logger.Infow("subscribed to subscription change events",
		"channel", SubscriptionChangeChannel,
	)

	ch := ps.Channel()

	for {
		select {
		case <-ctx.Done():
			b.logger.Infow("subscription event subscriber stopped",
				"reason", ctx.Err(),
			)
			return ctx.Err()

		case msg, ok := <-ch:
			if !ok {
				b.logger.Warnw("subscription event channel closed")
				return nil
			}

			event, err := decodeSubscriptionEvent(msg.Payload)
			if err != nil {
				b.logger.Warnw("failed to unmarshal subscription event",
					"payload", msg.Payload,
					"error", err,
				)
				continue
			}

			goroutine.SafeGo(b.logger, "subscription-event-handler", func() {
				handler(context.Background(), event)
			})
		}
	}
}

func decodeSubscriptionEvent(payload string) (subscription.SubscriptionChangedEvent, error) {
	var event subscription.SubscriptionChangedEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return event, err
	}
	if event.SubscriptionID == "" || event.Reason == "" {
		return event, fmt.Errorf("incomplete event")
	}
	return event, nil
}

// LogPublisher is used when redis is not configured. It records the change in
// the log so single instance deployments keep an audit trail.
type LogPublisher struct {
	logger logger.Interface
}

func NewLogPublisher(logger logger.Interface) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, event *subscription.SubscriptionChangedEvent) error {
	p.logger.Infow("subscription changed",
		"event_type", event.GetEventType(),
		"subscription_id", event.SubscriptionID,
		"user_id", event.UserID,
		"reason", event.Reason,
		"status", event.Status,
		"is_access_blocked", event.IsAccessBlocked,
	)
	return nil
}
