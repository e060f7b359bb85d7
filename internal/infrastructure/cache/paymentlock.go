package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const lockKeyPrefix = "heartlink:lock:"

// releaseScript deletes the key only when it still holds our token, so a
// lock that expired and was re-acquired elsewhere is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisPaymentLock is a SETNX based lock shared by every instance.
type RedisPaymentLock struct {
	client *redis.Client
	owner  string
}

// NewRedisPaymentLock creates a lock owned by this process.
func NewRedisPaymentLock(client *redis.Client) *RedisPaymentLock {
	return &RedisPaymentLock{
		client: client,
		owner:  uuid.NewString(),
	}
}

func (l *RedisPaymentLock) buildKey(key string) string {
	return lockKeyPrefix + key
}

// Acquire atomically takes the lock for ttl.
// Returns false when another holder already owns it.
func (l *RedisPaymentLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	acquired, err := l.client.SetNX(ctx, l.buildKey(key), l.owner, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	return acquired, nil
}

// Release frees the lock if this process still holds it.
func (l *RedisPaymentLock) Release(ctx context.Context, key string) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.buildKey(key)}, l.owner).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}
