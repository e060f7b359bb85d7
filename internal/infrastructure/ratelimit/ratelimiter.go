package ratelimit

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// RateLimiter decides whether one more request for key fits the budget.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// LocalRateLimiter keeps one token bucket per key in process memory.
// Buckets idle for longer than the cleanup interval are evicted.
type LocalRateLimiter struct {
	limit   rate.Limit
	burst   int
	buckets *gocache.Cache
}

// NewLocalRateLimiter allows rps requests per second per key with the given burst.
func NewLocalRateLimiter(rps float64, burst int) *LocalRateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &LocalRateLimiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		buckets: gocache.New(10*time.Minute, 10*time.Minute),
	}
}

func (l *LocalRateLimiter) Allow(_ context.Context, key string) (bool, error) {
	return l.bucket(key).Allow(), nil
}

func (l *LocalRateLimiter) bucket(key string) *rate.Limiter {
	if v, ok := l.buckets.Get(key); ok {
		l.buckets.SetDefault(key, v)
		return v.(*rate.Limiter)
	}

	limiter := rate.NewLimiter(l.limit, l.burst)
	if err := l.buckets.Add(key, limiter, gocache.DefaultExpiration); err != nil {
		// another request created the bucket first
		if v, ok := l.buckets.Get(key); ok {
			return v.(*rate.Limiter)
		}
	}
	return limiter
}
