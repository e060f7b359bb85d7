package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryPaymentLock serializes reconciliation inside a single process.
// It is used when redis is not configured.
type MemoryPaymentLock struct {
	store *gocache.Cache
}

func NewMemoryPaymentLock() *MemoryPaymentLock {
	return &MemoryPaymentLock{
		store: gocache.New(time.Minute, 5*time.Minute),
	}
}

// Acquire relies on go-cache Add, which fails while an unexpired item exists.
func (l *MemoryPaymentLock) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	if err := l.store.Add(key, struct{}{}, ttl); err != nil {
		return false, nil
	}
	return true, nil
}

func (l *MemoryPaymentLock) Release(_ context.Context, key string) error {
	l.store.Delete(key)
	return nil
}
