// Package memfx provides in-process implementations of the rate cache
// and distributed lock ports. They satisfy the same contracts as the
// Redis adapters but live in a single process: the mutual-exclusion
// guarantee does not extend across instances, so this backend is only
// selected for single-instance deployments and tests.
package memfx

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oks-citadel/citadelbuy-fx/internal/apperrors"
	"github.com/oks-citadel/citadelbuy-fx/internal/core/domain"
)

type cacheItem struct {
	entry     domain.CacheEntry
	expiresAt time.Time
}

// RateCache is a mutex-guarded, TTL-aware in-process rate cache.
type RateCache struct {
	mu      sync.RWMutex
	entries map[string]cacheItem
	now     func() time.Time
}

// NewRateCache creates an in-process rate cache.
func NewRateCache() *RateCache {
	return &RateCache{
		entries: make(map[string]cacheItem),
		now:     time.Now,
	}
}

// GetEntry retrieves the cached rate table for a base currency.
func (c *RateCache) GetEntry(_ context.Context, baseCurrency string) (*domain.CacheEntry, error) {
	c.mu.RLock()
	item, ok := c.entries[baseCurrency]
	c.mu.RUnlock()

	if !ok || c.now().After(item.expiresAt) {
		return nil, apperrors.ErrNotFound
	}
	entry := item.entry
	return &entry, nil
}

// GetPairRate retrieves a single cached (base,quote) rate.
func (c *RateCache) GetPairRate(ctx context.Context, baseCurrency, quoteCurrency string) (float64, error) {
	entry, err := c.GetEntry(ctx, baseCurrency)
	if err != nil {
		return 0, err
	}
	rate, ok := entry.Rates[quoteCurrency]
	if !ok {
		return 0, apperrors.ErrNotFound
	}
	return rate, nil
}

// PutEntry overwrites the entry for its base currency under the TTL.
func (c *RateCache) PutEntry(_ context.Context, entry domain.CacheEntry, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[entry.BaseCurrency] = cacheItem{
		entry:     entry,
		expiresAt: c.now().Add(ttl),
	}
	return nil
}

type lockItem struct {
	token     string
	expiresAt time.Time
}

// Locker is an in-process implementation of the distributed lock
// contract: non-blocking try-once acquisition, token-checked release,
// TTL self-expiry. The clock is injectable so expiry can be tested
// without real sleeps.
type Locker struct {
	mu    sync.Mutex
	locks map[string]lockItem
	now   func() time.Time
}

// NewLocker creates an in-process locker.
func NewLocker() *Locker {
	return &Locker{
		locks: make(map[string]lockItem),
		now:   time.Now,
	}
}

// SetClock replaces the time source. Intended for tests.
func (l *Locker) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

// Acquire attempts a single non-blocking acquisition.
func (l *Locker) Acquire(_ context.Context, key string, ttl time.Duration) (*domain.LockHandle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if item, held := l.locks[key]; held && now.Before(item.expiresAt) {
		return nil, apperrors.ErrLockUnavailable
	}

	token := uuid.NewString()
	l.locks[key] = lockItem{token: token, expiresAt: now.Add(ttl)}
	return &domain.LockHandle{
		Key:        key,
		LockID:     token,
		AcquiredAt: now,
		TTL:        ttl,
	}, nil
}

// Release removes the lock only when the stored token matches.
func (l *Locker) Release(_ context.Context, handle *domain.LockHandle) error {
	if handle == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if item, held := l.locks[handle.Key]; held && item.token == handle.LockID {
		delete(l.locks, handle.Key)
	}
	return nil
}
