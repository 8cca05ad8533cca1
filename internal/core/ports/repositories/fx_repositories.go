package repositories

import (
	"context"
	"time"

	"github.com/oks-citadel/citadelbuy-fx/internal/core/domain"
)

// RateCacheReader defines read operations for cached rate data.
type RateCacheReader interface {
	// GetEntry retrieves the cached rate table for a base currency.
	// Returns apperrors.ErrNotFound on a cache miss.
	GetEntry(ctx context.Context, baseCurrency string) (*domain.CacheEntry, error)

	// GetPairRate retrieves a single cached (base,quote) rate.
	// Returns apperrors.ErrNotFound on a cache miss.
	GetPairRate(ctx context.Context, baseCurrency, quoteCurrency string) (float64, error)
}

// RateCacheWriter defines write operations for cached rate data.
type RateCacheWriter interface {
	// PutEntry overwrites the entry for its base currency and the
	// individual (base,quote) pair keys, all under the same TTL.
	PutEntry(ctx context.Context, entry domain.CacheEntry, ttl time.Duration) error
}

// RateCache combines all rate cache operations.
type RateCache interface {
	RateCacheReader
	RateCacheWriter
}

// RateHistoryRepository persists the append-only rate audit trail.
type RateHistoryRepository interface {
	// SaveRates appends history records, skipping any that collide with
	// an existing (from, to, source, minute-bucket) tuple. Returns the
	// number of rows actually inserted.
	SaveRates(ctx context.Context, records []domain.HistoryRecord) (int, error)

	// FindRecentRates retrieves the most recent history rows for a
	// currency pair, newest first.
	FindRecentRates(ctx context.Context, fromCode, toCode string, limit int) ([]domain.HistoryRecord, error)
}

// DistributedLocker provides system-wide mutual exclusion keyed by string.
type DistributedLocker interface {
	// Acquire attempts a non-blocking acquisition. It returns
	// apperrors.ErrLockUnavailable if the key is already held, and the
	// same error when the lock backend is unreachable: acquisition
	// fails closed rather than proceeding unguarded.
	Acquire(ctx context.Context, key string, ttl time.Duration) (*domain.LockHandle, error)

	// Release removes the lock only if the stored token matches the
	// handle's LockID; otherwise it is a no-op.
	Release(ctx context.Context, handle *domain.LockHandle) error
}

// RateProvider fetches a full rate table for one base currency from a
// single upstream source. A failed fetch never yields partial results.
type RateProvider interface {
	Name() domain.Provider
	Fetch(ctx context.Context, baseCurrency string) (*domain.ProviderRates, error)
}

// ProviderRegistry resolves a provider identifier to its adapter.
type ProviderRegistry interface {
	// Resolve returns the adapter for the given identifier, or the
	// default provider when the identifier is empty. Returns
	// apperrors.ErrValidation for unknown identifiers.
	Resolve(provider domain.Provider) (RateProvider, error)
}
