package redisfx

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oks-citadel/citadelbuy-fx/internal/apperrors"
	"github.com/oks-citadel/citadelbuy-fx/internal/core/domain"
)

// RedisRateCache implements the ports.RateCache interface over Redis,
// the shared store reachable from every process instance.
type RedisRateCache struct {
	client *redis.Client
}

// NewRateCache creates a new RedisRateCache.
func NewRateCache(client *redis.Client) *RedisRateCache {
	return &RedisRateCache{client: client}
}

func entryKey(baseCurrency string) string {
	return fmt.Sprintf("fx:rates:%s", baseCurrency)
}

func pairKey(baseCurrency, quoteCurrency string) string {
	return fmt.Sprintf("fx:rate:%s:%s", baseCurrency, quoteCurrency)
}

// GetEntry retrieves the cached rate table for a base currency.
func (c *RedisRateCache) GetEntry(ctx context.Context, baseCurrency string) (*domain.CacheEntry, error) {
	data, err := c.client.Get(ctx, entryKey(baseCurrency)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get cache entry for %s: %w", baseCurrency, err)
	}

	var entry domain.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache entry for %s: %w", baseCurrency, err)
	}
	return &entry, nil
}

// GetPairRate retrieves a single cached (base,quote) rate in O(1)
// without deserializing the full table.
func (c *RedisRateCache) GetPairRate(ctx context.Context, baseCurrency, quoteCurrency string) (float64, error) {
	raw, err := c.client.Get(ctx, pairKey(baseCurrency, quoteCurrency)).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, apperrors.ErrNotFound
		}
		return 0, fmt.Errorf("failed to get pair rate %s/%s: %w", baseCurrency, quoteCurrency, err)
	}

	rate, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt pair rate %s/%s: %w", baseCurrency, quoteCurrency, err)
	}
	return rate, nil
}

// PutEntry overwrites the entry for its base currency and the individual
// pair keys, all under the same TTL. The entry key and pair keys are
// written in one pipeline so readers never observe a half-updated set
// longer than a single round trip.
func (c *RedisRateCache) PutEntry(ctx context.Context, entry domain.CacheEntry, ttl time.Duration) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry for %s: %w", entry.BaseCurrency, err)
	}

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, entryKey(entry.BaseCurrency), data, ttl)
	for quote, rate := range entry.Rates {
		pipe.Set(ctx, pairKey(entry.BaseCurrency, quote), strconv.FormatFloat(rate, 'f', -1, 64), ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write cache entry for %s: %w", entry.BaseCurrency, err)
	}
	return nil
}
