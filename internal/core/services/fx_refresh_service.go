package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oks-citadel/citadelbuy-fx/internal/apperrors"
	"github.com/oks-citadel/citadelbuy-fx/internal/core/domain"
	portsrepo "github.com/oks-citadel/citadelbuy-fx/internal/core/ports/repositories"
)

// skippedConcurrentRefresh is the result error string for a refresh that
// lost the lock race. It is a deliberate non-failure: the in-flight
// refresh will satisfy the same need.
const skippedConcurrentRefresh = "Skipped - concurrent job in progress"

// FxRefreshConfig carries the refresh policy knobs.
type FxRefreshConfig struct {
	CacheTTL       time.Duration
	StaleWindow    time.Duration
	LockTTL        time.Duration
	BaseCurrencies []string
}

// FxRefreshService coordinates the rate refresh pipeline: freshness
// check, distributed-lock-guarded provider fetch, cache write, and
// best-effort history write.
type FxRefreshService struct {
	cache    portsrepo.RateCache
	history  portsrepo.RateHistoryRepository
	locker   portsrepo.DistributedLocker
	registry portsrepo.ProviderRegistry
	logger   *slog.Logger
	cfg      FxRefreshConfig
	now      func() time.Time
}

// NewFxRefreshService creates a new FxRefreshService.
func NewFxRefreshService(
	cache portsrepo.RateCache,
	history portsrepo.RateHistoryRepository,
	locker portsrepo.DistributedLocker,
	registry portsrepo.ProviderRegistry,
	logger *slog.Logger,
	cfg FxRefreshConfig,
) *FxRefreshService {
	if logger == nil {
		logger = slog.Default()
	}
	return &FxRefreshService{
		cache:    cache,
		history:  history,
		locker:   locker,
		registry: registry,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
}

func refreshLockKey(baseCurrency string) string {
	return fmt.Sprintf("fx:refresh:%s", baseCurrency)
}

// RefreshRates runs one refresh job. Expected failure modes (provider
// down, lock contention) are reported in the result rather than
// escaping as errors.
func (s *FxRefreshService) RefreshRates(ctx context.Context, job domain.RefreshJob) domain.RefreshResult {
	start := s.now()
	base := strings.ToUpper(strings.TrimSpace(job.BaseCurrency))
	logger := s.logger.With(slog.String("base_currency", base))

	result := domain.RefreshResult{BaseCurrency: base}
	finish := func(r domain.RefreshResult) domain.RefreshResult {
		r.DurationMs = s.now().Sub(start).Milliseconds()
		return r
	}

	if len(base) != 3 {
		result.Error = fmt.Sprintf("invalid base currency %q", job.BaseCurrency)
		return finish(result)
	}

	// Fast path: a fresh cache entry answers without contending for the
	// lock at all. This is what makes redundant scheduler ticks cheap.
	if !job.ForceRefresh {
		entry, err := s.cache.GetEntry(ctx, base)
		if err == nil && entry.Age(s.now()) < s.cfg.CacheTTL-s.cfg.StaleWindow {
			result.Success = true
			result.RatesCount = len(entry.Rates)
			result.Provider = entry.Source
			result.RatesTimestamp = entry.FetchedAt
			result.CacheTTL = int64(s.cfg.CacheTTL.Seconds())
			return finish(result)
		}
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			// A cache read failure is not fatal; the refresh below will
			// repopulate the entry.
			logger.Warn("Cache read failed, proceeding to refresh", slog.String("error", err.Error()))
		}
	}

	// Non-blocking acquisition: if another instance is already fetching
	// this currency, staleness is preferable to a duplicate fetch. Lock
	// backend failures arrive as ErrLockUnavailable too (fail closed).
	handle, err := s.locker.Acquire(ctx, refreshLockKey(base), s.cfg.LockTTL)
	if err != nil {
		logger.Info("Refresh skipped", slog.String("reason", err.Error()))
		result.Success = true
		result.Error = skippedConcurrentRefresh
		return finish(result)
	}
	defer func() {
		// Release runs on every exit path; a failed release is harmless
		// beyond delaying the next refresh until the TTL backstop.
		if err := s.locker.Release(ctx, handle); err != nil {
			logger.Warn("Failed to release refresh lock", slog.String("error", err.Error()))
		}
	}()

	adapter, err := s.registry.Resolve(job.Provider)
	if err != nil {
		result.Error = err.Error()
		return finish(result)
	}
	result.Provider = adapter.Name()

	fetched, err := adapter.Fetch(ctx, base)
	if err != nil {
		logger.Error("Provider fetch failed",
			slog.String("provider", string(adapter.Name())),
			slog.String("error", err.Error()),
		)
		result.Error = err.Error()
		return finish(result)
	}
	result.Provider = fetched.Source
	result.RatesTimestamp = fetched.Timestamp

	rates := filterRates(fetched.Rates, job.TargetCurrencies)
	if len(rates) == 0 {
		result.Error = fmt.Sprintf("provider %s returned no rates for requested currencies", fetched.Source)
		return finish(result)
	}

	entry := domain.CacheEntry{
		BaseCurrency: base,
		Rates:        rates,
		FetchedAt:    fetched.Timestamp,
		Source:       fetched.Source,
	}
	if err := s.cache.PutEntry(ctx, entry, s.cfg.CacheTTL); err != nil {
		// Without the cache write the refresh bought nothing for
		// serving, so this is a real failure. History is not written
		// either: no partial state.
		logger.Error("Cache write failed", slog.String("error", err.Error()))
		result.Error = fmt.Sprintf("cache write failed: %v", err)
		return finish(result)
	}
	result.Success = true
	result.RatesCount = len(rates)
	result.CacheTTL = int64(s.cfg.CacheTTL.Seconds())

	// History durability is an audit nicety, not a correctness
	// requirement for serving rates: a failure here is logged and
	// reflected in savedToDb without affecting success.
	records := make([]domain.HistoryRecord, 0, len(rates))
	for quote, rate := range rates {
		records = append(records, domain.HistoryRecord{
			HistoryID:        uuid.NewString(),
			FromCurrencyCode: base,
			ToCurrencyCode:   quote,
			Rate:             decimal.NewFromFloat(rate),
			Source:           fetched.Source,
			ObservedAt:       fetched.Timestamp,
		})
	}
	if _, err := s.history.SaveRates(ctx, records); err != nil {
		logger.Warn("History write failed", slog.String("error", err.Error()))
		result.SavedToDB = false
	} else {
		result.SavedToDB = true
	}

	logger.Info("Rates refreshed",
		slog.String("provider", string(fetched.Source)),
		slog.Int("rates_count", result.RatesCount),
		slog.Bool("saved_to_db", result.SavedToDB),
	)
	return finish(result)
}

// RefreshAll refreshes every supported base currency sequentially to
// bound load on upstream providers. A failure for one currency never
// halts the remaining iterations.
func (s *FxRefreshService) RefreshAll(ctx context.Context, forceRefresh bool) []domain.RefreshResult {
	results := make([]domain.RefreshResult, 0, len(s.cfg.BaseCurrencies))
	for _, base := range s.cfg.BaseCurrencies {
		results = append(results, s.RefreshRates(ctx, domain.RefreshJob{
			BaseCurrency: base,
			ForceRefresh: forceRefresh,
		}))
	}
	return results
}

// GetLatestRates returns the cached rate table for a base currency.
func (s *FxRefreshService) GetLatestRates(ctx context.Context, baseCurrency string) (*domain.CacheEntry, error) {
	base := strings.ToUpper(strings.TrimSpace(baseCurrency))
	if len(base) != 3 {
		return nil, fmt.Errorf("%w: currency codes must be 3 letters", apperrors.ErrValidation)
	}
	return s.cache.GetEntry(ctx, base)
}

// GetPairRate returns a single cached (base,quote) rate.
func (s *FxRefreshService) GetPairRate(ctx context.Context, baseCurrency, quoteCurrency string) (float64, error) {
	base := strings.ToUpper(strings.TrimSpace(baseCurrency))
	quote := strings.ToUpper(strings.TrimSpace(quoteCurrency))
	if len(base) != 3 || len(quote) != 3 {
		return 0, fmt.Errorf("%w: currency codes must be 3 letters", apperrors.ErrValidation)
	}
	return s.cache.GetPairRate(ctx, base, quote)
}

// SupportedBaseCurrencies lists the bases the scheduler keeps warm.
func (s *FxRefreshService) SupportedBaseCurrencies() []string {
	out := make([]string, len(s.cfg.BaseCurrencies))
	copy(out, s.cfg.BaseCurrencies)
	return out
}

// GetRateHistory returns recent audit rows for a currency pair, newest
// first. History reads go to the database, not the cache.
func (s *FxRefreshService) GetRateHistory(ctx context.Context, fromCode, toCode string, limit int) ([]domain.HistoryRecord, error) {
	from := strings.ToUpper(strings.TrimSpace(fromCode))
	to := strings.ToUpper(strings.TrimSpace(toCode))
	if len(from) != 3 || len(to) != 3 {
		return nil, fmt.Errorf("%w: currency codes must be 3 letters", apperrors.ErrValidation)
	}
	return s.history.FindRecentRates(ctx, from, to, limit)
}

// filterRates narrows a rate table to the requested quote currencies.
// An empty target list keeps the full table.
func filterRates(rates domain.RateTable, targets []string) domain.RateTable {
	if len(targets) == 0 {
		return rates
	}
	filtered := make(domain.RateTable, len(targets))
	for _, target := range targets {
		code := strings.ToUpper(strings.TrimSpace(target))
		if rate, ok := rates[code]; ok {
			filtered[code] = rate
		}
	}
	return filtered
}
