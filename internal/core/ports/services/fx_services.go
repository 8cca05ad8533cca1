package services

import (
	"context"

	"github.com/oks-citadel/citadelbuy-fx/internal/core/domain"
)

// FxRefreshSvc defines the refresh operations exposed by the pipeline.
type FxRefreshSvc interface {
	// RefreshRates runs one refresh job: freshness check, lock-guarded
	// provider fetch, cache and history writes. Expected failure modes
	// (provider down, lock contention) are reported in the result, not
	// returned as errors.
	RefreshRates(ctx context.Context, job domain.RefreshJob) domain.RefreshResult

	// RefreshAll refreshes every supported base currency sequentially.
	// A failure for one currency never halts the remaining iterations.
	RefreshAll(ctx context.Context, forceRefresh bool) []domain.RefreshResult
}

// FxRateReaderSvc defines read-only access to the latest cached rates.
// This is the contract the serving layer relies on.
type FxRateReaderSvc interface {
	// GetLatestRates returns the cached rate table for a base currency.
	// Returns apperrors.ErrNotFound when nothing is cached.
	GetLatestRates(ctx context.Context, baseCurrency string) (*domain.CacheEntry, error)

	// GetPairRate returns a single cached (base,quote) rate.
	GetPairRate(ctx context.Context, baseCurrency, quoteCurrency string) (float64, error)

	// SupportedBaseCurrencies lists the bases the scheduler keeps warm.
	SupportedBaseCurrencies() []string

	// GetRateHistory returns recent audit rows for a currency pair,
	// newest first. An empty slice means no history, not an error.
	GetRateHistory(ctx context.Context, fromCode, toCode string, limit int) ([]domain.HistoryRecord, error)
}

// FxSvcFacade combines the refresh and read interfaces.
type FxSvcFacade interface {
	FxRefreshSvc
	FxRateReaderSvc
}

// ServiceContainer holds instances of all the application services.
// This is the main entry point for accessing service functionality and
// is used throughout the application, particularly in the handlers.
type ServiceContainer struct {
	Fx FxSvcFacade
}
