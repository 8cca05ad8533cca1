package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Provider identifies an upstream exchange rate source.
type Provider string

const (
	// ProviderOpenExchangeRates is the primary JSON provider.
	ProviderOpenExchangeRates Provider = "openexchangerates"
	// ProviderMock labels the fixed rate table served when the primary
	// provider has no credential configured. Distinguishable from real
	// sources so cached entries are never mistaken for live data.
	ProviderMock Provider = "mock"
	// ProviderECB is the central-bank XML feed. EUR base only.
	ProviderECB Provider = "ecb"
	// ProviderCurrencyLayer is the secondary JSON provider.
	ProviderCurrencyLayer Provider = "currencylayer"
)

// RateTable maps a quote currency code (ISO 4217) to its rate relative
// to a single base currency. Produced atomically by one provider fetch;
// never merged across providers.
type RateTable map[string]float64

// ProviderRates is the normalized result of a single provider fetch.
type ProviderRates struct {
	BaseCurrency string    `json:"baseCurrency"`
	Rates        RateTable `json:"rates"`
	Timestamp    time.Time `json:"timestamp"`
	Source       Provider  `json:"source"`
}

// CacheEntry is the cached rate table for one base currency. Exactly one
// entry exists per base currency at a time; it is superseded by the next
// successful refresh or expires via TTL.
type CacheEntry struct {
	BaseCurrency string    `json:"baseCurrency"`
	Rates        RateTable `json:"rates"`
	FetchedAt    time.Time `json:"fetchedAt"`
	Source       Provider  `json:"source"`
}

// Age returns how long ago the entry was fetched.
func (e CacheEntry) Age(now time.Time) time.Duration {
	return now.Sub(e.FetchedAt)
}

// HistoryRecord is one append-only audit row, one per quote currency per
// successful fetch. Immutable once written; duplicates within the same
// minute bucket are skipped, not errored.
type HistoryRecord struct {
	HistoryID        string          `json:"historyID"`
	FromCurrencyCode string          `json:"fromCurrencyCode"`
	ToCurrencyCode   string          `json:"toCurrencyCode"`
	Rate             decimal.Decimal `json:"rate"`
	Source           Provider        `json:"source"`
	ObservedAt       time.Time       `json:"observedAt"`
}

// LockHandle is the proof of a successful distributed lock acquisition.
// Only the holder of the matching LockID may release the lock; an
// unreleased lock self-expires after TTL.
type LockHandle struct {
	Key        string        `json:"key"`
	LockID     string        `json:"lockID"`
	AcquiredAt time.Time     `json:"acquiredAt"`
	TTL        time.Duration `json:"ttl"`
}

// RefreshJob is an ephemeral unit of refresh work, created by the
// scheduler or a direct API trigger and consumed exactly once.
type RefreshJob struct {
	BaseCurrency     string   `json:"baseCurrency"`
	Provider         Provider `json:"provider,omitempty"` // empty means the configured default
	ForceRefresh     bool     `json:"forceRefresh"`
	TargetCurrencies []string `json:"targetCurrencies,omitempty"`
}

// RefreshResult reports the outcome of one refresh attempt. It is
// returned to the caller and never persisted.
type RefreshResult struct {
	Success        bool      `json:"success"`
	BaseCurrency   string    `json:"baseCurrency"`
	RatesCount     int       `json:"ratesCount"`
	Provider       Provider  `json:"provider,omitempty"`
	RatesTimestamp time.Time `json:"ratesTimestamp,omitempty"`
	DurationMs     int64     `json:"durationMs"`
	Error          string    `json:"error,omitempty"`
	CacheTTL       int64     `json:"cacheTtl"` // seconds
	SavedToDB      bool      `json:"savedToDb"`
}
