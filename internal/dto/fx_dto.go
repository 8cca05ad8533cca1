package dto

import (
	"time"

	"github.com/oks-citadel/citadelbuy-fx/internal/core/domain"
)

// RefreshRequest defines the structure for triggering a rate refresh.
type RefreshRequest struct {
	BaseCurrency     string   `json:"baseCurrency" binding:"required,currency"`
	Provider         string   `json:"provider" binding:"omitempty,oneof=openexchangerates ecb currencylayer"`
	ForceRefresh     bool     `json:"forceRefresh"`
	TargetCurrencies []string `json:"targetCurrencies" binding:"omitempty,dive,currency"`
}

// ToRefreshJob converts the request to a domain refresh job.
func (r RefreshRequest) ToRefreshJob() domain.RefreshJob {
	return domain.RefreshJob{
		BaseCurrency:     r.BaseCurrency,
		Provider:         domain.Provider(r.Provider),
		ForceRefresh:     r.ForceRefresh,
		TargetCurrencies: r.TargetCurrencies,
	}
}

// RefreshResultResponse defines the structure for API responses
// describing the outcome of a refresh.
type RefreshResultResponse struct {
	Success        bool      `json:"success"`
	BaseCurrency   string    `json:"baseCurrency"`
	RatesCount     int       `json:"ratesCount"`
	Provider       string    `json:"provider,omitempty"`
	RatesTimestamp time.Time `json:"ratesTimestamp,omitempty"`
	DurationMs     int64     `json:"durationMs"`
	Error          string    `json:"error,omitempty"`
	CacheTTL       int64     `json:"cacheTtl"`
	SavedToDB      bool      `json:"savedToDb"`
}

// ToRefreshResultResponse converts a domain.RefreshResult to its DTO.
func ToRefreshResultResponse(result domain.RefreshResult) RefreshResultResponse {
	return RefreshResultResponse{
		Success:        result.Success,
		BaseCurrency:   result.BaseCurrency,
		RatesCount:     result.RatesCount,
		Provider:       string(result.Provider),
		RatesTimestamp: result.RatesTimestamp,
		DurationMs:     result.DurationMs,
		Error:          result.Error,
		CacheTTL:       result.CacheTTL,
		SavedToDB:      result.SavedToDB,
	}
}

// ToListRefreshResultResponse converts a slice of refresh results.
func ToListRefreshResultResponse(results []domain.RefreshResult) []RefreshResultResponse {
	responses := make([]RefreshResultResponse, len(results))
	for i, result := range results {
		responses[i] = ToRefreshResultResponse(result)
	}
	return responses
}

// RateTableResponse defines the structure for serving cached rates.
type RateTableResponse struct {
	BaseCurrency string             `json:"baseCurrency"`
	Rates        map[string]float64 `json:"rates"`
	FetchedAt    time.Time          `json:"fetchedAt"`
	Source       string             `json:"source"`
}

// ToRateTableResponse converts a domain.CacheEntry to its DTO.
func ToRateTableResponse(entry *domain.CacheEntry) RateTableResponse {
	return RateTableResponse{
		BaseCurrency: entry.BaseCurrency,
		Rates:        entry.Rates,
		FetchedAt:    entry.FetchedAt,
		Source:       string(entry.Source),
	}
}

// PairRateResponse defines the structure for a single pair lookup.
type PairRateResponse struct {
	BaseCurrency  string  `json:"baseCurrency"`
	QuoteCurrency string  `json:"quoteCurrency"`
	Rate          float64 `json:"rate"`
}

// HistoryRecordResponse defines the structure for serving one audit row.
// Rate is a string to preserve the stored decimal exactly.
type HistoryRecordResponse struct {
	HistoryID        string    `json:"historyID"`
	FromCurrencyCode string    `json:"fromCurrencyCode"`
	ToCurrencyCode   string    `json:"toCurrencyCode"`
	Rate             string    `json:"rate"`
	Source           string    `json:"source"`
	ObservedAt       time.Time `json:"observedAt"`
}

// ToListHistoryRecordResponse converts a slice of history records.
func ToListHistoryRecordResponse(records []domain.HistoryRecord) []HistoryRecordResponse {
	responses := make([]HistoryRecordResponse, len(records))
	for i, rec := range records {
		responses[i] = HistoryRecordResponse{
			HistoryID:        rec.HistoryID,
			FromCurrencyCode: rec.FromCurrencyCode,
			ToCurrencyCode:   rec.ToCurrencyCode,
			Rate:             rec.Rate.String(),
			Source:           string(rec.Source),
			ObservedAt:       rec.ObservedAt,
		}
	}
	return responses
}
