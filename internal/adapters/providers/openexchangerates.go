package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/oks-citadel/citadelbuy-fx/internal/apperrors"
	"github.com/oks-citadel/citadelbuy-fx/internal/core/domain"
)

// mockRateTable is the fixed table served when no app ID is configured,
// so development and staging environments keep functioning without a
// real credential. Results carry Source=mock so cached entries are
// never mistaken for live data.
var mockRateTable = domain.RateTable{
	"USD": 1.0,
	"EUR": 0.92,
	"GBP": 0.79,
	"JPY": 149.50,
	"CHF": 0.88,
	"CAD": 1.36,
	"AUD": 1.52,
	"CNY": 7.24,
	"INR": 83.10,
	"BRL": 4.97,
}

// OpenExchangeRatesProvider is the primary JSON provider. It requires
// an app ID; without one it falls back to the mock table instead of
// erroring.
type OpenExchangeRatesProvider struct {
	baseURL string
	appID   string
	client  *http.Client
}

// NewOpenExchangeRates creates the primary provider adapter.
func NewOpenExchangeRates(baseURL, appID string, timeout time.Duration) *OpenExchangeRatesProvider {
	return &OpenExchangeRatesProvider{
		baseURL: baseURL,
		appID:   appID,
		client:  newHTTPClient(timeout),
	}
}

// Name returns the provider identifier.
func (p *OpenExchangeRatesProvider) Name() domain.Provider {
	return domain.ProviderOpenExchangeRates
}

type openExchangeRatesPayload struct {
	Base      string             `json:"base"`
	Timestamp int64              `json:"timestamp"`
	Rates     map[string]float64 `json:"rates"`
}

// Fetch retrieves the full rate table for the base currency.
func (p *OpenExchangeRatesProvider) Fetch(ctx context.Context, baseCurrency string) (*domain.ProviderRates, error) {
	if p.appID == "" {
		return &domain.ProviderRates{
			BaseCurrency: baseCurrency,
			Rates:        mockRates(baseCurrency),
			Timestamp:    time.Now(),
			Source:       domain.ProviderMock,
		}, nil
	}

	endpoint := fmt.Sprintf("%s/latest.json?app_id=%s&base=%s",
		p.baseURL, url.QueryEscape(p.appID), url.QueryEscape(baseCurrency))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: openexchangerates: %v", apperrors.ErrProvider, err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: openexchangerates request failed: %v", apperrors.ErrProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: openexchangerates returned status %d: %s", apperrors.ErrProvider, resp.StatusCode, string(body))
	}

	var payload openExchangeRatesPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: openexchangerates malformed response: %v", apperrors.ErrProvider, err)
	}
	if len(payload.Rates) == 0 {
		return nil, fmt.Errorf("%w: openexchangerates response contained no rates", apperrors.ErrProvider)
	}

	fetchedAt := time.Now()
	if payload.Timestamp > 0 {
		fetchedAt = time.Unix(payload.Timestamp, 0)
	}

	return &domain.ProviderRates{
		BaseCurrency: baseCurrency,
		Rates:        payload.Rates,
		Timestamp:    fetchedAt,
		Source:       domain.ProviderOpenExchangeRates,
	}, nil
}

// mockRates returns a copy of the fixed table with the requested base
// removed, so the shape matches a real provider response for that base.
func mockRates(baseCurrency string) domain.RateTable {
	rates := make(domain.RateTable, len(mockRateTable))
	for code, rate := range mockRateTable {
		if code == baseCurrency {
			continue
		}
		rates[code] = rate
	}
	return rates
}
