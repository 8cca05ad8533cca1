package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/oks-citadel/citadelbuy-fx/internal/apperrors"
	"github.com/oks-citadel/citadelbuy-fx/internal/core/domain"
)

// CurrencyLayerProvider is the secondary JSON provider. It is an
// optional extra source, so a missing access key is a hard error
// rather than a mock fallback.
type CurrencyLayerProvider struct {
	baseURL   string
	accessKey string
	client    *http.Client
}

// NewCurrencyLayer creates the secondary provider adapter.
func NewCurrencyLayer(baseURL, accessKey string, timeout time.Duration) *CurrencyLayerProvider {
	return &CurrencyLayerProvider{
		baseURL:   baseURL,
		accessKey: accessKey,
		client:    newHTTPClient(timeout),
	}
}

// Name returns the provider identifier.
func (p *CurrencyLayerProvider) Name() domain.Provider {
	return domain.ProviderCurrencyLayer
}

// Fetch retrieves live quotes for the base currency. The response is a
// success-flag envelope with quotes keyed "{BASE}{QUOTE}".
func (p *CurrencyLayerProvider) Fetch(ctx context.Context, baseCurrency string) (*domain.ProviderRates, error) {
	if p.accessKey == "" {
		return nil, fmt.Errorf("%w: %w: currencylayer access key not configured",
			apperrors.ErrProvider, apperrors.ErrMissingCredential)
	}

	endpoint := fmt.Sprintf("%s/live?access_key=%s&source=%s",
		p.baseURL, url.QueryEscape(p.accessKey), url.QueryEscape(baseCurrency))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: currencylayer: %v", apperrors.ErrProvider, err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: currencylayer request failed: %v", apperrors.ErrProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: currencylayer returned status %d", apperrors.ErrProvider, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: currencylayer read failed: %v", apperrors.ErrProvider, err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: currencylayer malformed response", apperrors.ErrProvider)
	}

	if !gjson.GetBytes(body, "success").Bool() {
		info := gjson.GetBytes(body, "error.info").String()
		if info == "" {
			info = "request was not successful"
		}
		return nil, fmt.Errorf("%w: currencylayer: %s", apperrors.ErrProvider, info)
	}

	quotes := gjson.GetBytes(body, "quotes")
	if !quotes.Exists() {
		return nil, fmt.Errorf("%w: currencylayer response contained no quotes", apperrors.ErrProvider)
	}

	rates := make(domain.RateTable)
	quotes.ForEach(func(key, value gjson.Result) bool {
		// Quotes are keyed "{BASE}{QUOTE}", e.g. "USDEUR".
		quote := strings.TrimPrefix(key.String(), baseCurrency)
		if len(quote) == 3 && value.Float() > 0 {
			rates[quote] = value.Float()
		}
		return true
	})
	if len(rates) == 0 {
		return nil, fmt.Errorf("%w: currencylayer response contained no usable quotes", apperrors.ErrProvider)
	}

	fetchedAt := time.Now()
	if ts := gjson.GetBytes(body, "timestamp").Int(); ts > 0 {
		fetchedAt = time.Unix(ts, 0)
	}

	return &domain.ProviderRates{
		BaseCurrency: baseCurrency,
		Rates:        rates,
		Timestamp:    fetchedAt,
		Source:       domain.ProviderCurrencyLayer,
	}, nil
}
