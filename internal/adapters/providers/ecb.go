package providers

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"time"

	"github.com/oks-citadel/citadelbuy-fx/internal/apperrors"
	"github.com/oks-citadel/citadelbuy-fx/internal/core/domain"
)

// ecbBaseCurrency is the only base the daily reference feed publishes.
const ecbBaseCurrency = "EUR"

// ECBProvider fetches the European Central Bank daily reference feed.
// The feed is unauthenticated XML and structurally answers only for a
// EUR base; any other base is rejected before touching the network.
type ECBProvider struct {
	feedURL string
	client  *http.Client
}

// NewECB creates the central-bank feed adapter.
func NewECB(feedURL string, timeout time.Duration) *ECBProvider {
	return &ECBProvider{
		feedURL: feedURL,
		client:  newHTTPClient(timeout),
	}
}

// Name returns the provider identifier.
func (p *ECBProvider) Name() domain.Provider {
	return domain.ProviderECB
}

type ecbEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Days    []struct {
		Time  string `xml:"time,attr"`
		Rates []struct {
			Currency string  `xml:"currency,attr"`
			Rate     float64 `xml:"rate,attr"`
		} `xml:"Cube"`
	} `xml:"Cube>Cube"`
}

// Fetch retrieves the daily reference rates. Only baseCurrency="EUR" is
// accepted.
func (p *ECBProvider) Fetch(ctx context.Context, baseCurrency string) (*domain.ProviderRates, error) {
	if baseCurrency != ecbBaseCurrency {
		return nil, fmt.Errorf("%w: %w: ecb publishes EUR reference rates only, got %s",
			apperrors.ErrProvider, apperrors.ErrUnsupportedBase, baseCurrency)
	}

	endpoint := fmt.Sprintf("%s/eurofxref-daily.xml", p.feedURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: ecb: %v", apperrors.ErrProvider, err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: ecb request failed: %v", apperrors.ErrProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: ecb returned status %d", apperrors.ErrProvider, resp.StatusCode)
	}

	var envelope ecbEnvelope
	if err := xml.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("%w: ecb malformed feed: %v", apperrors.ErrProvider, err)
	}
	if len(envelope.Days) == 0 || len(envelope.Days[0].Rates) == 0 {
		return nil, fmt.Errorf("%w: ecb feed contained no rates", apperrors.ErrProvider)
	}

	day := envelope.Days[0]
	rates := make(domain.RateTable, len(day.Rates))
	for _, r := range day.Rates {
		if r.Currency == "" || r.Rate <= 0 {
			return nil, fmt.Errorf("%w: ecb feed contained invalid rate entry %q=%v", apperrors.ErrProvider, r.Currency, r.Rate)
		}
		rates[r.Currency] = r.Rate
	}

	fetchedAt := time.Now()
	if ts, err := time.Parse("2006-01-02", day.Time); err == nil {
		fetchedAt = ts
	}

	return &domain.ProviderRates{
		BaseCurrency: ecbBaseCurrency,
		Rates:        rates,
		Timestamp:    fetchedAt,
		Source:       domain.ProviderECB,
	}, nil
}
