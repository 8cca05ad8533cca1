// Package providers contains the upstream rate source adapters. Each
// adapter normalizes its provider's wire format to domain.ProviderRates
// and fails whole: a fetch either yields a complete rate table or an
// error wrapping apperrors.ErrProvider, never partial results.
package providers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/oks-citadel/citadelbuy-fx/internal/apperrors"
	"github.com/oks-citadel/citadelbuy-fx/internal/core/domain"
	portsrepo "github.com/oks-citadel/citadelbuy-fx/internal/core/ports/repositories"
)

// newHTTPClient builds the client shared by all adapters. The timeout
// must stay below the refresh lock TTL so a hung provider call cannot
// outlive its lock.
func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// Registry resolves provider identifiers to adapters. It implements the
// ports.ProviderRegistry interface.
type Registry struct {
	defaultProvider domain.Provider
	adapters        map[domain.Provider]portsrepo.RateProvider
}

// NewRegistry creates a registry over the given adapters, keyed by
// their Name().
func NewRegistry(defaultProvider domain.Provider, adapters ...portsrepo.RateProvider) *Registry {
	m := make(map[domain.Provider]portsrepo.RateProvider, len(adapters))
	for _, a := range adapters {
		m[a.Name()] = a
	}
	return &Registry{
		defaultProvider: defaultProvider,
		adapters:        m,
	}
}

// Resolve returns the adapter for the identifier, or the default
// provider's adapter when the identifier is empty.
func (r *Registry) Resolve(provider domain.Provider) (portsrepo.RateProvider, error) {
	if provider == "" {
		provider = r.defaultProvider
	}
	adapter, ok := r.adapters[provider]
	if !ok {
		return nil, fmt.Errorf("%w: unknown provider %q", apperrors.ErrValidation, provider)
	}
	return adapter, nil
}
