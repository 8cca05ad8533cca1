package services

import (
	"log/slog"

	portsrepo "github.com/oks-citadel/citadelbuy-fx/internal/core/ports/repositories"
	portssvc "github.com/oks-citadel/citadelbuy-fx/internal/core/ports/services"
	"github.com/oks-citadel/citadelbuy-fx/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(
	cfg *config.Config,
	cache portsrepo.RateCache,
	history portsrepo.RateHistoryRepository,
	locker portsrepo.DistributedLocker,
	registry portsrepo.ProviderRegistry,
	logger *slog.Logger,
) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.Fx = NewFxRefreshService(cache, history, locker, registry, logger, FxRefreshConfig{
		CacheTTL:       cfg.CacheTTL,
		StaleWindow:    cfg.StaleWindow,
		LockTTL:        cfg.LockTTL,
		BaseCurrencies: cfg.BaseCurrencies,
	})

	return container
}

// Helper to check interface implementations at compile time
var _ portssvc.FxSvcFacade = (*FxRefreshService)(nil)
