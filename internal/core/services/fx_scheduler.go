package services

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/oks-citadel/citadelbuy-fx/internal/core/domain"
	portssvc "github.com/oks-citadel/citadelbuy-fx/internal/core/ports/services"
)

// FxScheduler periodically enqueues one refresh per supported base
// currency. Each refresh gets a small random delay so horizontally
// scaled instances ticking at the same moment do not hit the providers
// simultaneously. Jobs run with forceRefresh=false: the orchestrator's
// freshness check makes redundant ticks cheap.
type FxScheduler struct {
	fx       portssvc.FxRefreshSvc
	bases    []string
	interval time.Duration
	stagger  time.Duration
	logger   *slog.Logger
}

// NewFxScheduler creates a new FxScheduler.
func NewFxScheduler(fx portssvc.FxRefreshSvc, bases []string, interval, stagger time.Duration, logger *slog.Logger) *FxScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FxScheduler{
		fx:       fx,
		bases:    bases,
		interval: interval,
		stagger:  stagger,
		logger:   logger,
	}
}

// Run ticks until ctx is cancelled, then waits for in-flight refreshes
// to drain. It performs one pass immediately so a cold-started instance
// warms the cache without waiting a full interval.
func (s *FxScheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	var wg sync.WaitGroup
	s.tick(ctx, &wg)

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			s.logger.Info("Scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx, &wg)
		}
	}
}

func (s *FxScheduler) tick(ctx context.Context, wg *sync.WaitGroup) {
	for _, base := range s.bases {
		delay := time.Duration(0)
		if s.stagger > 0 {
			delay = time.Duration(rand.Int63n(int64(s.stagger)))
		}

		wg.Add(1)
		go func(base string, delay time.Duration) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}

			result := s.fx.RefreshRates(ctx, domain.RefreshJob{BaseCurrency: base})
			if !result.Success {
				s.logger.Warn("Scheduled refresh failed",
					slog.String("base_currency", base),
					slog.String("error", result.Error),
				)
			}
		}(base, delay)
	}
}
