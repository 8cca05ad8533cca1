package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/oks-citadel/citadelbuy-fx/internal/adapters/cache/memfx"
	"github.com/oks-citadel/citadelbuy-fx/internal/adapters/cache/redisfx"
	"github.com/oks-citadel/citadelbuy-fx/internal/adapters/database/pgsql"
	"github.com/oks-citadel/citadelbuy-fx/internal/adapters/providers"
	"github.com/oks-citadel/citadelbuy-fx/internal/core/domain"
	portsrepo "github.com/oks-citadel/citadelbuy-fx/internal/core/ports/repositories"
	"github.com/oks-citadel/citadelbuy-fx/internal/core/services"
	"github.com/oks-citadel/citadelbuy-fx/internal/handlers"
	"github.com/oks-citadel/citadelbuy-fx/internal/middleware"
	"github.com/oks-citadel/citadelbuy-fx/internal/platform/config"
	"github.com/oks-citadel/citadelbuy-fx/pkg/database"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// @title CitadelBuy FX Worker API
// @version 1.0
// @description Exchange rate refresh worker: scheduled, lock-guarded refreshes with a staleness-aware cache and append-only rate history.

// @host localhost:8080
// @BasePath /
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Root context cancelled on SIGINT/SIGTERM; the scheduler and the HTTP
	// server both shut down from it.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Rate history persistence is optional: without a database URL the
	// worker still serves and refreshes rates, it just keeps no history.
	var history portsrepo.RateHistoryRepository = pgsql.NewRateHistoryRepository(nil)
	if cfg.DatabaseURL != "" {
		dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer database.ClosePgxPool(dbPool)
		logger.Info("Database connection pool established.")

		if err := runMigrations(cfg.DatabaseURL, logger); err != nil {
			logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
			os.Exit(1)
		}

		history = pgsql.NewRateHistoryRepository(dbPool)
	}

	// Cache and lock backend. Redis when configured, otherwise the
	// in-process fallback (single instance only; LoadConfig already warned).
	var (
		cache  portsrepo.RateCache
		locker portsrepo.DistributedLocker
	)
	if cfg.RedisAddr != "" {
		redisClient, err := database.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Error("Failed to connect to redis", slog.String("addr", cfg.RedisAddr), slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer database.CloseRedisClient(redisClient)
		logger.Info("Redis connection established.", slog.String("addr", cfg.RedisAddr))

		cache = redisfx.NewRateCache(redisClient)
		locker = redisfx.NewLocker(redisClient)
	} else {
		cache = memfx.NewRateCache()
		locker = memfx.NewLocker()
	}

	registry := providers.NewRegistry(
		domain.Provider(cfg.DefaultProvider),
		providers.NewOpenExchangeRates(cfg.OpenExchangeRatesURL, cfg.OpenExchangeRatesAppID, cfg.ProviderTimeout),
		providers.NewECB(cfg.ECBFeedURL, cfg.ProviderTimeout),
		providers.NewCurrencyLayer(cfg.CurrencyLayerURL, cfg.CurrencyLayerAccessKey, cfg.ProviderTimeout),
	)

	container := services.NewServiceContainer(cfg, cache, history, locker, registry, logger)

	scheduler := services.NewFxScheduler(container.Fx, cfg.BaseCurrencies, cfg.RefreshInterval, cfg.RefreshStagger, logger)
	schedulerDone := make(chan struct{})
	go func() {
		defer close(schedulerDone)
		scheduler.Run(ctx)
	}()

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery, CORS)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery(), cors.Default())

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, container)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		<-ctx.Done()
		logger.Info("Shutdown signal received, stopping server...")
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Error("Server shutdown error", slog.String("error", err.Error()))
		}
	}()

	logger.Info("Server starting", slog.String("port", cfg.Port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Wait for in-flight refreshes to finish before exiting.
	<-schedulerDone
	logger.Info("Shutdown complete.")
}

// runMigrations applies all pending "up" migrations using a temporary
// database/sql connection on the pgx stdlib driver.
func runMigrations(databaseURL string, logger *slog.Logger) error {
	logger.Info("Running database migrations...")

	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()

	if err := migrationDB.Ping(); err != nil {
		return err
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return err
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return err
	}

	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		return sourceErr
	}
	if dbErr != nil {
		return dbErr
	}

	if err == migrate.ErrNoChange {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}
