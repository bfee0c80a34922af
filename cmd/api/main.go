package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"stockscreener/internal/config"
	"stockscreener/internal/database"
	"stockscreener/internal/handlers"
	"stockscreener/internal/logger"
	"stockscreener/internal/provider"
	"stockscreener/internal/server"
	"stockscreener/internal/services"
	"stockscreener/internal/validator"
)

// @title           Stock Screener API
// @version         1.0
// @description     Maintains a list of ticker symbols, keeps their quote metrics fresh in the background and screens them by valuation, yield and trend thresholds.

// @host      localhost:8080
// @BasePath  /api/v1

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize database configuration
	dbConfig, err := database.NewConfig(appConfig)
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnf("failed to close database: %v", err)
		}
	}()

	// Run migrations
	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Quote provider, optionally behind the Redis cache
	var quotes provider.Provider = provider.NewYahooProvider(
		&http.Client{Timeout: appConfig.RequestTimeout},
		appConfig.QuoteBaseURL,
	)
	if appConfig.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     appConfig.RedisAddr,
			Password: appConfig.RedisPassword,
			DB:       appConfig.RedisDB,
		})
		defer func() { _ = rdb.Close() }()

		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warnw("redis unreachable, quotes will be fetched uncached", "addr", appConfig.RedisAddr, "error", err)
		}
		quotes = provider.NewCachedProvider(quotes, rdb, appConfig.QuoteCacheTTL)
	}

	// Initialize services
	db := dbManager.DB()
	store := services.NewStockStore(db)
	engine := services.NewSyncEngine(store, quotes, services.SyncConfig{
		Workers:      appConfig.SyncWorkers,
		FetchTimeout: appConfig.RequestTimeout,
		MaxRetries:   appConfig.SyncMaxRetries,
		RetryBackoff: appConfig.SyncRetryBackoff,
		Interval:     appConfig.SyncInterval,
	})
	engine.Start(ctx)
	defer engine.Stop()

	// Refresh everything on boot; this also retries fetches cut short by the last shutdown.
	if scheduled, err := engine.RefreshAll(); err != nil {
		log.Warnw("initial refresh failed", "error", err)
	} else {
		log.Infow("initial refresh scheduled", "stocks", scheduled)
	}

	stockService := services.NewStockService(store, engine)
	auditService := services.NewAuditService(db)

	// Initialize handlers
	validator.Register()
	stockHandler := handlers.NewStockHandler(stockService, auditService)

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           server.NewRouter(stockHandler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting stock screener on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		log.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
