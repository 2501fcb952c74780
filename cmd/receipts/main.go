package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"receipts/internal/backend"
	"receipts/internal/cache"
	"receipts/internal/cli"
	apphttp "receipts/internal/http"
	"receipts/internal/log"
	"receipts/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentApp)

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("Invalid timezone", log.FieldError, err.Error())
		os.Exit(1)
	}

	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err.Error())
		os.Exit(1)
	}

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	result, err := backend.NewFactory(logger).CreateBackend(startupCtx, backendConfig)
	cancelStartup()
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err.Error(), log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}

	dashboards := cache.NewLRUCache[*services.Response](cfg.AnalyticsCacheSize, cfg.AnalyticsCacheTTL)
	caches := cache.NewManager(logger)
	caches.Register(dashboards)
	caches.StartCleanup(time.Minute)

	analyticsService := services.NewAnalyticsService(services.AnalyticsOptions{
		Source:     result.Backend,
		StoreTypes: result.Backend,
		Location:   loc,
		Cache:      dashboards,
		Logger:     logger,
	})
	receiptService := services.NewReceiptService(result.Writer, result.Publisher, logger)

	srv := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		Analytics:          analyticsService,
		Receipts:           receiptService,
		Ready:              result,
		CacheStats:         dashboards.Stats,
		Location:           loc,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:     cfg.TrustedProxies,
		Logger:             logger,
	})
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err.Error())
		}
		caches.Stop()
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", log.FieldError, err.Error())
			}
		}
	})

	logger.Info("Starting receipts server",
		"port", cfg.Port,
		log.FieldBackend, cfg.DataBackend,
		"timezone", loc.String(),
		"writable", result.Writer != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
