package main

import (
	"context"
	"errors"
	"os"
	"time"

	"receipts/internal/backend"
	"receipts/internal/cli"
	"receipts/internal/log"
	"receipts/internal/services"
	"receipts/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentWorker)

	logger.Info("Starting receipts-worker")

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
	if backendConfig.Type != backend.SQLiteBackend {
		logger.Error("The worker needs the sqlite backend", log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	result, err := backend.NewFactory(logger).CreateBackend(startupCtx, backendConfig)
	cancelStartup()
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err.Error())
		os.Exit(1)
	}

	processor := services.NewReceiptProcessor(result.Repository, services.ProcessorConfig{
		SweepInterval: cfg.WorkerSweepInterval,
		BatchSize:     cfg.WorkerBatchSize,
		Location:      loc,
	}, logger)
	ingestWorker := worker.NewIngestWorker(processor, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := processor.Stop(ctx); err != nil {
			logger.Error("Processor stop error", log.FieldError, err.Error())
		}
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", log.FieldError, err.Error())
			}
		}
	})

	// Receipts stored while the worker was down.
	if err := ingestWorker.StartupCheck(ctx); err != nil {
		logger.Error("Startup check failed", log.FieldError, err.Error())
	}

	if err := processor.Start(ctx); err != nil {
		logger.Error("Failed to start receipt processor", log.FieldError, err.Error())
		os.Exit(1)
	}

	if consumer, ok := result.Publisher.(worker.Consumer); ok {
		go func() {
			if err := ingestWorker.Run(ctx, consumer); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", log.FieldError, err.Error())
			}
		}()
	} else {
		logger.Info("AMQP not configured, relying on the periodic sweep",
			"sweep_interval", cfg.WorkerSweepInterval.String())
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}
