// Command alugueis-worker consumes ledger change events and archives a dated copy of
// every report.
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"alugueis/internal/backend"
	"alugueis/internal/cli"
	applog "alugueis/internal/log"
	"alugueis/internal/metrics"
	"alugueis/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		logger.Error("Configuration error", applog.FieldError, err)
		os.Exit(1)
	}
	logger = cli.SetupLogger(cfg.LogLevel).WithComponent(applog.ComponentWorker)
	logger.Info("Starting alugueis-worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	// Events announce writes made by another process; reads must reach the backend.
	cfg.CacheTTL = 0

	m := metrics.New()
	startCtx, cancelStart := context.WithTimeout(context.Background(), time.Minute)
	defer cancelStart()

	svc, cleanup, err := cli.OpenLedger(startCtx, cfg, logger, m)
	if err != nil {
		logger.Error("Failed to open ledger", applog.FieldError, err, applog.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	defer func() { _ = cleanup() }()

	archiveCfg, err := backend.ArchiveFromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid archive configuration", applog.FieldError, err)
		os.Exit(1)
	}
	archive, err := backend.NewFactory(logger, m).CreateStore(startCtx, archiveCfg)
	if err != nil {
		logger.Error("Failed to open archive store", applog.FieldError, err, applog.FieldBackend, cfg.ArchiveBackend)
		os.Exit(1)
	}
	defer func() { _ = archive.Cleanup() }()

	amqpClient, err := cli.ConnectAMQP(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	w := worker.NewArchiveWorker(svc, archive.Store, m, logger)

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, nil)

	// Archive once at startup so changes made while the worker was down are covered.
	if err := w.StartupArchive(ctx); err != nil {
		logger.Error("Startup archive failed", applog.FieldError, err)
	}

	go func() {
		if err := amqpClient.ConsumeLedgerChanged(ctx, w.Handle); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", applog.FieldError, err)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
