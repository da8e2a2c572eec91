// Package cli provides common CLI initialization utilities.
// This package consolidates repeated initialization patterns across
// cmd/alugueis, cmd/alugueis-worker and cmd/alugueis-report.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"alugueis/internal/amqp"
	"alugueis/internal/backend"
	"alugueis/internal/config"
	applog "alugueis/internal/log"
	"alugueis/internal/metrics"
	"alugueis/internal/services"
)

// SetupLogger initializes structured logging at the given LOG_LEVEL and sets it as the
// default logger.
func SetupLogger(level string) *applog.Logger {
	cfg := applog.DefaultConfig()
	cfg.Level = applog.ParseLevel(level)
	logger := applog.New(cfg)
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LedgerTables returns the table identifiers configured for the ledger.
func LedgerTables(cfg *config.Config) services.Tables {
	return services.Tables{
		TransactionsID:   cfg.TransactionsTableID,
		TransactionsName: cfg.TransactionsTableName,
		OccupancyID:      cfg.OccupancyTableID,
		OccupancyName:    cfg.OccupancyTableName,
		Container:        cfg.GoogleDriveFolderID,
	}
}

// OpenLedger creates the configured store and an initialized ledger service on top of
// it. The returned cleanup releases the store.
func OpenLedger(ctx context.Context, cfg *config.Config, logger *applog.Logger, m *metrics.Metrics, opts ...services.Option) (*services.LedgerService, backend.CleanupFunc, error) {
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	res, err := backend.NewFactory(logger, m).CreateStore(ctx, bc)
	if err != nil {
		return nil, nil, err
	}

	opts = append([]services.Option{services.WithLogger(logger), services.WithMetrics(m)}, opts...)
	svc := services.NewLedgerService(res.Store, LedgerTables(cfg), opts...)
	if err := svc.Init(ctx); err != nil {
		_ = res.Cleanup()
		return nil, nil, fmt.Errorf("initialize ledger: %w", err)
	}
	return svc, res.Cleanup, nil
}

// ConnectAMQP dials the broker when AMQP_URL is set. A nil client means messaging is off.
func ConnectAMQP(cfg *config.Config, logger *applog.Logger) (*amqp.Client, error) {
	if cfg.AMQPURL == "" {
		logger.Info("AMQP disabled - no AMQP_URL provided")
		return nil, nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to AMQP: %w", err)
	}
	return client, nil
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *applog.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
