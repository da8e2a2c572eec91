package backend

import (
	"context"
	"fmt"

	"google.golang.org/api/option"

	"alugueis/internal/cache"
	"alugueis/internal/googleauth"
	applog "alugueis/internal/log"
	"alugueis/internal/metrics"
	"alugueis/internal/store"
	"alugueis/internal/store/drive"
	"alugueis/internal/store/file"
	"alugueis/internal/store/gcs"
	"alugueis/internal/store/memory"
	"alugueis/internal/store/sheets"
	"alugueis/internal/store/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger  *applog.Logger
	metrics *metrics.Metrics
}

// NewFactory creates a new store factory. Every store it returns is instrumented with
// m (which may be nil) and logs through logger.
func NewFactory(logger *applog.Logger, m *metrics.Metrics) Factory {
	if logger == nil {
		logger = applog.Discard()
	}
	return &DefaultFactory{
		logger:  logger.WithComponent(applog.ComponentBackend),
		metrics: m,
	}
}

// CreateStore implements Factory.CreateStore
func (f *DefaultFactory) CreateStore(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		s   store.TableStore
		err error
	)
	switch config.Type {
	case MemoryBackend:
		s = memory.New()
		f.logger.Info("Initialized memory backend")
	case FileBackend:
		s, err = file.New(config.DataDirectory)
		if err == nil {
			f.logger.Info("Initialized file backend", "data_directory", config.DataDirectory)
		}
	case SQLiteBackend:
		s, err = sqlite.New(config.SQLiteDBPath)
		if err == nil {
			f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		}
	case SheetsBackend:
		s, err = f.createSheets(ctx, config)
	case DriveBackend:
		s, err = f.createDrive(ctx, config)
	case GCSBackend:
		s, err = f.createGCS(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s backend: %w", config.Type, err)
	}

	instrumented := store.Instrument(s, config.Type.String(), f.metrics, f.logger)
	if config.CacheTTL > 0 && config.Type.IsRemote() {
		cached := cache.NewStore(instrumented, config.CacheTTL)
		f.logger.Info("Enabled table read cache", "ttl", config.CacheTTL.String())
		return &Result{Store: cached, Cleanup: cached.Close}, nil
	}
	return &Result{Store: instrumented, Cleanup: instrumented.Close}, nil
}

func (f *DefaultFactory) clientOptions(ctx context.Context, config Config, scopes []string) ([]option.ClientOption, error) {
	opts, err := googleauth.ClientOptions(ctx, config.Credentials, scopes...)
	if err != nil {
		return nil, err
	}
	if config.Credentials.Endpoint != "" {
		f.logger.Warn("Using Google API endpoint override without authentication", "endpoint", config.Credentials.Endpoint)
	}
	return opts, nil
}

func (f *DefaultFactory) createSheets(ctx context.Context, config Config) (store.TableStore, error) {
	opts, err := f.clientOptions(ctx, config, sheets.Scopes)
	if err != nil {
		return nil, err
	}
	s, err := sheets.New(ctx, config.GoogleSpreadsheetID, opts...)
	if err != nil {
		return nil, err
	}
	f.logger.Info("Initialized Google Sheets backend", "spreadsheet_id", config.GoogleSpreadsheetID)
	return s, nil
}

func (f *DefaultFactory) createDrive(ctx context.Context, config Config) (store.TableStore, error) {
	opts, err := f.clientOptions(ctx, config, drive.Scopes)
	if err != nil {
		return nil, err
	}
	s, err := drive.New(ctx, opts...)
	if err != nil {
		return nil, err
	}
	f.logger.Info("Initialized Google Drive backend")
	return s, nil
}

func (f *DefaultFactory) createGCS(ctx context.Context, config Config) (store.TableStore, error) {
	opts, err := f.clientOptions(ctx, config, gcs.Scopes)
	if err != nil {
		return nil, err
	}
	s, err := gcs.New(ctx, config.GCSBucket, config.GCSPrefix, opts...)
	if err != nil {
		return nil, err
	}
	f.logger.Info("Initialized Cloud Storage backend", "bucket", config.GCSBucket, "prefix", config.GCSPrefix)
	return s, nil
}
