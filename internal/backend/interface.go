package backend

import (
	"context"
	"time"

	"alugueis/internal/googleauth"
	"alugueis/internal/store"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result contains the store instance and optional cleanup function
type Result struct {
	Store   store.TableStore
	Cleanup CleanupFunc
}

// Factory creates record stores based on configuration
type Factory interface {
	// CreateStore creates a store instance based on the provided config
	CreateStore(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for store creation
type Config struct {
	// Backend type
	Type BackendType

	// File specific
	DataDirectory string

	// SQLite specific
	SQLiteDBPath string

	// Google specific
	GoogleSpreadsheetID string
	GCSBucket           string
	GCSPrefix           string
	Credentials         googleauth.Credentials

	// CacheTTL enables the read cache of the remote backends (sheets, drive, gcs).
	CacheTTL time.Duration
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	FileBackend   BackendType = "file"
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
	DriveBackend  BackendType = "drive"
	GCSBackend    BackendType = "gcs"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsRemote reports whether the backend is reached over the network.
func (bt BackendType) IsRemote() bool {
	return bt == SheetsBackend || bt == DriveBackend || bt == GCSBackend
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, FileBackend, SQLiteBackend, SheetsBackend, DriveBackend, GCSBackend:
		return true
	default:
		return false
	}
}
