package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Backend names accepted by DATA_BACKEND and ARCHIVE_BACKEND.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendSheets = "sheets"
	BackendDrive  = "drive"
	BackendGCS    = "gcs"
)

var (
	dataBackends    = []string{BackendMemory, BackendFile, BackendSQLite, BackendSheets, BackendDrive, BackendGCS}
	archiveBackends = []string{"", BackendMemory, BackendFile, BackendGCS}
	logLevels       = []string{"debug", "info", "warn", "error"}
)

type Config struct {
	// HTTP Server
	Port               string        `envconfig:"PORT" default:"8081"`
	LogLevel           string        `envconfig:"LOG_LEVEL" default:"info"`
	RateLimitPerMinute int           `envconfig:"RATE_LIMIT_PER_MINUTE" default:"60"`
	ShutdownTimeout    time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	CORSAllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS"`
	CacheTTL           time.Duration `envconfig:"CACHE_TTL" default:"30s"`

	// Backend selection
	DataBackend string `envconfig:"DATA_BACKEND" default:"memory"`

	// Tables. An empty ID is resolved (or created) from the name at startup.
	TransactionsTableID   string `envconfig:"TRANSACTIONS_TABLE_ID"`
	TransactionsTableName string `envconfig:"TRANSACTIONS_TABLE_NAME" default:"financas_alugueis.csv"`
	OccupancyTableID      string `envconfig:"OCCUPANCY_TABLE_ID"`
	OccupancyTableName    string `envconfig:"OCCUPANCY_TABLE_NAME" default:"vacancia_alugueis.csv"`

	// File and SQLite
	DataDir      string `envconfig:"DATA_DIR" default:"./data"`
	SQLiteDBPath string `envconfig:"SQLITE_DB_PATH" default:"./data/alugueis.db"`

	// Google
	GoogleSpreadsheetID      string `envconfig:"GOOGLE_SPREADSHEET_ID"`
	GoogleDriveFolderID      string `envconfig:"GOOGLE_DRIVE_FOLDER_ID"`
	GoogleServiceAccountJSON string `envconfig:"GOOGLE_SERVICE_ACCOUNT_JSON"`
	GoogleServiceAccountFile string `envconfig:"GOOGLE_SERVICE_ACCOUNT_FILE"`
	GoogleOAuthClientFile    string `envconfig:"GOOGLE_OAUTH_CLIENT_FILE"`
	GoogleOAuthTokenFile     string `envconfig:"GOOGLE_OAUTH_TOKEN_FILE"`
	GoogleOAuthClientJSON    string `envconfig:"GOOGLE_OAUTH_CLIENT_JSON"`
	GoogleOAuthTokenJSON     string `envconfig:"GOOGLE_OAUTH_TOKEN_JSON"`
	GoogleAPIEndpoint        string `envconfig:"GOOGLE_API_ENDPOINT"`
	GCSBucket                string `envconfig:"GCS_BUCKET"`
	GCSPrefix                string `envconfig:"GCS_PREFIX" default:"alugueis"`

	// AMQP (optional)
	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"alugueis"`
	AMQPQueue    string `envconfig:"AMQP_QUEUE" default:"ledger_changed"`

	// Archive worker
	ArchiveBackend string `envconfig:"ARCHIVE_BACKEND" default:"file"`
	ArchiveDir     string `envconfig:"ARCHIVE_DIR" default:"./data/arquivo"`
	ArchivePrefix  string `envconfig:"ARCHIVE_PREFIX" default:"arquivo"`
}

// Load reads the configuration from the environment, applying defaults.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return &cfg, nil
}

// HasGoogleCredentials reports whether any Google credential source is configured.
func (c *Config) HasGoogleCredentials() bool {
	return c.GoogleServiceAccountJSON != "" || c.GoogleServiceAccountFile != "" ||
		((c.GoogleOAuthClientFile != "" || c.GoogleOAuthClientJSON != "") &&
			(c.GoogleOAuthTokenFile != "" || c.GoogleOAuthTokenJSON != "")) ||
		c.GoogleAPIEndpoint != "" ||
		os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !contains(logLevels, strings.ToLower(c.LogLevel)) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, logLevels))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1", c.RateLimitPerMinute))
	}
	if c.ShutdownTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must be at least 1 second", c.ShutdownTimeout))
	}
	if c.CacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must not be negative", c.CacheTTL))
	}
	for _, origin := range c.CORSAllowedOrigins {
		if origin == "*" {
			continue
		}
		if u, err := url.Parse(origin); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid CORS origin '%s': must be '*' or an http(s) origin", origin))
		}
	}

	if !contains(dataBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, dataBackends))
	}
	if c.TransactionsTableID == "" && c.TransactionsTableName == "" {
		errors = append(errors, "TRANSACTIONS_TABLE_ID or TRANSACTIONS_TABLE_NAME must be set")
	}
	if c.OccupancyTableID == "" && c.OccupancyTableName == "" {
		errors = append(errors, "OCCUPANCY_TABLE_ID or OCCUPANCY_TABLE_NAME must be set")
	}

	switch c.DataBackend {
	case BackendFile:
		if c.DataDir == "" {
			errors = append(errors, "DATA_DIR cannot be empty when using file backend")
		}
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			// Check if directory exists or can be created
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0o755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	case BackendSheets:
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		errors = append(errors, c.validateGoogle(BackendSheets)...)
	case BackendDrive:
		errors = append(errors, c.validateGoogle(BackendDrive)...)
	case BackendGCS:
		if c.GCSBucket == "" {
			errors = append(errors, "GCS_BUCKET is required when using gcs backend")
		}
		errors = append(errors, c.validateGoogle(BackendGCS)...)
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if !contains(archiveBackends, c.ArchiveBackend) {
		errors = append(errors, fmt.Sprintf("invalid archive backend '%s': must be one of %v", c.ArchiveBackend, archiveBackends[1:]))
	}
	if c.ArchiveBackend == BackendFile && c.ArchiveDir == "" {
		errors = append(errors, "ARCHIVE_DIR cannot be empty when using file archive backend")
	}
	if c.ArchiveBackend == BackendGCS && c.GCSBucket == "" {
		errors = append(errors, "GCS_BUCKET is required when using gcs archive backend")
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func (c *Config) validateGoogle(backend string) []string {
	var errors []string
	if !c.HasGoogleCredentials() {
		errors = append(errors, fmt.Sprintf("Google credentials are required for %s backend (service account, GOOGLE_APPLICATION_CREDENTIALS or OAuth client + token)", backend))
	}

	// Check that referenced credential files exist
	for _, f := range []struct{ label, path string }{
		{"Google service account file", c.GoogleServiceAccountFile},
		{"Google OAuth client file", c.GoogleOAuthClientFile},
		{"Google OAuth token file", c.GoogleOAuthTokenFile},
	} {
		if f.path == "" {
			continue
		}
		if _, err := os.Stat(f.path); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("%s does not exist: %s", f.label, f.path))
		}
	}
	return errors
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
