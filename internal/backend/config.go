package backend

import (
	"fmt"

	"alugueis/internal/config"
	"alugueis/internal/googleauth"
)

// FromAppConfig converts the application config to the ledger store config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:                backendType,
		DataDirectory:       appConfig.DataDir,
		SQLiteDBPath:        appConfig.SQLiteDBPath,
		GoogleSpreadsheetID: appConfig.GoogleSpreadsheetID,
		GCSBucket:           appConfig.GCSBucket,
		GCSPrefix:           appConfig.GCSPrefix,
		Credentials:         credentials(appConfig),
		CacheTTL:            appConfig.CacheTTL,
	}, nil
}

// ArchiveFromAppConfig returns the config of the store the archive worker writes to.
func ArchiveFromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	switch BackendType(appConfig.ArchiveBackend) {
	case FileBackend, "":
		return Config{Type: FileBackend, DataDirectory: appConfig.ArchiveDir}, nil
	case GCSBackend:
		return Config{
			Type:        GCSBackend,
			GCSBucket:   appConfig.GCSBucket,
			GCSPrefix:   appConfig.ArchivePrefix,
			Credentials: credentials(appConfig),
		}, nil
	case MemoryBackend:
		return Config{Type: MemoryBackend}, nil
	default:
		return Config{}, fmt.Errorf("invalid archive backend in config: %s", appConfig.ArchiveBackend)
	}
}

func credentials(c *config.Config) googleauth.Credentials {
	return googleauth.Credentials{
		ServiceAccountJSON: c.GoogleServiceAccountJSON,
		ServiceAccountFile: c.GoogleServiceAccountFile,
		OAuthClientJSON:    c.GoogleOAuthClientJSON,
		OAuthClientFile:    c.GoogleOAuthClientFile,
		OAuthTokenJSON:     c.GoogleOAuthTokenJSON,
		OAuthTokenFile:     c.GoogleOAuthTokenFile,
		Endpoint:           c.GoogleAPIEndpoint,
	}
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case FileBackend:
		if c.DataDirectory == "" {
			return fmt.Errorf("data directory is required for file backend")
		}
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case SheetsBackend:
		if c.GoogleSpreadsheetID == "" {
			return fmt.Errorf("Google Spreadsheet ID is required for sheets backend")
		}
	case GCSBackend:
		if c.GCSBucket == "" {
			return fmt.Errorf("GCS bucket is required for gcs backend")
		}
	case MemoryBackend, DriveBackend:
		// Credentials are resolved when the client is created
	}

	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{MemoryBackend, FileBackend, SQLiteBackend, SheetsBackend, DriveBackend, GCSBackend}
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	strings := make([]string, len(types))
	for i, t := range types {
		strings[i] = t.String()
	}
	return strings
}
