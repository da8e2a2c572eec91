package backend

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alugueis/internal/cache"
	"alugueis/internal/config"
	"alugueis/internal/googleauth"
	"alugueis/internal/metrics"
	"alugueis/internal/store"
)

func TestBackendTypeIsValid(t *testing.T) {
	for _, bt := range GetBackendTypes() {
		assert.True(t, bt.IsValid(), bt)
	}
	assert.False(t, BackendType("postgres").IsValid())
	assert.Equal(t, []string{"memory", "file", "sqlite", "sheets", "drive", "gcs"}, GetBackendTypeStrings())
}

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	require.Error(t, err)

	_, err = FromAppConfig(&config.Config{DataBackend: "bogus"})
	require.Error(t, err)

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:           "sheets",
		GoogleSpreadsheetID:   "abc",
		GoogleOAuthClientFile: "client.json",
		GoogleOAuthTokenFile:  "token.json",
	})
	require.NoError(t, err)
	assert.Equal(t, SheetsBackend, cfg.Type)
	assert.Equal(t, "abc", cfg.GoogleSpreadsheetID)
	assert.True(t, cfg.Credentials.HasOAuth())
}

func TestArchiveFromAppConfig(t *testing.T) {
	cfg, err := ArchiveFromAppConfig(&config.Config{ArchiveBackend: "file", ArchiveDir: "arq"})
	require.NoError(t, err)
	assert.Equal(t, Config{Type: FileBackend, DataDirectory: "arq"}, cfg)

	cfg, err = ArchiveFromAppConfig(&config.Config{ArchiveBackend: "gcs", GCSBucket: "b", ArchivePrefix: "arquivo"})
	require.NoError(t, err)
	assert.Equal(t, GCSBackend, cfg.Type)
	assert.Equal(t, "arquivo", cfg.GCSPrefix)

	_, err = ArchiveFromAppConfig(&config.Config{ArchiveBackend: "sheets"})
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"file without dir", Config{Type: FileBackend}, true},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"sheets without id", Config{Type: SheetsBackend}, true},
		{"gcs without bucket", Config{Type: GCSBackend}, true},
		{"drive", Config{Type: DriveBackend}, false},
		{"unknown", Config{Type: "x"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCreateStoreLocalBackends(t *testing.T) {
	dir := t.TempDir()
	f := NewFactory(nil, metrics.New())
	ctx := context.Background()

	for _, cfg := range []Config{
		{Type: MemoryBackend},
		{Type: FileBackend, DataDirectory: filepath.Join(dir, "files")},
		{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "db", "alugueis.db")},
	} {
		t.Run(cfg.Type.String(), func(t *testing.T) {
			res, err := f.CreateStore(ctx, cfg)
			require.NoError(t, err)
			t.Cleanup(func() { _ = res.Cleanup() })

			_, ok := res.Store.(*store.Instrumented)
			assert.True(t, ok)

			id, err := res.Store.EnsureExists(ctx, "", "financas_alugueis.csv", "")
			require.NoError(t, err)
			require.NoError(t, res.Store.WriteTable(ctx, id, []byte("a,b\n")))
			got, err := res.Store.ReadTable(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, "a,b\n", string(got))
		})
	}
}

func TestCreateStoreGoogleBackendsWithEndpoint(t *testing.T) {
	f := NewFactory(nil, nil)
	creds := googleauth.Credentials{Endpoint: "http://127.0.0.1:1/"}

	for _, cfg := range []Config{
		{Type: SheetsBackend, GoogleSpreadsheetID: "sheet", Credentials: creds},
		{Type: DriveBackend, Credentials: creds},
		{Type: GCSBackend, GCSBucket: "bucket", Credentials: creds},
	} {
		t.Run(cfg.Type.String(), func(t *testing.T) {
			res, err := f.CreateStore(context.Background(), cfg)
			require.NoError(t, err)
			require.NotNil(t, res.Store)
			_ = res.Cleanup()
		})
	}
}

func TestCreateStoreWithoutCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	f := NewFactory(nil, nil)

	_, err := f.CreateStore(context.Background(), Config{Type: DriveBackend})
	assert.ErrorIs(t, err, googleauth.ErrNoCredentials)
}

func TestCreateStoreCachesRemoteBackends(t *testing.T) {
	f := NewFactory(nil, nil)
	creds := googleauth.Credentials{Endpoint: "http://127.0.0.1:1/"}

	res, err := f.CreateStore(context.Background(), Config{Type: GCSBackend, GCSBucket: "bucket", Credentials: creds, CacheTTL: time.Minute})
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Cleanup() })
	_, ok := res.Store.(*cache.Store)
	assert.True(t, ok)

	// Local backends ignore the cache setting.
	res, err = f.CreateStore(context.Background(), Config{Type: MemoryBackend, CacheTTL: time.Minute})
	require.NoError(t, err)
	_, ok = res.Store.(*store.Instrumented)
	assert.True(t, ok)
}
