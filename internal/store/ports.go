// Package store defines the Record Store port: whole-table reads and atomic whole-table
// writes keyed by a table identifier. Adapters live in the sub-packages.
package store

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

// TableStore persists opaque table payloads.
type TableStore interface {
	// ReadTable returns the stored bytes of a table. A table that exists but was never
	// written, or an empty table, yields (nil, nil).
	ReadTable(ctx context.Context, tableID string) ([]byte, error)

	// WriteTable replaces the whole table. Readers never observe a partial write.
	WriteTable(ctx context.Context, tableID string, data []byte) error

	// EnsureExists returns the identifier of an existing table, creating an empty one
	// named name inside containerID when tableID does not resolve. It is idempotent.
	EnsureExists(ctx context.Context, tableID, name, containerID string) (string, error)
}

// Closer is implemented by stores holding connections.
type Closer interface {
	Close() error
}

var (
	// ErrTableNotFound reports a read of a table that does not exist.
	ErrTableNotFound = errors.New("table not found")

	// ErrInvalidTableID reports an identifier the store cannot address.
	ErrInvalidTableID = errors.New("invalid table id")
)

// CleanKey validates a slash-separated table key used by path-like stores (file, gcs):
// relative, non-empty and without "." or ".." elements.
func CleanKey(key string) (string, error) {
	k := strings.TrimSpace(key)
	if k == "" || strings.HasPrefix(k, "/") || strings.Contains(k, "\\") {
		return "", fmt.Errorf("%w: %q", ErrInvalidTableID, key)
	}
	for _, part := range strings.Split(k, "/") {
		if part == "" || part == "." || part == ".." {
			return "", fmt.Errorf("%w: %q", ErrInvalidTableID, key)
		}
	}
	return path.Clean(k), nil
}
