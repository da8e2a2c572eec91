// Package file stores each table as a file under a base directory. Writes go to a
// temporary file in the same directory, are synced and then renamed over the target,
// so a failed write never leaves a truncated table behind.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"alugueis/internal/store"
)

type Store struct {
	dir string
}

var _ store.TableStore = (*Store)(nil)

// New creates the base directory when missing.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("file store: empty directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the base directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(tableID string) (string, error) {
	key, err := store.CleanKey(tableID)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.dir, filepath.FromSlash(key)), nil
}

func (s *Store) ReadTable(ctx context.Context, tableID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.path(tableID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", store.ErrTableNotFound, tableID)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", tableID, err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	return data, nil
}

func (s *Store) WriteTable(ctx context.Context, tableID string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.path(tableID)
	if err != nil {
		return err
	}
	return writeAtomic(p, data)
}

func (s *Store) EnsureExists(ctx context.Context, tableID, name, _ string) (string, error) {
	id := tableID
	if id == "" {
		id = name
	}
	p, err := s.path(id)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(p); err == nil {
		return id, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("stat %s: %w", id, err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := writeAtomic(p, nil); err != nil {
		return "", err
	}
	return id, nil
}

func writeAtomic(target string, data []byte) (err error) {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(target), err)
	}

	// Persist the rename itself; not every platform can sync a directory.
	if d, derr := os.Open(dir); derr == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}
