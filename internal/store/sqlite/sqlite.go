// Package sqlite keeps each table as one row of a SQLite database. A write is a single
// upsert inside a transaction, so readers see either the old or the new payload.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"alugueis/internal/store"
)

type Store struct {
	db *sql.DB
}

var _ store.TableStore = (*Store)(nil)

// New opens (creating when needed) the database at dbPath and migrates it.
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One connection serialises writers inside the process.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) ReadTable(ctx context.Context, tableID string) ([]byte, error) {
	var content []byte
	err := s.db.QueryRowContext(ctx, `SELECT content FROM ledger_tables WHERE id = ?`, tableID).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrTableNotFound, tableID)
	}
	if err != nil {
		return nil, fmt.Errorf("read table %s: %w", tableID, err)
	}
	if len(content) == 0 {
		return nil, nil
	}
	return content, nil
}

func (s *Store) WriteTable(ctx context.Context, tableID string, data []byte) error {
	if tableID == "" {
		return store.ErrInvalidTableID
	}
	if data == nil {
		data = []byte{}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ledger_tables (id, name, content)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content = excluded.content,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`,
		tableID, tableID, data)
	if err != nil {
		return fmt.Errorf("write table %s: %w", tableID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) EnsureExists(ctx context.Context, tableID, name, containerID string) (string, error) {
	id := tableID
	if id == "" {
		id = name
	}
	if id == "" {
		return "", store.ErrInvalidTableID
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ledger_tables (id, name, container)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		id, name, containerID)
	if err != nil {
		return "", fmt.Errorf("ensure table %s: %w", id, err)
	}
	return id, nil
}
