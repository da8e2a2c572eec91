package cache

import (
	"context"
	"sync/atomic"
	"time"

	"alugueis/internal/store"
)

// maxTables bounds the cache; the ledger has two tables.
const maxTables = 8

// Store serves ReadTable from memory for ttl after a read or write of the same table.
// Writes go straight through and refresh the cached copy, so a process that is the only
// writer always reads its own writes.
type Store struct {
	next   store.TableStore
	tables *LRUCache[[]byte]
	hits   int64
	misses int64
}

var _ store.TableStore = (*Store)(nil)

// NewStore wraps next with a read cache.
func NewStore(next store.TableStore, ttl time.Duration) *Store {
	return &Store{next: next, tables: NewLRUCache[[]byte](maxTables, ttl)}
}

func (s *Store) ReadTable(ctx context.Context, tableID string) ([]byte, error) {
	if data, ok := s.tables.Get(tableID); ok {
		atomic.AddInt64(&s.hits, 1)
		return clone(data), nil
	}
	atomic.AddInt64(&s.misses, 1)
	data, err := s.next.ReadTable(ctx, tableID)
	if err != nil {
		return nil, err
	}
	s.tables.Set(tableID, clone(data))
	return data, nil
}

func (s *Store) WriteTable(ctx context.Context, tableID string, data []byte) error {
	if err := s.next.WriteTable(ctx, tableID, data); err != nil {
		// The remote state is unknown after a failed write.
		s.tables.Delete(tableID)
		return err
	}
	s.tables.Set(tableID, clone(data))
	return nil
}

func (s *Store) EnsureExists(ctx context.Context, tableID, name, container string) (string, error) {
	return s.next.EnsureExists(ctx, tableID, name, container)
}

// Close closes the wrapped store when it holds resources.
func (s *Store) Close() error {
	if c, ok := s.next.(store.Closer); ok {
		return c.Close()
	}
	return nil
}

// Stats returns the number of cache hits and misses.
func (s *Store) Stats() (hits, misses int64) {
	return atomic.LoadInt64(&s.hits), atomic.LoadInt64(&s.misses)
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
