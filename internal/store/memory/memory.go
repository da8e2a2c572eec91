// Package memory is an in-process TableStore for tests and demos.
package memory

import (
	"context"
	"fmt"
	"sync"

	"alugueis/internal/store"
)

type Store struct {
	mu     sync.Mutex
	tables map[string][]byte
}

var _ store.TableStore = (*Store)(nil)

func New() *Store {
	return &Store{tables: make(map[string][]byte)}
}

// NewWithTables returns a store preloaded with the given payloads.
func NewWithTables(tables map[string][]byte) *Store {
	s := New()
	for id, data := range tables {
		s.tables[id] = append([]byte(nil), data...)
	}
	return s
}

func (s *Store) ReadTable(_ context.Context, tableID string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.tables[tableID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrTableNotFound, tableID)
	}
	if len(data) == 0 {
		return nil, nil
	}
	return append([]byte(nil), data...), nil
}

func (s *Store) WriteTable(_ context.Context, tableID string, data []byte) error {
	if tableID == "" {
		return store.ErrInvalidTableID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[tableID] = append([]byte(nil), data...)
	return nil
}

func (s *Store) EnsureExists(_ context.Context, tableID, name, _ string) (string, error) {
	id := tableID
	if id == "" {
		id = name
	}
	if id == "" {
		return "", store.ErrInvalidTableID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tables[id]; !ok {
		s.tables[id] = nil
	}
	return id, nil
}

// Tables lists the stored table identifiers.
func (s *Store) Tables() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.tables))
	for id := range s.tables {
		out = append(out, id)
	}
	return out
}
