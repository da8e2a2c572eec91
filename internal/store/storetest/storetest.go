// Package storetest holds the behaviour every TableStore adapter must share.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alugueis/internal/store"
)

// Run exercises s. The store must start empty.
func Run(t *testing.T, s store.TableStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("ensure creates an empty table", func(t *testing.T) {
		id, err := s.EnsureExists(ctx, "", "financas_alugueis.csv", "")
		require.NoError(t, err)
		require.NotEmpty(t, id)

		data, err := s.ReadTable(ctx, id)
		require.NoError(t, err)
		assert.Empty(t, data)
	})

	t.Run("ensure is idempotent and keeps content", func(t *testing.T) {
		id, err := s.EnsureExists(ctx, "", "vacancia_alugueis.csv", "")
		require.NoError(t, err)
		require.NoError(t, s.WriteTable(ctx, id, []byte("a,b\n1,2\n")))

		again, err := s.EnsureExists(ctx, id, "vacancia_alugueis.csv", "")
		require.NoError(t, err)
		assert.Equal(t, id, again)

		data, err := s.ReadTable(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "a,b\n1,2\n", string(data))
	})

	t.Run("write replaces the whole table", func(t *testing.T) {
		id, err := s.EnsureExists(ctx, "", "replace.csv", "")
		require.NoError(t, err)
		require.NoError(t, s.WriteTable(ctx, id, []byte("first version, quite long\n")))
		require.NoError(t, s.WriteTable(ctx, id, []byte("second\n")))

		data, err := s.ReadTable(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "second\n", string(data))
	})

	t.Run("unicode payload survives", func(t *testing.T) {
		id, err := s.EnsureExists(ctx, "", "unicode.csv", "")
		require.NoError(t, err)
		payload := "\ufeffData,Descrição\n2025-01-01,Manutenção\n"
		require.NoError(t, s.WriteTable(ctx, id, []byte(payload)))
		data, err := s.ReadTable(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, payload, string(data))
	})

	t.Run("missing table", func(t *testing.T) {
		_, err := s.ReadTable(ctx, "never-created.csv")
		require.Error(t, err)
		assert.True(t, errors.Is(err, store.ErrTableNotFound), "got %v", err)
	})

	t.Run("concurrent writers leave one complete version", func(t *testing.T) {
		id, err := s.EnsureExists(ctx, "", "concurrent.csv", "")
		require.NoError(t, err)
		versions := []string{"aaaaaaaaaa\n", "bbbbbbbbbbbbbbbbbbbb\n", "cccc\n"}
		var wg sync.WaitGroup
		for _, v := range versions {
			wg.Add(1)
			go func(v string) {
				defer wg.Done()
				assert.NoError(t, s.WriteTable(ctx, id, []byte(v)))
			}(v)
		}
		wg.Wait()
		data, err := s.ReadTable(ctx, id)
		require.NoError(t, err)
		assert.Contains(t, versions, string(data))
	})
}
