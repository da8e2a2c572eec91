package encoding

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

func readAll(t *testing.T, in []byte) string {
	t.Helper()
	r, err := NewUTF8Reader(bytes.NewReader(in))
	require.NoError(t, err)
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(out)
}

func TestNewUTF8Reader(t *testing.T) {
	const text = "Data,Apartamento,Descrição\n2025-01-02,Apto 1,Manutenção\n"

	t.Run("utf8 with BOM is stripped", func(t *testing.T) {
		in := append(append([]byte{}, BOM...), text...)
		assert.Equal(t, text, readAll(t, in))
	})

	t.Run("plain utf8", func(t *testing.T) {
		assert.Equal(t, text, readAll(t, []byte(text)))
	})

	t.Run("windows-1252", func(t *testing.T) {
		encoded, err := charmap.Windows1252.NewEncoder().Bytes([]byte(text))
		require.NoError(t, err)
		assert.Equal(t, text, readAll(t, encoded))
	})

	t.Run("utf16 little endian", func(t *testing.T) {
		encoded, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().Bytes([]byte(text))
		require.NoError(t, err)
		assert.Equal(t, text, readAll(t, encoded))
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Equal(t, "", readAll(t, nil))
	})
}
