package gcs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alugueis/internal/store"
)

func TestObjectName(t *testing.T) {
	tests := []struct {
		prefix, key, want string
		wantErr           bool
	}{
		{"", "financas_alugueis.csv", "financas_alugueis.csv", false},
		{"alugueis", "financas_alugueis.csv", "alugueis/financas_alugueis.csv", false},
		{"arquivo/2024", "2024-03-05/relatorio_alugueis.pdf", "arquivo/2024/2024-03-05/relatorio_alugueis.pdf", false},
		{"alugueis", "../fora.csv", "", true},
		{"alugueis", "/abs.csv", "", true},
		{"alugueis", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := objectName(tt.prefix, tt.key)
			if tt.wantErr {
				assert.ErrorIs(t, err, store.ErrInvalidTableID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/pdf", contentType("a/relatorio_alugueis.pdf"))
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", contentType("x.XLSX"))
	assert.Equal(t, csvContentType, contentType("financas_alugueis.csv"))
}

func TestNewRequiresBucket(t *testing.T) {
	_, err := New(context.Background(), " ", "")
	require.Error(t, err)
}
