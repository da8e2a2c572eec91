package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alugueis/internal/core"
	"alugueis/internal/ledger"
	"alugueis/internal/report"
	"alugueis/internal/services"
)

func TestNoticeRoundTrip(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/transactions", nil)
	redirectWithNotice(rec, req, "/?mes=03", notice{Type: NotificationSuccess, Message: "Transação registrada | ok"})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/?mes=03", rec.Header().Get("Location"))

	next := httptest.NewRequest(http.MethodGet, "/?mes=03", nil)
	for _, c := range rec.Result().Cookies() {
		next.AddCookie(c)
	}
	cleared := httptest.NewRecorder()
	n := popNotice(cleared, next)
	require.NotNil(t, n)
	assert.Equal(t, NotificationSuccess, n.Type)
	assert.Equal(t, "Transação registrada | ok", n.Message)

	cookies := cleared.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, flashCookie, cookies[0].Name)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestPopNoticeRejectsGarbage(t *testing.T) {
	for _, v := range []string{"", "nope", "bogus%7Cmsg", "success%7C", "%zz"} {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: flashCookie, Value: v})
		assert.Nil(t, popNotice(httptest.NewRecorder(), r), v)
	}
	assert.Nil(t, popNotice(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil)))
}

func TestStatusAndMessageFor(t *testing.T) {
	tests := []struct {
		err     error
		status  int
		message string
	}{
		{core.ErrInvalidDate, http.StatusUnprocessableEntity, "Data inválida."},
		{fmt.Errorf("%w: -1", core.ErrNegativeAmount), http.StatusUnprocessableEntity, "O valor não pode ser negativo."},
		{core.ErrCategoryNotInKind, http.StatusUnprocessableEntity, "A categoria não pertence ao tipo selecionado."},
		{errInvalidOccupancyStatus, http.StatusUnprocessableEntity, "Status inválido."},
		{ledger.ErrInvalidFilter, http.StatusBadRequest, "Filtro inválido."},
		{fmt.Errorf("%w: x", services.ErrNotFound), http.StatusNotFound, "Transação não encontrada."},
		{report.ErrUnknownArtifact, http.StatusNotFound, "Arquivo desconhecido."},
		{services.ErrLegacyRecord, http.StatusConflict, "Registro legado: não pode ser editado, apenas excluído."},
		{errors.New("quota exceeded"), http.StatusInternalServerError, "Erro ao acessar os dados: quota exceeded"},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.status, statusFor(tt.err))
			assert.Equal(t, tt.message, messageFor(tt.err))
			assert.Equal(t, NotificationError, errorNotice(tt.err).Type)
		})
	}
}
