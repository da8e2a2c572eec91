package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alugueis/internal/core"
	"alugueis/internal/ledger"
)

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Aluguel março", "Aluguel março"},
		{"trims", "  Luz  ", "Luz"},
		{"control chars", "Conta\x00 de\x07 água", "Conta de água"},
		{"keeps tab", "a\tb", "a\tb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeInput(tt.input))
		})
	}
}

func TestEntryFormTransaction(t *testing.T) {
	form := readEntryForm(url.Values{
		fieldDate:        {"2025-03-05"},
		fieldUnit:        {" Apto 3 "},
		fieldDescription: {"Aluguel"},
		fieldKind:        {"Receita"},
		fieldCategory:    {"Aluguel"},
		fieldAmount:      {"1.234,50"},
	})
	tx, err := form.Transaction()
	require.NoError(t, err)
	assert.Equal(t, civil.Date{Year: 2025, Month: 3, Day: 5}, tx.Date)
	assert.Equal(t, "Apto 3", tx.Unit)
	assert.Equal(t, core.Income, tx.Kind)
	assert.Equal(t, int64(123450), tx.Amount.Cents)
}

func TestEntryFormTransactionErrors(t *testing.T) {
	tests := []struct {
		name   string
		date   string
		amount string
		want   error
	}{
		{"bad date", "31/02/2025x", "10", core.ErrInvalidDate},
		{"bad amount", "2025-03-05", "abc", core.ErrInvalidAmount},
		{"negative", "2025-03-05", "-5", core.ErrNegativeAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := entryForm{Date: tt.date, Amount: tt.amount}.Transaction()
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestEntryFormFor(t *testing.T) {
	tx := core.Transaction{
		ID:       "a b",
		Date:     civil.Date{Year: 2025, Month: 1, Day: 2},
		Unit:     "Apto 1",
		Kind:     core.Expense,
		Category: core.CategoryWater,
		Amount:   core.Money{Cents: 1000},
	}
	f := entryFormFor(tx)
	assert.Equal(t, "/transactions/a%20b", f.Action)
	assert.Equal(t, "2025-01-02", f.Date)
	assert.Equal(t, "10.00", f.Amount)
	assert.False(t, f.ReadOnly)

	tx.Category = core.CategoryRent
	assert.True(t, entryFormFor(tx).ReadOnly)
}

func TestParseOccupied(t *testing.T) {
	for _, in := range []string{"Ocupado", "ocupado", "true", "1"} {
		got, err := parseOccupied(in)
		require.NoError(t, err, in)
		assert.True(t, got, in)
	}
	for _, in := range []string{"Vago", " vago ", "false", "0"} {
		got, err := parseOccupied(in)
		require.NoError(t, err, in)
		assert.False(t, got, in)
	}
	_, err := parseOccupied("talvez")
	assert.ErrorIs(t, err, errInvalidOccupancyStatus)
}

func TestReturnFilter(t *testing.T) {
	f := returnFilter(url.Values{fieldReturn: {"mes=03&ano=2025&apto=Apto+2"}})
	assert.Equal(t, ledger.Filter{Month: 3, Year: 2025, Unit: "Apto 2"}, f)
	assert.Equal(t, "/?"+f.Query(), dashboardURL(f))

	assert.Equal(t, ledger.Filter{}, returnFilter(url.Values{fieldReturn: {"mes=13"}}))
	assert.Equal(t, ledger.Filter{}, returnFilter(url.Values{}))
	assert.Equal(t, "/", dashboardURL(ledger.Filter{}))
}

func TestFormStateCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	writeFormState(rec, core.FormState{Kind: core.Expense, Category: core.CategoryWater})

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		r.AddCookie(c)
	}
	assert.Equal(t, core.FormState{Kind: core.Expense, Category: core.CategoryWater}, readFormState(r))

	t.Run("missing", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		assert.Equal(t, core.DefaultFormState(), readFormState(r))
	})

	t.Run("tampered", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: formStateCookie, Value: "kind=Receita&category=Luz"})
		assert.Equal(t, core.FormState{Kind: core.Income, Category: core.CategoriesFor(core.Income)[0]}, readFormState(r))
	})
}
