package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"alugueis/internal/aggregate"
	"alugueis/internal/core"
	"alugueis/internal/ledger"
)

var (
	today     = civil.Date{Year: 2025, Month: 3, Day: 15}
	createdAt = time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
)

func fixture() []core.Transaction {
	return []core.Transaction{
		{ID: "1", Date: civil.Date{Year: 2025, Month: 3, Day: 1}, Unit: "Apto 1", Description: "Aluguel", Kind: core.Income, Category: core.CategoryRent, Amount: core.Money{Cents: 100000}},
		{ID: "2", Date: civil.Date{Year: 2025, Month: 3, Day: 5}, Unit: "Apto 1", Description: "Conta de luz", Kind: core.Expense, Category: core.CategoryElectricity, Amount: core.Money{Cents: 15000}},
		{ID: "3", Date: civil.Date{Year: 2025, Month: 2, Day: 5}, Unit: core.Comum, Description: "Manutenção elevador", Kind: core.Expense, Category: core.CategoryMaintenance, Amount: core.Money{Cents: 32050}},
	}
}

func input(t *testing.T, f ledger.Filter) Input {
	t.Helper()
	txs := fixture()
	occ := core.DefaultOccupancy(today)
	occ[2].Occupied = false
	s, err := aggregate.Build(f.Apply(txs), occ, today)
	require.NoError(t, err)
	return Input{Transactions: txs, Occupancy: occ, Filter: f, Summary: s, CreatedAt: createdAt}
}

func TestSummaryCSV(t *testing.T) {
	in := input(t, ledger.Filter{})
	got := string(SummaryCSV(in.Summary.Subtotals))
	want := "\ufeffApartamento,Tipo,Categoria,Subtotal\n" +
		"Comum,Despesa,Manutenção,320.50\n" +
		"Apto 1,Receita,Aluguel,1000.00\n" +
		"Apto 1,Despesa,Luz,150.00\n" +
		"Total Geral,,,529.50\n"
	assert.Equal(t, want, got)
}

func TestSummaryCSVEmpty(t *testing.T) {
	got := string(SummaryCSV(aggregate.CategorySubtotals(nil)))
	assert.Equal(t, "\ufeffApartamento,Tipo,Categoria,Subtotal\nTotal Geral,,,0.00\n", got)
}

func TestTransactionsCSVIgnoresFilter(t *testing.T) {
	in := input(t, ledger.Filter{Unit: "Apto 1"})
	a, err := Render(TransactionsCSVName, in)
	require.NoError(t, err)
	assert.Equal(t, ContentTypeCSV, a.ContentType)

	txs, err := ledger.ParseTransactions(bytes.NewReader(a.Data))
	require.NoError(t, err)
	assert.Len(t, txs, 3)
	assert.False(t, strings.Contains(string(a.Data), ",ID"))
}

func TestTransactionsXLSX(t *testing.T) {
	data, err := TransactionsXLSX(fixture())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, ledger.ExportHeader, rows[0])
	assert.Equal(t, []string{"2025-03-01", "Apto 1", "Aluguel", "Receita", "Aluguel", "1000.00"}, rows[1])
	assert.Equal(t, "Manutenção elevador", rows[3][2])

	raw, err := f.GetCellValue(SheetName, "F4", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "320.5", raw)
}

func TestTransactionsXLSXEmpty(t *testing.T) {
	data, err := TransactionsXLSX(nil)
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Equal(t, [][]string{ledger.ExportHeader}, rows)
}

func texts(p Page) []string {
	out := make([]string, 0, len(p.Lines))
	for _, l := range p.Lines {
		out = append(out, l.Text)
	}
	return out
}

func TestLayoutSinglePage(t *testing.T) {
	in := input(t, ledger.Filter{})
	pages := Layout(PDFInput{Filter: in.Filter, Totals: in.Summary.Totals, Vacancy: in.Summary.Vacancy, Units: in.Summary.Units}, DefaultGeometry)
	require.Len(t, pages, 1)

	lines := texts(pages[0])
	require.Len(t, lines, 6+core.UnitCount)
	assert.Equal(t, []string{
		"Relatório de Aluguéis",
		"Total Receitas: R$ 1000.00",
		"Total Despesas: R$ 470.50",
		"Saldo: R$ 529.50",
		"Taxa de Vacância: 6.25%",
		"Resumo por Apartamento:",
		"Apto 1: Receitas R$1000.00, Despesas R$150.00, Ocupado",
		"Apto 2: Receitas R$0.00, Despesas R$0.00, Ocupado",
		"Apto 3: Receitas R$0.00, Despesas R$0.00, Vago",
	}, lines[:9])

	ys := []float64{750, 720, 700, 680, 650, 620, 600, 580}
	for i, y := range ys {
		assert.Equal(t, y, pages[0].Lines[i].Y, "line %d", i)
		assert.Equal(t, 50.0, pages[0].Lines[i].X)
	}
}

func TestLayoutFilterLines(t *testing.T) {
	in := input(t, ledger.Filter{Month: 3, Year: 2025, Unit: "Apto 1"})
	pages := Layout(PDFInput{Filter: in.Filter, Totals: in.Summary.Totals, Vacancy: in.Summary.Vacancy, Units: in.Summary.Units}, DefaultGeometry)
	lines := texts(pages[0])
	assert.Equal(t, "Período: 03/2025", lines[1])
	assert.Equal(t, "Apartamento: Apto 1", lines[2])
	assert.Equal(t, "Total Receitas: R$ 1000.00", lines[3])
	assert.Equal(t, "Total Despesas: R$ 150.00", lines[4])
	assert.Equal(t, 720.0, pages[0].Lines[1].Y)
	assert.Equal(t, 700.0, pages[0].Lines[2].Y)
	assert.Equal(t, 680.0, pages[0].Lines[3].Y)
}

func TestLayoutPaginates(t *testing.T) {
	in := input(t, ledger.Filter{})
	g := DefaultGeometry
	g.Top = 200
	g.Bottom = 100
	pages := Layout(PDFInput{Totals: in.Summary.Totals, Vacancy: in.Summary.Vacancy, Units: in.Summary.Units}, g)
	require.Greater(t, len(pages), 1)

	total := 0
	for _, p := range pages {
		require.NotEmpty(t, p.Lines)
		assert.Equal(t, g.Top, p.Lines[0].Y, "every page starts at the top")
		for _, l := range p.Lines {
			assert.GreaterOrEqual(t, l.Y, g.Bottom)
		}
		total += len(p.Lines)
	}
	assert.Equal(t, 6+core.UnitCount, total)
	last := pages[len(pages)-1].Lines
	assert.Equal(t, "Apto 16: Receitas R$0.00, Despesas R$0.00, Ocupado", last[len(last)-1].Text)
}

func TestPDFDeterministic(t *testing.T) {
	in := input(t, ledger.Filter{})
	a, err := Render(PDFName, in)
	require.NoError(t, err)
	b, err := Render(PDFName, in)
	require.NoError(t, err)

	assert.Equal(t, ContentTypePDF, a.ContentType)
	assert.True(t, bytes.HasPrefix(a.Data, []byte("%PDF-")))
	assert.Equal(t, a.Data, b.Data)
}

func TestBundle(t *testing.T) {
	arts, err := Bundle(input(t, ledger.Filter{}))
	require.NoError(t, err)
	require.Len(t, arts, len(Names))
	for i, a := range arts {
		assert.Equal(t, Names[i], a.Name)
		assert.NotEmpty(t, a.Data)
	}
	assert.Equal(t, ContentTypeXLSX, arts[1].ContentType)

	_, err = Render("outro.txt", Input{})
	assert.ErrorIs(t, err, ErrUnknownArtifact)
}
