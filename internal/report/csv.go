// Package report renders the downloadable artifacts: CSV exports, the XLSX workbook of
// all transactions and the paginated PDF report.
package report

import (
	"alugueis/internal/aggregate"
	"alugueis/internal/core"
	"alugueis/internal/ledger"
)

// SummaryHeader is the column order of the category subtotal export.
var SummaryHeader = []string{ledger.ColUnit, ledger.ColKind, ledger.ColCategory, "Subtotal"}

// SummaryCSV serializes the category subtotals, grand total row included.
func SummaryCSV(rows []aggregate.SubtotalRow) []byte {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{r.Unit, string(r.Kind), string(r.Category), r.Subtotal.String()})
	}
	return ledger.EncodeCSV(SummaryHeader, out)
}

// TransactionsCSV serializes the full transaction table with the export columns.
func TransactionsCSV(txs []core.Transaction) []byte {
	return ledger.EncodeTransactionsExport(txs)
}

// OccupancyCSV serializes the occupancy table.
func OccupancyCSV(occ core.Occupancy) []byte {
	return ledger.EncodeOccupancy(occ)
}
