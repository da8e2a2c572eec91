package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"alugueis/internal/core"
	"alugueis/internal/ledger"
)

// SheetName is the single sheet of the transactions workbook.
const SheetName = "Registros"

// numFmtTwoDecimals is the built-in "0.00" number format.
const numFmtTwoDecimals = 2

// TransactionsXLSX writes every transaction to a one-sheet workbook with a header row.
// Amounts are numeric cells so they can be summed in a spreadsheet.
func TransactionsXLSX(txs []core.Transaction) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]interface{}, len(ledger.ExportHeader))
	for i, h := range ledger.ExportHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, tx := range txs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []interface{}{
			tx.Date.String(),
			tx.Unit,
			tx.Description,
			string(tx.Kind),
			string(tx.Category),
			tx.Amount.Float(),
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if len(txs) > 0 {
		style, err := f.NewStyle(&excelize.Style{NumFmt: numFmtTwoDecimals})
		if err != nil {
			return nil, fmt.Errorf("amount style: %w", err)
		}
		last := fmt.Sprintf("F%d", len(txs)+1)
		if err := f.SetCellStyle(SheetName, "F2", last, style); err != nil {
			return nil, fmt.Errorf("apply amount style: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
