// Package ledger converts the two stored tables to and from domain values and
// filters transactions by period and unit.
package ledger

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"alugueis/internal/core"
	"alugueis/internal/encoding"
)

// Column names of the stored tables. They match the files written by the original
// spreadsheet workflow, so existing tables load unchanged.
const (
	ColDate        = "Data"
	ColUnit        = "Apartamento"
	ColDescription = "Descrição"
	ColKind        = "Tipo"
	ColCategory    = "Categoria"
	ColAmount      = "Valor"
	ColID          = "ID"

	ColOccupied    = "Ocupado"
	ColLastUpdated = "Data_Atualizacao"
)

var (
	// ExportHeader is the column order of the downloadable transaction table.
	ExportHeader = []string{ColDate, ColUnit, ColDescription, ColKind, ColCategory, ColAmount}

	// TransactionsHeader is the stored column order; ID trails so that older readers
	// that only know the export columns keep working.
	TransactionsHeader = append(append([]string(nil), ExportHeader...), ColID)

	// OccupancyHeader is the stored column order of the occupancy table.
	OccupancyHeader = []string{ColUnit, ColOccupied, ColLastUpdated}
)

// ErrMalformedTable reports a table that cannot be parsed.
var ErrMalformedTable = errors.New("malformed table")

// ParseTransactions reads a stored transactions table. Empty input yields an empty table.
// Rows outside the closed sets are kept as they are; unparsable dates or amounts fail the
// whole table with the offending line number.
func ParseTransactions(r io.Reader) ([]core.Transaction, error) {
	rows, err := readRows(r)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []core.Transaction{}, nil
	}

	cols, err := columnIndex(rows[0], ExportHeader)
	if err != nil {
		return nil, err
	}
	idCol, hasID := cols[ColID]

	out := make([]core.Transaction, 0, len(rows)-1)
	for i, row := range rows[1:] {
		line := i + 2
		if blank(row) {
			continue
		}
		date, err := ParseDate(cell(row, cols[ColDate]))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedTable, line, err)
		}
		amount, err := core.ParseStoredAmount(cell(row, cols[ColAmount]))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %s %q: %v", ErrMalformedTable, line, ColAmount, cell(row, cols[ColAmount]), err)
		}
		tx := core.Transaction{
			Date:        date,
			Unit:        cell(row, cols[ColUnit]),
			Description: cell(row, cols[ColDescription]),
			Kind:        core.Kind(cell(row, cols[ColKind])),
			Category:    core.Category(cell(row, cols[ColCategory])),
			Amount:      amount,
		}
		if hasID {
			tx.ID = cell(row, idCol)
		}
		out = append(out, tx)
	}
	return out, nil
}

// ParseOccupancy reads a stored occupancy table. Empty input yields the default table
// (every unit occupied, updated today). The rows are not checked against the unit set;
// aggregation does that.
func ParseOccupancy(r io.Reader, today civil.Date) (core.Occupancy, error) {
	rows, err := readRows(r)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return core.DefaultOccupancy(today), nil
	}

	cols, err := columnIndex(rows[0], OccupancyHeader)
	if err != nil {
		return nil, err
	}

	out := make(core.Occupancy, 0, core.UnitCount)
	for i, row := range rows[1:] {
		line := i + 2
		if blank(row) {
			continue
		}
		occupied, err := strconv.ParseBool(cell(row, cols[ColOccupied]))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %s %q", ErrMalformedTable, line, ColOccupied, cell(row, cols[ColOccupied]))
		}
		updated, err := ParseDate(cell(row, cols[ColLastUpdated]))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedTable, line, err)
		}
		out = append(out, core.OccupancyRecord{
			Unit:        cell(row, cols[ColUnit]),
			Occupied:    occupied,
			LastUpdated: updated,
		})
	}
	if len(out) == 0 {
		return core.DefaultOccupancy(today), nil
	}
	return out, nil
}

// EncodeTransactions serializes the stored transactions table (with IDs).
func EncodeTransactions(txs []core.Transaction) []byte {
	return encode(TransactionsHeader, len(txs), func(i int) []string {
		return append(exportRow(txs[i]), txs[i].ID)
	})
}

// EncodeTransactionsExport serializes the downloadable transactions table (no IDs).
func EncodeTransactionsExport(txs []core.Transaction) []byte {
	return encode(ExportHeader, len(txs), func(i int) []string {
		return exportRow(txs[i])
	})
}

// EncodeOccupancy serializes the occupancy table.
func EncodeOccupancy(occ core.Occupancy) []byte {
	return encode(OccupancyHeader, len(occ), func(i int) []string {
		r := occ[i]
		return []string{r.Unit, FormatBool(r.Occupied), r.LastUpdated.String()}
	})
}

// FormatBool writes booleans the way the original tables do ("True"/"False").
func FormatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func exportRow(tx core.Transaction) []string {
	return []string{
		tx.Date.String(),
		tx.Unit,
		tx.Description,
		string(tx.Kind),
		string(tx.Category),
		tx.Amount.String(),
	}
}

// EncodeCSV writes a header and rows as comma-separated UTF-8 with a BOM.
func EncodeCSV(header []string, rows [][]string) []byte {
	return encode(header, len(rows), func(i int) []string { return rows[i] })
}

func encode(header []string, n int, row func(int) []string) []byte {
	var buf bytes.Buffer
	buf.Write(encoding.BOM)
	w := csv.NewWriter(&buf)
	// Writes into a bytes.Buffer cannot fail.
	_ = w.Write(header)
	for i := 0; i < n; i++ {
		_ = w.Write(row(i))
	}
	w.Flush()
	return buf.Bytes()
}

func readRows(r io.Reader) ([][]string, error) {
	utf8r, err := encoding.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}
	reader := csv.NewReader(utf8r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTable, err)
	}
	// Drop leading blank lines so a table holding only whitespace counts as empty.
	for len(rows) > 0 && blank(rows[0]) {
		rows = rows[1:]
	}
	return rows, nil
}

func columnIndex(header []string, required []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name != "" {
			if _, dup := cols[name]; !dup {
				cols[name] = i
			}
		}
	}
	var missing []string
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing columns %s; got %v", ErrMalformedTable, strings.Join(missing, ","), header)
	}
	return cols, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// ParseDate accepts ISO dates ("2025-03-10"), ISO timestamps as written by spreadsheet
// exports ("2025-03-10 00:00:00", "2025-03-10T00:00:00Z") and Brazilian dates ("10/03/2025").
func ParseDate(s string) (civil.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return civil.Date{}, fmt.Errorf("%w: empty", core.ErrInvalidDate)
	}
	if len(s) > 10 && (s[10] == ' ' || s[10] == 'T') {
		s = s[:10]
	}
	if d, err := civil.ParseDate(s); err == nil {
		return d, nil
	}
	if t, err := time.Parse("02/01/2006", s); err == nil {
		return civil.DateOf(t), nil
	}
	return civil.Date{}, fmt.Errorf("%w: %q", core.ErrInvalidDate, s)
}
