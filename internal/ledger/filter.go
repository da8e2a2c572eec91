package ledger

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"alugueis/internal/core"
)

// All is the selector value meaning "no restriction" for any filter component.
const All = "Todos"

// FirstYear is the earliest year offered by the period selector.
const FirstYear = 2020

// ErrInvalidFilter reports a selector value outside its domain.
var ErrInvalidFilter = errors.New("invalid filter")

// Filter restricts a transaction table by month, year and unit.
// The zero value of each component means "all".
type Filter struct {
	Month int    // 1..12, 0 = all
	Year  int    // 0 = all
	Unit  string // "" = all
}

// ParseFilter builds a Filter from selector values. Empty strings and "Todos" select all.
func ParseFilter(month, year, unit string) (Filter, error) {
	var f Filter

	month = strings.TrimSpace(month)
	if !isAll(month) {
		m, err := strconv.Atoi(month)
		if err != nil || m < 1 || m > 12 {
			return Filter{}, fmt.Errorf("%w: month %q", ErrInvalidFilter, month)
		}
		f.Month = m
	}

	year = strings.TrimSpace(year)
	if !isAll(year) {
		y, err := strconv.Atoi(year)
		if err != nil || len(year) != 4 || y < 1 {
			return Filter{}, fmt.Errorf("%w: year %q", ErrInvalidFilter, year)
		}
		f.Year = y
	}

	unit = strings.TrimSpace(unit)
	if !isAll(unit) {
		if !core.IsUnit(unit) {
			return Filter{}, fmt.Errorf("%w: unit %q", ErrInvalidFilter, unit)
		}
		f.Unit = unit
	}
	return f, nil
}

func isAll(s string) bool {
	return s == "" || strings.EqualFold(s, All)
}

// Active reports whether any component restricts the table.
func (f Filter) Active() bool {
	return f.Month != 0 || f.Year != 0 || f.Unit != ""
}

// Matches reports whether tx satisfies every set component.
func (f Filter) Matches(tx core.Transaction) bool {
	if f.Month != 0 && int(tx.Date.Month) != f.Month {
		return false
	}
	if f.Year != 0 && tx.Date.Year != f.Year {
		return false
	}
	if f.Unit != "" && tx.Unit != f.Unit {
		return false
	}
	return true
}

// Apply returns the matching transactions in their original order. The input is not modified.
func (f Filter) Apply(txs []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if f.Matches(tx) {
			out = append(out, tx)
		}
	}
	return out
}

// MonthValue is the selector value of the month component ("03" or "Todos").
func (f Filter) MonthValue() string {
	if f.Month == 0 {
		return All
	}
	return fmt.Sprintf("%02d", f.Month)
}

// YearValue is the selector value of the year component ("2025" or "Todos").
func (f Filter) YearValue() string {
	if f.Year == 0 {
		return All
	}
	return strconv.Itoa(f.Year)
}

// UnitValue is the selector value of the unit component.
func (f Filter) UnitValue() string {
	if f.Unit == "" {
		return All
	}
	return f.Unit
}

// Describe returns the report lines describing the active components:
// "Período: MM/AAAA" when month or year is set and "Apartamento: X" when the unit is set.
func (f Filter) Describe() []string {
	var lines []string
	if f.Month != 0 || f.Year != 0 {
		lines = append(lines, fmt.Sprintf("Período: %s/%s", f.MonthValue(), f.YearValue()))
	}
	if f.Unit != "" {
		lines = append(lines, "Apartamento: "+f.Unit)
	}
	return lines
}

// Query encodes the filter as URL query parameters.
func (f Filter) Query() string {
	q := url.Values{}
	if f.Month != 0 {
		q.Set(QueryMonth, f.MonthValue())
	}
	if f.Year != 0 {
		q.Set(QueryYear, f.YearValue())
	}
	if f.Unit != "" {
		q.Set(QueryUnit, f.Unit)
	}
	return q.Encode()
}

// Query parameter names of the filter selectors.
const (
	QueryMonth = "mes"
	QueryYear  = "ano"
	QueryUnit  = "apto"
)

// FilterFromQuery parses the filter selectors of a URL query.
func FilterFromQuery(q url.Values) (Filter, error) {
	return ParseFilter(q.Get(QueryMonth), q.Get(QueryYear), q.Get(QueryUnit))
}

// MonthOptions lists the month selector values, "Todos" first.
func MonthOptions() []string {
	out := []string{All}
	for m := 1; m <= 12; m++ {
		out = append(out, fmt.Sprintf("%02d", m))
	}
	return out
}

// YearOptions lists the year selector values from FirstYear to max(2025, currentYear).
func YearOptions(currentYear int) []string {
	last := max(2025, currentYear)
	out := []string{All}
	for y := FirstYear; y <= last; y++ {
		out = append(out, strconv.Itoa(y))
	}
	return out
}

// UnitOptions lists the unit selector values, "Todos" first.
func UnitOptions() []string {
	return append([]string{All}, core.AllUnits()...)
}
