// Package aggregate computes totals, category subtotals, per-unit summaries, vacancy
// metrics and chart series from a (filtered) transaction table and the occupancy table.
//
// Every function is pure: inputs are never modified and "today" is an argument.
package aggregate

import (
	"fmt"

	"cloud.google.com/go/civil"

	"alugueis/internal/core"
)

// GrandTotalLabel is the unit label of the trailing row of the category subtotals.
const GrandTotalLabel = "Total Geral"

// ProlongedVacancyDays is the number of days after which a vacant unit is reported.
const ProlongedVacancyDays = 30

type (
	// Totals holds the income, expense and balance of a transaction table.
	Totals struct {
		Income  core.Money
		Expense core.Money
		Balance core.Money
	}

	// SubtotalRow is one line of the category subtotal report. The trailing grand total
	// row has Unit == GrandTotalLabel and empty Kind and Category.
	SubtotalRow struct {
		Unit     string
		Kind     core.Kind
		Category core.Category
		Subtotal core.Money
	}

	// UnitSummary is the per-apartment line of the dashboard and PDF.
	UnitSummary struct {
		Unit     string
		Income   core.Money
		Expense  core.Money
		Balance  core.Money
		Occupied bool
	}

	// ProlongedVacancy is a unit vacant for more than ProlongedVacancyDays.
	ProlongedVacancy struct {
		Unit       string
		Since      civil.Date
		DaysVacant int
	}

	// Vacancy holds the vacancy metrics of the occupancy table.
	Vacancy struct {
		Vacant    int
		Total     int
		Rate      float64 // percent, 0..100
		Prolonged []ProlongedVacancy
	}
)

// IsGrandTotal reports whether r is the trailing total row.
func (r SubtotalRow) IsGrandTotal() bool {
	return r.Unit == GrandTotalLabel && r.Kind == "" && r.Category == ""
}

// Status returns "Ocupado" or "Vago".
func (s UnitSummary) Status() string {
	return core.StatusLabel(s.Occupied)
}

// RateText formats the vacancy rate with two decimals ("12.50").
func (v Vacancy) RateText() string {
	return fmt.Sprintf("%.2f", v.Rate)
}

// ComputeTotals sums income and expense. Balance = Income - Expense.
// Rows whose kind is neither income nor expense are ignored.
func ComputeTotals(txs []core.Transaction) Totals {
	var t Totals
	for _, tx := range txs {
		switch tx.Kind {
		case core.Income:
			t.Income = t.Income.Add(tx.Amount)
		case core.Expense:
			t.Expense = t.Expense.Add(tx.Amount)
		}
	}
	t.Balance = t.Income.Sub(t.Expense)
	return t
}

// CategorySubtotals sums amounts per unit, kind and category.
//
// Units follow the fixed order Comum, Apto 1..Apto 16 and kinds Receita then Despesa.
// Categories appear in first-seen order within each unit and kind; absent pairs are
// omitted. The trailing row holds the grand total balance, which always equals
// ComputeTotals(txs).Balance, so rows whose unit is outside the closed set count there
// even though they have no unit row.
func CategorySubtotals(txs []core.Transaction) []SubtotalRow {
	type group struct {
		order []core.Category
		sums  map[core.Category]core.Money
	}
	type key struct {
		unit string
		kind core.Kind
	}
	groups := make(map[key]*group)

	for _, tx := range txs {
		if !tx.Kind.Valid() {
			continue
		}
		k := key{tx.Unit, tx.Kind}
		g, ok := groups[k]
		if !ok {
			g = &group{sums: make(map[core.Category]core.Money)}
			groups[k] = g
		}
		if _, seen := g.sums[tx.Category]; !seen {
			g.order = append(g.order, tx.Category)
		}
		g.sums[tx.Category] = g.sums[tx.Category].Add(tx.Amount)
	}

	var rows []SubtotalRow
	for _, unit := range core.AllUnits() {
		for _, kind := range core.Kinds {
			g, ok := groups[key{unit, kind}]
			if !ok {
				continue
			}
			for _, c := range g.order {
				rows = append(rows, SubtotalRow{Unit: unit, Kind: kind, Category: c, Subtotal: g.sums[c]})
			}
		}
	}
	return append(rows, SubtotalRow{Unit: GrandTotalLabel, Subtotal: ComputeTotals(txs).Balance})
}

// UnitSummaries returns one row per rentable unit in fixed order, zero-filled for units
// without transactions. The occupancy table must hold exactly one row per unit.
func UnitSummaries(txs []core.Transaction, occ core.Occupancy) ([]UnitSummary, error) {
	if err := occ.Validate(); err != nil {
		return nil, fmt.Errorf("unit summaries: %w", err)
	}

	byUnit := make(map[string]*UnitSummary, core.UnitCount)
	out := make([]UnitSummary, core.UnitCount)
	for i, unit := range core.RentableUnits() {
		rec, _ := occ.Lookup(unit)
		out[i] = UnitSummary{Unit: unit, Occupied: rec.Occupied}
		byUnit[unit] = &out[i]
	}

	for _, tx := range txs {
		s, ok := byUnit[tx.Unit]
		if !ok {
			continue
		}
		switch tx.Kind {
		case core.Income:
			s.Income = s.Income.Add(tx.Amount)
		case core.Expense:
			s.Expense = s.Expense.Add(tx.Amount)
		}
	}
	for i := range out {
		out[i].Balance = out[i].Income.Sub(out[i].Expense)
	}
	return out, nil
}

// ComputeVacancy returns the vacancy rate over the 16 units and the units vacant for more
// than ProlongedVacancyDays as of today, in fixed unit order.
func ComputeVacancy(occ core.Occupancy, today civil.Date) (Vacancy, error) {
	if err := occ.Validate(); err != nil {
		return Vacancy{}, fmt.Errorf("vacancy: %w", err)
	}

	v := Vacancy{Total: core.UnitCount, Prolonged: []ProlongedVacancy{}}
	for _, unit := range core.RentableUnits() {
		rec, _ := occ.Lookup(unit)
		if rec.Occupied {
			continue
		}
		v.Vacant++
		days := today.DaysSince(rec.LastUpdated)
		if days > ProlongedVacancyDays {
			v.Prolonged = append(v.Prolonged, ProlongedVacancy{Unit: unit, Since: rec.LastUpdated, DaysVacant: days})
		}
	}
	v.Rate = float64(v.Vacant) * 100 / float64(core.UnitCount)
	return v, nil
}
