package aggregate

import (
	"fmt"

	"cloud.google.com/go/civil"

	"alugueis/internal/core"
)

type (
	// ChartBar is one bar of a chart series.
	ChartBar struct {
		Label string
		Value core.Money
		Count int
	}

	// CategorySeries holds the bars of one kind in the category chart.
	CategorySeries struct {
		Kind core.Kind
		Bars []ChartBar
	}

	// Summary bundles everything the dashboard and the reports show for one filter.
	Summary struct {
		Totals     Totals
		Subtotals  []SubtotalRow
		Units      []UnitSummary
		Vacancy    Vacancy
		Categories []CategorySeries
		Occupancy  []ChartBar
		Count      int
	}
)

// CategoryChart sums amounts per kind and category. Kinds follow Receita, Despesa; the
// declared categories of a kind come first, then unknown ones in first-seen order.
// Categories without transactions are left out.
func CategoryChart(txs []core.Transaction) []CategorySeries {
	out := make([]CategorySeries, 0, len(core.Kinds))
	for _, kind := range core.Kinds {
		sums := make(map[core.Category]core.Money)
		var extra []core.Category
		for _, tx := range txs {
			if tx.Kind != kind {
				continue
			}
			if _, seen := sums[tx.Category]; !seen && !kind.Allows(tx.Category) {
				extra = append(extra, tx.Category)
			}
			sums[tx.Category] = sums[tx.Category].Add(tx.Amount)
		}

		series := CategorySeries{Kind: kind}
		for _, c := range append(core.CategoriesFor(kind), extra...) {
			if v, ok := sums[c]; ok {
				series.Bars = append(series.Bars, ChartBar{Label: string(c), Value: v})
			}
		}
		out = append(out, series)
	}
	return out
}

// OccupancyChart counts occupied and vacant records, "Ocupado" first.
func OccupancyChart(occ core.Occupancy) []ChartBar {
	occupied, vacant := 0, 0
	for _, r := range occ {
		if r.Occupied {
			occupied++
		} else {
			vacant++
		}
	}
	return []ChartBar{
		{Label: core.StatusOccupied, Count: occupied},
		{Label: core.StatusVacant, Count: vacant},
	}
}

// Build computes every aggregate of a filtered table. Vacancy and occupancy figures cover
// the whole building regardless of the unit filter.
func Build(txs []core.Transaction, occ core.Occupancy, today civil.Date) (Summary, error) {
	units, err := UnitSummaries(txs, occ)
	if err != nil {
		return Summary{}, err
	}
	vacancy, err := ComputeVacancy(occ, today)
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		Totals:     ComputeTotals(txs),
		Subtotals:  CategorySubtotals(txs),
		Units:      units,
		Vacancy:    vacancy,
		Categories: CategoryChart(txs),
		Occupancy:  OccupancyChart(occ),
		Count:      len(txs),
	}, nil
}

// MaxValue returns the largest bar value of the series, used to scale bar widths.
func MaxValue(series []CategorySeries) core.Money {
	var m core.Money
	for _, s := range series {
		for _, b := range s.Bars {
			if b.Value.Cents > m.Cents {
				m = b.Value
			}
		}
	}
	return m
}

// Percent returns v as a percentage of top, clamped to 0..100, for bar widths.
func Percent(v, top core.Money) string {
	if top.Cents <= 0 || v.Cents <= 0 {
		return "0"
	}
	p := float64(v.Cents) * 100 / float64(top.Cents)
	if p > 100 {
		p = 100
	}
	return fmt.Sprintf("%.1f", p)
}
