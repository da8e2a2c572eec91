package http

import (
	"strconv"

	"alugueis/internal/aggregate"
	"alugueis/internal/core"
	"alugueis/internal/ledger"
	"alugueis/internal/report"
	"alugueis/internal/services"
)

type option struct {
	Value    string
	Selected bool
}

type bar struct {
	Label string
	Value string
	Width string // percent of the widest bar
}

type chartSeries struct {
	Kind core.Kind
	Bars []bar
}

type txRow struct {
	core.Transaction
	Legacy  bool
	EditURL string
	DelURL  string
}

type downloadLink struct {
	Name string
	URL  string
}

// entryView is the data of the entry form partial.
type entryView struct {
	Form       entryForm
	Units      []option
	Kinds      []option
	Categories []option
	Return     string
}

type dashboardPage struct {
	Notice       *notice
	Today        string
	Filter       ledger.Filter
	FilterLines  []string
	Return       string
	Months       []option
	Years        []option
	Units        []option
	Entry        entryView
	Rentable     []string
	Transactions []txRow
	Summary      aggregate.Summary
	Charts       []chartSeries
	Occupancy    []bar
	Records      core.Occupancy
	Downloads    []downloadLink
}

type editPage struct {
	Notice *notice
	Entry  entryView
	Back   string
}

func options(values []string, selected string) []option {
	out := make([]option, len(values))
	for i, v := range values {
		out[i] = option{Value: v, Selected: v == selected}
	}
	return out
}

// newEntryView builds the entry form. The category options follow the form's kind; an
// unknown kind falls back to the form state.
func newEntryView(form entryForm, st core.FormState, ret string) entryView {
	if !form.Kind.Valid() {
		form.Kind = st.Kind
		form.Category = st.Category
	}
	kinds := make([]string, len(core.Kinds))
	for i, k := range core.Kinds {
		kinds[i] = string(k)
	}
	cats := core.CategoriesFor(form.Kind)
	catValues := make([]string, len(cats))
	for i, c := range cats {
		catValues[i] = string(c)
	}
	// Legacy rows keep their out-of-list category visible.
	if form.Category != "" && !form.Kind.Allows(form.Category) {
		catValues = append(catValues, string(form.Category))
	}
	if form.Action == "" {
		form.Action = "/transactions"
	}
	return entryView{
		Form:       form,
		Units:      options(core.AllUnits(), form.Unit),
		Kinds:      options(kinds, string(form.Kind)),
		Categories: options(catValues, string(form.Category)),
		Return:     ret,
	}
}

// newDashboardPage turns a dashboard into the template data.
func newDashboardPage(d services.Dashboard, form entryForm, st core.FormState, n *notice) dashboardPage {
	ret := d.Filter.Query()
	if form.Date == "" {
		form.Date = d.Today.String()
	}
	if form.Unit == "" {
		form.Unit = core.AllUnits()[0]
	}

	rows := make([]txRow, len(d.Filtered))
	for i, tx := range d.Filtered {
		edit := transactionPath(tx.ID) + "/edit"
		if ret != "" {
			edit += "?" + ret
		}
		rows[i] = txRow{
			Transaction: tx,
			Legacy:      tx.Legacy(),
			EditURL:     edit,
			DelURL:      transactionPath(tx.ID) + "/delete",
		}
	}

	top := aggregate.MaxValue(d.Summary.Categories)
	charts := make([]chartSeries, 0, len(d.Summary.Categories))
	for _, s := range d.Summary.Categories {
		cs := chartSeries{Kind: s.Kind}
		for _, b := range s.Bars {
			cs.Bars = append(cs.Bars, bar{Label: b.Label, Value: b.Value.BRL(), Width: aggregate.Percent(b.Value, top)})
		}
		charts = append(charts, cs)
	}

	var occupancy []bar
	for _, b := range d.Summary.Occupancy {
		occupancy = append(occupancy, bar{
			Label: b.Label,
			Value: strconv.Itoa(b.Count),
			Width: aggregate.Percent(core.Money{Cents: int64(b.Count)}, core.Money{Cents: int64(core.UnitCount)}),
		})
	}

	downloads := make([]downloadLink, len(report.Names))
	for i, name := range report.Names {
		u := "/downloads/" + name
		if ret != "" {
			u += "?" + ret
		}
		downloads[i] = downloadLink{Name: name, URL: u}
	}

	return dashboardPage{
		Notice:       n,
		Today:        d.Today.String(),
		Filter:       d.Filter,
		FilterLines:  d.Filter.Describe(),
		Return:       ret,
		Months:       options(ledger.MonthOptions(), d.Filter.MonthValue()),
		Years:        options(ledger.YearOptions(d.Today.Year), d.Filter.YearValue()),
		Units:        options(ledger.UnitOptions(), d.Filter.UnitValue()),
		Entry:        newEntryView(form, st, ret),
		Rentable:     core.RentableUnits(),
		Transactions: rows,
		Summary:      d.Summary,
		Charts:       charts,
		Occupancy:    occupancy,
		Records:      d.Snapshot.Occupancy,
		Downloads:    downloads,
	}
}
