package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"alugueis/internal/aggregate"
	"alugueis/internal/ledger"
)

// Title is the first line of the PDF report.
const Title = "Relatório de Aluguéis"

// PageGeometry positions report lines. Y grows upwards from the bottom edge, in points.
type PageGeometry struct {
	Width  float64
	Height float64
	Left   float64
	Top    float64 // y of the first line of every page
	Bottom float64 // a new page starts when the cursor falls below this
	Line   float64 // advance after a regular line
	Gap    float64 // advance after the last line of a section
}

// DefaultGeometry is a US Letter page with 12pt lines.
var DefaultGeometry = PageGeometry{
	Width:  612,
	Height: 792,
	Left:   50,
	Top:    750,
	Bottom: 50,
	Line:   20,
	Gap:    30,
}

type (
	// PDFInput is what the report shows for one filter.
	PDFInput struct {
		Filter  ledger.Filter
		Totals  aggregate.Totals
		Vacancy aggregate.Vacancy
		Units   []aggregate.UnitSummary
	}

	// Line is a positioned text line.
	Line struct {
		X, Y float64
		Text string
	}

	// Page holds the lines of one page, top to bottom.
	Page struct {
		Lines []Line
	}
)

type entry struct {
	text    string
	advance float64
}

func entries(in PDFInput, g PageGeometry) []entry {
	out := []entry{{Title, g.Gap}}

	filterLines := in.Filter.Describe()
	for _, l := range filterLines {
		out = append(out, entry{l, g.Line})
	}

	out = append(out,
		entry{"Total Receitas: " + in.Totals.Income.BRL(), g.Line},
		entry{"Total Despesas: " + in.Totals.Expense.BRL(), g.Line},
		entry{"Saldo: " + in.Totals.Balance.BRL(), g.Gap},
		entry{"Taxa de Vacância: " + in.Vacancy.RateText() + "%", g.Gap},
		entry{"Resumo por Apartamento:", g.Line},
	)
	for _, u := range in.Units {
		out = append(out, entry{UnitLine(u), g.Line})
	}
	return out
}

// UnitLine formats the per-unit line of the report.
func UnitLine(u aggregate.UnitSummary) string {
	return fmt.Sprintf("%s: Receitas R$%s, Despesas R$%s, %s", u.Unit, u.Income.String(), u.Expense.String(), u.Status())
}

// Layout packs the report lines greedily onto pages. Before each line, if the cursor is
// below the bottom margin a new page starts at the top. Lines are never split.
func Layout(in PDFInput, g PageGeometry) []Page {
	pages := []Page{{}}
	y := g.Top
	for _, e := range entries(in, g) {
		if y < g.Bottom {
			pages = append(pages, Page{})
			y = g.Top
		}
		cur := &pages[len(pages)-1]
		cur.Lines = append(cur.Lines, Line{X: g.Left, Y: y, Text: e.text})
		y -= e.advance
	}
	return pages
}

// PDF draws laid-out pages in Helvetica 12. createdAt is stored as the document's creation
// and modification date, so the same pages and time always give the same bytes.
func PDF(pages []Page, g PageGeometry, createdAt time.Time) ([]byte, error) {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: g.Width, Ht: g.Height},
	})
	pdf.SetCreationDate(createdAt)
	pdf.SetModificationDate(createdAt)
	pdf.SetCatalogSort(true)
	pdf.SetTitle(Title, true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont("Helvetica", "", 12)

	// Core fonts are cp1252; the translator maps accented Portuguese text onto it.
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	for _, p := range pages {
		pdf.AddPage()
		for _, l := range p.Lines {
			pdf.Text(l.X, g.Height-l.Y, tr(l.Text))
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderPDF lays out and draws the report with the default geometry.
func RenderPDF(in PDFInput, createdAt time.Time) ([]byte, error) {
	return PDF(Layout(in, DefaultGeometry), DefaultGeometry, createdAt)
}
