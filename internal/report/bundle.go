package report

import (
	"errors"
	"fmt"
	"time"

	"alugueis/internal/aggregate"
	"alugueis/internal/core"
	"alugueis/internal/ledger"
)

// Artifact file names, as offered for download.
const (
	TransactionsCSVName  = "financas_alugueis.csv"
	TransactionsXLSXName = "todos_registros_alugueis.xlsx"
	OccupancyCSVName     = "vacancia_alugueis.csv"
	SummaryCSVName       = "resumo_alugueis.csv"
	PDFName              = "relatorio_alugueis.pdf"
)

// MIME types of the artifacts.
const (
	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypePDF  = "application/pdf"
)

// Names lists every artifact in download order.
var Names = []string{
	TransactionsCSVName,
	TransactionsXLSXName,
	OccupancyCSVName,
	SummaryCSVName,
	PDFName,
}

// ErrUnknownArtifact reports a name outside Names.
var ErrUnknownArtifact = errors.New("unknown artifact")

type (
	// Input is a snapshot plus the aggregates of one filter. The transaction exports always
	// use the full table; the summary and the PDF use the filtered aggregates.
	Input struct {
		Transactions []core.Transaction
		Occupancy    core.Occupancy
		Filter       ledger.Filter
		Summary      aggregate.Summary
		CreatedAt    time.Time
	}

	// Artifact is a rendered file.
	Artifact struct {
		Name        string
		ContentType string
		Data        []byte
	}
)

// Render produces one artifact by name.
func Render(name string, in Input) (Artifact, error) {
	var (
		data []byte
		err  error
		ct   = ContentTypeCSV
	)
	switch name {
	case TransactionsCSVName:
		data = TransactionsCSV(in.Transactions)
	case TransactionsXLSXName:
		ct = ContentTypeXLSX
		data, err = TransactionsXLSX(in.Transactions)
	case OccupancyCSVName:
		data = OccupancyCSV(in.Occupancy)
	case SummaryCSVName:
		data = SummaryCSV(in.Summary.Subtotals)
	case PDFName:
		ct = ContentTypePDF
		data, err = RenderPDF(PDFInput{
			Filter:  in.Filter,
			Totals:  in.Summary.Totals,
			Vacancy: in.Summary.Vacancy,
			Units:   in.Summary.Units,
		}, in.CreatedAt)
	default:
		return Artifact{}, fmt.Errorf("%w: %q", ErrUnknownArtifact, name)
	}
	if err != nil {
		return Artifact{}, fmt.Errorf("%s: %w", name, err)
	}
	return Artifact{Name: name, ContentType: ct, Data: data}, nil
}

// Bundle renders every artifact in Names order.
func Bundle(in Input) ([]Artifact, error) {
	out := make([]Artifact, 0, len(Names))
	for _, name := range Names {
		a, err := Render(name, in)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}
