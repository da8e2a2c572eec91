package services

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"alugueis/internal/aggregate"
	"alugueis/internal/core"
	"alugueis/internal/ledger"
	applog "alugueis/internal/log"
	"alugueis/internal/report"
)

// Dashboard is the view of one filter over a snapshot.
type Dashboard struct {
	Filter   ledger.Filter
	Today    civil.Date
	Snapshot Snapshot

	// Filtered holds the transactions matching Filter, in table order.
	Filtered []core.Transaction
	Summary  aggregate.Summary
}

// Dashboard reads a snapshot, applies f and aggregates the result. Occupancy figures
// always use the full occupancy table.
func (s *LedgerService) Dashboard(ctx context.Context, f ledger.Filter) (Dashboard, error) {
	ctx, span := tracer.Start(ctx, "ledger.Dashboard")
	defer span.End()

	snap, err := s.Snapshot(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	today := s.Today()
	filtered := f.Apply(snap.Transactions)
	summary, err := aggregate.Build(filtered, snap.Occupancy, today)
	if err != nil {
		return Dashboard{}, fmt.Errorf("aggregate: %w", err)
	}
	return Dashboard{
		Filter:   f,
		Today:    today,
		Snapshot: snap,
		Filtered: filtered,
		Summary:  summary,
	}, nil
}

// ReportInput builds the renderer input for a dashboard. The creation date is the start
// of the dashboard day, so the same snapshot renders the same bytes all day.
func (s *LedgerService) ReportInput(d Dashboard) report.Input {
	return report.Input{
		Transactions: d.Snapshot.Transactions,
		Occupancy:    d.Snapshot.Occupancy,
		Filter:       d.Filter,
		Summary:      d.Summary,
		CreatedAt:    d.Today.In(time.UTC),
	}
}

// Report renders one artifact for filter f.
func (s *LedgerService) Report(ctx context.Context, f ledger.Filter, name string) (report.Artifact, error) {
	d, err := s.Dashboard(ctx, f)
	if err != nil {
		return report.Artifact{}, err
	}
	return s.render(ctx, name, s.ReportInput(d))
}

// Reports renders every artifact for filter f, in download order.
func (s *LedgerService) Reports(ctx context.Context, f ledger.Filter) ([]report.Artifact, error) {
	d, err := s.Dashboard(ctx, f)
	if err != nil {
		return nil, err
	}
	in := s.ReportInput(d)
	out := make([]report.Artifact, 0, len(report.Names))
	for _, name := range report.Names {
		a, err := s.render(ctx, name, in)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *LedgerService) render(ctx context.Context, name string, in report.Input) (report.Artifact, error) {
	_, span := tracer.Start(ctx, "report.Render")
	defer span.End()

	start := time.Now()
	a, err := report.Render(name, in)
	if err != nil {
		s.logger.ErrorContext(ctx, "Report rendering failed", applog.FieldArtifact, name, applog.FieldError, err)
		return report.Artifact{}, err
	}
	if s.metrics != nil {
		s.metrics.ObserveRender(name, time.Since(start))
	}
	s.logger.DebugContext(ctx, "Report rendered",
		applog.FieldArtifact, name,
		applog.FieldBytes, len(a.Data),
		applog.FieldDuration, time.Since(start).Milliseconds())
	return a, nil
}
