package worker

import (
	"context"
	"fmt"
	"path"
	"time"

	"cloud.google.com/go/civil"
	"golang.org/x/sync/errgroup"

	"alugueis/internal/amqp"
	"alugueis/internal/ledger"
	applog "alugueis/internal/log"
	"alugueis/internal/metrics"
	"alugueis/internal/report"
	"alugueis/internal/store"
)

// maxParallelWrites bounds concurrent archive uploads per event.
const maxParallelWrites = 3

// Reporter renders the report artifacts for a filter.
type Reporter interface {
	Reports(ctx context.Context, f ledger.Filter) ([]report.Artifact, error)
}

// ArchiveWorker keeps a dated copy of every report artifact in an archive store. Each
// change event overwrites the copies of the day the event happened.
type ArchiveWorker struct {
	reports Reporter
	dest    store.TableStore
	metrics *metrics.Metrics
	logger  *applog.Logger
	now     func() time.Time
}

func NewArchiveWorker(reports Reporter, archive store.TableStore, m *metrics.Metrics, logger *applog.Logger) *ArchiveWorker {
	if logger == nil {
		logger = applog.Discard()
	}
	return &ArchiveWorker{
		reports: reports,
		dest:    archive,
		metrics: m,
		logger:  logger.WithComponent(applog.ComponentWorker),
		now:     time.Now,
	}
}

// ArchiveKey returns the archive table key of an artifact: "YYYY-MM-DD/<name>".
func ArchiveKey(day civil.Date, name string) string {
	return path.Join(day.String(), name)
}

// Handle processes one ledger change event. A returned error requeues the event.
func (w *ArchiveWorker) Handle(ctx context.Context, msg *amqp.LedgerChangedMessage) error {
	at := msg.Timestamp
	if at.IsZero() {
		at = w.now()
	}

	w.logger.InfoContext(ctx, "Processing ledger change",
		applog.FieldTable, msg.Table,
		applog.FieldOperation, msg.Operation,
		applog.FieldRecordID, msg.RecordID)

	n, err := w.archive(ctx, civil.DateOf(at))
	if w.metrics != nil {
		w.metrics.IncEvent(err)
	}
	if err != nil {
		return fmt.Errorf("archive reports: %w", err)
	}

	w.logger.InfoContext(ctx, "Archived reports",
		applog.FieldTable, msg.Table,
		applog.FieldOperation, msg.Operation,
		"artifacts", n,
		"day", civil.DateOf(at).String())
	return nil
}

// StartupArchive archives the current state once, so changes made while the worker was
// down are not missing from today's copy.
func (w *ArchiveWorker) StartupArchive(ctx context.Context) error {
	day := civil.DateOf(w.now())
	n, err := w.archive(ctx, day)
	if err != nil {
		return fmt.Errorf("startup archive: %w", err)
	}
	w.logger.InfoContext(ctx, "Startup archive completed", "artifacts", n, "day", day.String())
	return nil
}

func (w *ArchiveWorker) archive(ctx context.Context, day civil.Date) (int, error) {
	artifacts, err := w.reports.Reports(ctx, ledger.Filter{})
	if err != nil {
		return 0, fmt.Errorf("render: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelWrites)
	for _, a := range artifacts {
		g.Go(func() error {
			key := ArchiveKey(day, a.Name)
			if err := w.dest.WriteTable(gctx, key, a.Data); err != nil {
				return fmt.Errorf("write %s: %w", key, err)
			}
			w.logger.DebugContext(gctx, "Archived artifact",
				applog.FieldArtifact, a.Name,
				applog.FieldTable, key,
				applog.FieldBytes, len(a.Data))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(artifacts), nil
}
