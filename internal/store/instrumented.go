package store

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	applog "alugueis/internal/log"
	"alugueis/internal/metrics"
)

var tracer = otel.Tracer("alugueis/store")

// Instrumented decorates a TableStore with metrics, traces and structured logs.
type Instrumented struct {
	next    TableStore
	backend string
	metrics *metrics.Metrics
	logger  *applog.Logger
}

// Instrument wraps next. m and logger may be nil.
func Instrument(next TableStore, backend string, m *metrics.Metrics, logger *applog.Logger) *Instrumented {
	if logger == nil {
		logger = applog.Discard()
	}
	return &Instrumented{
		next:    next,
		backend: backend,
		metrics: m,
		logger:  logger.WithComponent(applog.ComponentStore).With(applog.FieldBackend, backend),
	}
}

// Unwrap returns the decorated store.
func (s *Instrumented) Unwrap() TableStore { return s.next }

func (s *Instrumented) start(ctx context.Context, op, tableID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "store."+op, trace.WithAttributes(
		attribute.String("store.backend", s.backend),
		attribute.String("store.table", tableID),
	))
}

func (s *Instrumented) observe(ctx context.Context, span trace.Span, op, tableID string, start time.Time, n int, err error) {
	defer span.End()
	d := time.Since(start)
	span.SetAttributes(attribute.Int("store.bytes", n))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if s.metrics != nil {
		s.metrics.ObserveStore(s.backend, op, d, err)
		if err == nil && n > 0 {
			dir := "write"
			if op == applog.OpRead {
				dir = "read"
			}
			s.metrics.AddStoreBytes(s.backend, dir, n)
		}
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Store operation failed",
			applog.FieldOperation, op,
			applog.FieldTable, tableID,
			applog.FieldError, err)
		return
	}
	s.logger.DebugContext(ctx, "Store operation",
		applog.FieldOperation, op,
		applog.FieldTable, tableID,
		applog.FieldBytes, n,
		applog.FieldDuration, d.Milliseconds())
}

func (s *Instrumented) ReadTable(ctx context.Context, tableID string) ([]byte, error) {
	ctx, span := s.start(ctx, applog.OpRead, tableID)
	start := time.Now()
	data, err := s.next.ReadTable(ctx, tableID)
	s.observe(ctx, span, applog.OpRead, tableID, start, len(data), err)
	return data, err
}

func (s *Instrumented) WriteTable(ctx context.Context, tableID string, data []byte) error {
	ctx, span := s.start(ctx, applog.OpWrite, tableID)
	start := time.Now()
	err := s.next.WriteTable(ctx, tableID, data)
	s.observe(ctx, span, applog.OpWrite, tableID, start, len(data), err)
	return err
}

func (s *Instrumented) EnsureExists(ctx context.Context, tableID, name, containerID string) (string, error) {
	ctx, span := s.start(ctx, applog.OpEnsure, tableID)
	start := time.Now()
	id, err := s.next.EnsureExists(ctx, tableID, name, containerID)
	s.observe(ctx, span, applog.OpEnsure, tableID, start, 0, err)
	if err == nil && id != tableID {
		s.logger.InfoContext(ctx, "Created table", applog.FieldTable, name, "table_id", id)
	}
	return id, err
}

// Close closes the decorated store when it holds resources.
func (s *Instrumented) Close() error {
	if c, ok := s.next.(Closer); ok {
		return c.Close()
	}
	return nil
}
