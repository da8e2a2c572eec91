package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"alugueis/internal/amqp"
	"alugueis/internal/core"
	"alugueis/internal/encoding"
	"alugueis/internal/ledger"
	applog "alugueis/internal/log"
	"alugueis/internal/metrics"
	"alugueis/internal/store"
)

var tracer = otel.Tracer("alugueis/services")

var (
	// ErrNotFound reports an unknown transaction ID.
	ErrNotFound = errors.New("transaction not found")

	// ErrLegacyRecord reports an edit of a stored row that falls outside the closed sets.
	// Such rows can only be deleted.
	ErrLegacyRecord = errors.New("legacy record cannot be edited")

	// ErrNotInitialized reports use of the service before Init.
	ErrNotInitialized = errors.New("ledger service not initialized")
)

// ChangePublisher announces table rewrites. *amqp.Client implements it.
type ChangePublisher interface {
	PublishLedgerChanged(ctx context.Context, msg amqp.LedgerChangedMessage) error
}

// Tables names the two ledger tables in the store. An empty ID is resolved from the
// name (and created when missing) by Init.
type Tables struct {
	TransactionsID   string
	TransactionsName string
	OccupancyID      string
	OccupancyName    string
	Container        string
}

// Snapshot is a fully materialized copy of both tables.
type Snapshot struct {
	Transactions []core.Transaction
	Occupancy    core.Occupancy
}

// LedgerService owns the read-modify-write cycle over the two tables. Every mutation
// reads the whole table, applies the change and writes the whole table back. Writers
// inside one process are serialized; across processes the last write wins.
type LedgerService struct {
	store     store.TableStore
	tables    Tables
	publisher ChangePublisher
	metrics   *metrics.Metrics
	logger    *applog.Logger
	now       func() time.Time

	mu          sync.Mutex
	initialized bool
}

// Option configures a LedgerService.
type Option func(*LedgerService)

// WithPublisher sends a change event after each successful write.
func WithPublisher(p ChangePublisher) Option {
	return func(s *LedgerService) { s.publisher = p }
}

// WithMetrics counts mutations and report renders.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *LedgerService) { s.metrics = m }
}

// WithLogger sets the service logger.
func WithLogger(l *applog.Logger) Option {
	return func(s *LedgerService) {
		if l != nil {
			s.logger = l.WithComponent(applog.ComponentLedger)
		}
	}
}

// WithClock replaces time.Now, which decides "today" for occupancy dates and vacancy.
func WithClock(now func() time.Time) Option {
	return func(s *LedgerService) {
		if now != nil {
			s.now = now
		}
	}
}

func NewLedgerService(st store.TableStore, tables Tables, opts ...Option) *LedgerService {
	s := &LedgerService{
		store:  st,
		tables: tables,
		logger: applog.Discard().WithComponent(applog.ComponentLedger),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today is the current calendar date according to the service clock.
func (s *LedgerService) Today() civil.Date {
	return civil.DateOf(s.now())
}

// Now returns the service clock reading.
func (s *LedgerService) Now() time.Time {
	return s.now()
}

// Tables returns the resolved table identifiers.
func (s *LedgerService) Tables() Tables {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tables
}

// Init makes sure both tables exist, writes the default occupancy table when it is
// empty and repairs missing or duplicated transaction IDs.
func (s *LedgerService) Init(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "ledger.Init")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	txID, err := s.store.EnsureExists(ctx, s.tables.TransactionsID, s.tables.TransactionsName, s.tables.Container)
	if err != nil {
		return fmt.Errorf("ensure transactions table: %w", err)
	}
	occID, err := s.store.EnsureExists(ctx, s.tables.OccupancyID, s.tables.OccupancyName, s.tables.Container)
	if err != nil {
		return fmt.Errorf("ensure occupancy table: %w", err)
	}
	s.tables.TransactionsID = txID
	s.tables.OccupancyID = occID
	s.initialized = true

	raw, err := s.store.ReadTable(ctx, occID)
	if err != nil {
		return fmt.Errorf("read occupancy: %w", err)
	}
	if len(bytes.TrimSpace(bytes.TrimPrefix(raw, encoding.BOM))) == 0 {
		if err := s.store.WriteTable(ctx, occID, ledger.EncodeOccupancy(core.DefaultOccupancy(s.Today()))); err != nil {
			return fmt.Errorf("write default occupancy: %w", err)
		}
		s.logger.InfoContext(ctx, "Wrote default occupancy table", applog.FieldTable, occID)
	}

	txs, err := s.readTransactions(ctx)
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Ledger initialized",
		"transactions_table", txID,
		"occupancy_table", occID,
		"transactions", len(txs))
	return nil
}

// Snapshot reads both tables.
func (s *LedgerService) Snapshot(ctx context.Context) (Snapshot, error) {
	ctx, span := tracer.Start(ctx, "ledger.Snapshot")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	txs, err := s.readTransactions(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	occ, err := s.readOccupancy(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	span.SetAttributes(attribute.Int("ledger.transactions", len(txs)))
	return Snapshot{Transactions: txs, Occupancy: occ}, nil
}

// GetTransaction returns the stored transaction with the given ID.
func (s *LedgerService) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	txs, err := s.readTransactions(ctx)
	if err != nil {
		return core.Transaction{}, err
	}
	i := indexOf(txs, id)
	if i < 0 {
		return core.Transaction{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return txs[i], nil
}

// AddTransaction validates tx, gives it a new ID and appends it to the table.
func (s *LedgerService) AddTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	ctx, span := tracer.Start(ctx, "ledger.AddTransaction")
	defer span.End()

	tx = normalize(tx)
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	tx.ID = uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	txs, err := s.readTransactions(ctx)
	if err != nil {
		return core.Transaction{}, err
	}
	txs = append(txs, tx)
	if err := s.writeTransactions(ctx, amqp.OperationCreate, tx.ID, txs); err != nil {
		return core.Transaction{}, err
	}

	s.logger.InfoContext(ctx, "Transaction added",
		applog.NewFields().WithTransaction(tx.ID, tx.Unit, string(tx.Kind), string(tx.Category), tx.Amount.Cents).ToSlice()...)
	return tx, nil
}

// UpdateTransaction replaces the transaction with the given ID. Legacy rows are rejected.
func (s *LedgerService) UpdateTransaction(ctx context.Context, id string, tx core.Transaction) (core.Transaction, error) {
	ctx, span := tracer.Start(ctx, "ledger.UpdateTransaction")
	defer span.End()

	tx = normalize(tx)
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	tx.ID = id

	s.mu.Lock()
	defer s.mu.Unlock()

	txs, err := s.readTransactions(ctx)
	if err != nil {
		return core.Transaction{}, err
	}
	i := indexOf(txs, id)
	if i < 0 {
		return core.Transaction{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if txs[i].Legacy() {
		return core.Transaction{}, fmt.Errorf("%w: %s", ErrLegacyRecord, id)
	}
	txs[i] = tx
	if err := s.writeTransactions(ctx, amqp.OperationUpdate, id, txs); err != nil {
		return core.Transaction{}, err
	}

	s.logger.InfoContext(ctx, "Transaction updated",
		applog.NewFields().WithTransaction(tx.ID, tx.Unit, string(tx.Kind), string(tx.Category), tx.Amount.Cents).ToSlice()...)
	return tx, nil
}

// DeleteTransaction removes the transaction with the given ID, legacy or not.
func (s *LedgerService) DeleteTransaction(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "ledger.DeleteTransaction")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	txs, err := s.readTransactions(ctx)
	if err != nil {
		return err
	}
	i := indexOf(txs, id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	txs = append(txs[:i:i], txs[i+1:]...)
	if err := s.writeTransactions(ctx, amqp.OperationDelete, id, txs); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Transaction deleted", applog.FieldRecordID, id)
	return nil
}

// SetOccupancy records the status of a rentable unit. The update date moves only when
// the status actually changes, so it always marks the start of the current status.
func (s *LedgerService) SetOccupancy(ctx context.Context, unit string, occupied bool) (core.OccupancyRecord, error) {
	ctx, span := tracer.Start(ctx, "ledger.SetOccupancy")
	defer span.End()

	if !core.IsRentableUnit(unit) {
		return core.OccupancyRecord{}, fmt.Errorf("%w: %q", core.ErrUnknownUnit, unit)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	occ, err := s.readOccupancy(ctx)
	if err != nil {
		return core.OccupancyRecord{}, err
	}
	if err := occ.Validate(); err != nil {
		return core.OccupancyRecord{}, err
	}

	var rec core.OccupancyRecord
	changed := false
	for i := range occ {
		if occ[i].Unit != unit {
			continue
		}
		if occ[i].Occupied != occupied {
			occ[i].Occupied = occupied
			occ[i].LastUpdated = s.Today()
			changed = true
		}
		rec = occ[i]
	}
	if !changed {
		return rec, nil
	}

	if err := s.write(ctx, amqp.TableOccupancy, amqp.OperationSet, unit, s.tables.OccupancyID, ledger.EncodeOccupancy(occ)); err != nil {
		return core.OccupancyRecord{}, err
	}
	s.logger.InfoContext(ctx, "Occupancy updated", applog.FieldUnit, unit, applog.FieldOccupied, occupied)
	return rec, nil
}

// Ping reads both tables; it backs the readiness probe.
func (s *LedgerService) Ping(ctx context.Context) error {
	_, err := s.Snapshot(ctx)
	return err
}

// readTransactions parses the transactions table. Rows edited outside the service may
// come without an ID or with a copied one; they get a fresh ID and the table is written
// back before anyone can address them. Callers hold s.mu.
func (s *LedgerService) readTransactions(ctx context.Context) ([]core.Transaction, error) {
	if !s.initialized {
		return nil, ErrNotInitialized
	}
	raw, err := s.store.ReadTable(ctx, s.tables.TransactionsID)
	if err != nil {
		return nil, fmt.Errorf("read transactions: %w", err)
	}
	txs, err := ledger.ParseTransactions(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse transactions: %w", err)
	}
	if n := assignIDs(txs); n > 0 {
		if err := s.writeTransactions(ctx, amqp.OperationBackfill, "", txs); err != nil {
			return nil, err
		}
		s.logger.InfoContext(ctx, "Assigned IDs to stored transactions", "count", n)
	}
	return txs, nil
}

func (s *LedgerService) readOccupancy(ctx context.Context) (core.Occupancy, error) {
	if !s.initialized {
		return nil, ErrNotInitialized
	}
	raw, err := s.store.ReadTable(ctx, s.tables.OccupancyID)
	if err != nil {
		return nil, fmt.Errorf("read occupancy: %w", err)
	}
	occ, err := ledger.ParseOccupancy(bytes.NewReader(raw), s.Today())
	if err != nil {
		return nil, fmt.Errorf("parse occupancy: %w", err)
	}
	return occ, nil
}

func (s *LedgerService) writeTransactions(ctx context.Context, op, recordID string, txs []core.Transaction) error {
	return s.write(ctx, amqp.TableTransactions, op, recordID, s.tables.TransactionsID, ledger.EncodeTransactions(txs))
}

func (s *LedgerService) write(ctx context.Context, table, op, recordID, tableID string, data []byte) error {
	err := s.store.WriteTable(ctx, tableID, data)
	if s.metrics != nil {
		s.metrics.IncMutation(table, op, err)
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", table, err)
	}
	s.publish(ctx, table, op, recordID)
	return nil
}

// publish sends a change event. Failures are logged and never fail the mutation: the
// table is already written.
func (s *LedgerService) publish(ctx context.Context, table, op, recordID string) {
	if s.publisher == nil {
		return
	}
	msg := amqp.NewLedgerChangedMessage(table, op, recordID, s.now())
	err := s.publisher.PublishLedgerChanged(ctx, *msg)
	if s.metrics != nil {
		s.metrics.IncEvent(err)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish ledger change",
			applog.FieldTable, table,
			applog.FieldOperation, op,
			applog.FieldRecordID, recordID,
			applog.FieldError, err)
	}
}

// assignIDs gives a new ID to every row with an empty ID or one already used by an
// earlier row. It returns the number of rows changed.
func assignIDs(txs []core.Transaction) int {
	seen := make(map[string]struct{}, len(txs))
	changed := 0
	for i := range txs {
		if _, dup := seen[txs[i].ID]; txs[i].ID == "" || dup {
			txs[i].ID = uuid.NewString()
			changed++
		}
		seen[txs[i].ID] = struct{}{}
	}
	return changed
}

func indexOf(txs []core.Transaction, id string) int {
	if id == "" {
		return -1
	}
	for i := range txs {
		if txs[i].ID == id {
			return i
		}
	}
	return -1
}

func normalize(tx core.Transaction) core.Transaction {
	tx.Description = strings.TrimSpace(tx.Description)
	return tx
}
