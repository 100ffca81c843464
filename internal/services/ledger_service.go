package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"tracker/internal/aggregate"
	"tracker/internal/amqp"
	"tracker/internal/core"
	"tracker/internal/csvio"
	"tracker/internal/ledger"
	applog "tracker/internal/log"
)

// EventPublisher receives a notification after every ledger mutation.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, evt *amqp.LedgerEvent) error
}

// LedgerService runs the record operations of one session against its store
// and announces each change. The store is the source of truth; publishing
// is best effort.
type LedgerService struct {
	sessionID string
	store     *ledger.Store
	publisher EventPublisher
	logger    *applog.Logger
	now       func() time.Time
}

// NewLedgerService binds store to a session. logger is expected to carry
// the session ID already.
func NewLedgerService(sessionID string, store *ledger.Store, publisher EventPublisher, logger *applog.Logger) *LedgerService {
	if logger == nil {
		logger = applog.Discard()
	}
	return &LedgerService{
		sessionID: sessionID,
		store:     store,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// SampleRecords is the fixture LoadSample installs.
func SampleRecords() []core.Expense {
	return []core.Expense{
		{Date: core.NewDate(2025, 1, 1), Category: core.CategoryFood, Amount: core.Money{Cents: 1575}, Description: "Breakfast"},
		{Date: core.NewDate(2025, 1, 2), Category: core.CategoryTransport, Amount: core.Money{Cents: 780}, Description: "Bus fare"},
		{Date: core.NewDate(2025, 1, 3), Category: core.CategoryEntertainment, Amount: core.Money{Cents: 2250}, Description: "Movie ticket"},
	}
}

// Append adds e to the ledger with the store's validation only.
func (s *LedgerService) Append(ctx context.Context, e core.Expense) (int, error) {
	n, err := s.store.Append(e)
	if err != nil {
		return 0, fmt.Errorf("append expense: %w", err)
	}
	s.log(ctx).InfoContext(ctx, "Expense appended",
		applog.NewFields().WithOperation(applog.OpAppend).WithExpense(e.Category, e.Amount.Cents).WithRecords(n).ToSlice()...)
	s.publish(ctx, amqp.KindAppend, n)
	return n, nil
}

// Add is the guided-form entry point: it requires a real date and a known
// category before appending.
func (s *LedgerService) Add(ctx context.Context, e core.Expense) (int, error) {
	if err := e.ValidateForm(); err != nil {
		return 0, fmt.Errorf("add expense: %w", err)
	}
	return s.Append(ctx, e)
}

// Import replaces the ledger with the table read from r. On any decode
// failure the ledger is left exactly as it was.
func (s *LedgerService) Import(ctx context.Context, r io.Reader) (int, error) {
	table, err := csvio.Decode(r)
	if err != nil {
		s.log(ctx).WarnContext(ctx, "Import rejected",
			applog.NewFields().WithOperation(applog.OpImport).WithError(err).ToSlice()...)
		return 0, fmt.Errorf("import: %w", err)
	}
	s.store.Replace(table.Records, table.ExtraColumns)

	n := len(table.Records)
	s.log(ctx).InfoContext(ctx, "Ledger imported",
		applog.NewFields().WithOperation(applog.OpImport).WithRecords(n).ToSlice()...)
	s.publish(ctx, amqp.KindImport, n)
	return n, nil
}

// Export renders the ledger in the interchange format.
func (s *LedgerService) Export(ctx context.Context) ([]byte, error) {
	snap := s.store.Snapshot()
	if snap.Empty() {
		return nil, &core.EmptyLedgerError{Op: applog.OpExport}
	}
	data, err := csvio.Marshal(snap.Records, snap.ExtraColumns)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	s.log(ctx).DebugContext(ctx, "Ledger exported",
		applog.NewFields().WithOperation(applog.OpExport).WithRecords(len(snap.Records)).ToSlice()...)
	return data, nil
}

// Save writes the export to path through a temporary file in the same
// directory, so a reader never sees a half-written file.
func (s *LedgerService) Save(ctx context.Context, path string) (int, error) {
	snap := s.store.Snapshot()
	if snap.Empty() {
		return 0, &core.EmptyLedgerError{Op: applog.OpSave}
	}
	data, err := csvio.Marshal(snap.Records, snap.ExtraColumns)
	if err != nil {
		return 0, fmt.Errorf("save: %w", err)
	}
	if err := writeFileAtomic(path, data); err != nil {
		return 0, fmt.Errorf("save %s: %w", path, err)
	}

	n := len(snap.Records)
	s.log(ctx).InfoContext(ctx, "Ledger saved",
		append(applog.NewFields().WithOperation(applog.OpSave).WithRecords(n).ToSlice(), applog.FieldFile, path)...)
	s.publish(ctx, amqp.KindSave, n)
	return n, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Reset empties the ledger. The budget is kept.
func (s *LedgerService) Reset(ctx context.Context) {
	s.store.Clear()
	s.log(ctx).InfoContext(ctx, "Ledger reset", applog.FieldOperation, applog.OpReset)
	s.publish(ctx, amqp.KindReset, 0)
}

// LoadSample replaces the ledger with SampleRecords.
func (s *LedgerService) LoadSample(ctx context.Context) int {
	records := SampleRecords()
	s.store.Replace(records, nil)
	s.log(ctx).InfoContext(ctx, "Sample data loaded",
		applog.NewFields().WithOperation(applog.OpSample).WithRecords(len(records)).ToSlice()...)
	s.publish(ctx, amqp.KindSample, len(records))
	return len(records)
}

// SetBudget replaces the monthly budget. Negative values are rejected.
func (s *LedgerService) SetBudget(ctx context.Context, m core.Money) error {
	if err := m.Validate(); err != nil {
		return &core.ValidationError{Field: "budget", Value: m.String(), Err: err}
	}
	s.store.SetBudget(m)
	s.log(ctx).InfoContext(ctx, "Budget updated",
		applog.FieldOperation, applog.OpBudget, applog.FieldBudgetCents, m.Cents)
	s.publish(ctx, amqp.KindBudget, s.store.Len())
	return nil
}

// Budget returns the current monthly budget.
func (s *LedgerService) Budget() core.Money {
	return s.store.Budget()
}

// Records returns a copy of the ledger in insertion order.
func (s *LedgerService) Records() []core.Expense {
	return s.store.Snapshot().Records
}

// Summary computes every aggregate view for ref's month. A zero ref means
// today.
func (s *LedgerService) Summary(ctx context.Context, ref time.Time) core.Summary {
	if ref.IsZero() {
		ref = s.now()
	}
	snap := s.store.Snapshot()
	summary := aggregate.Summarize(snap.Records, snap.Budget, ref)
	if summary.Skipped > 0 {
		s.log(ctx).DebugContext(ctx, "Records with unparseable dates left out of time series",
			applog.FieldOperation, applog.OpSummarize, "skipped", summary.Skipped)
	}
	return summary
}

// log prefers the request logger, which carries the request ID.
func (s *LedgerService) log(ctx context.Context) *applog.Logger {
	return applog.FromContextOr(ctx, s.logger).WithComponent(applog.ComponentLedger)
}

func (s *LedgerService) publish(ctx context.Context, kind string, records int) {
	if s.publisher == nil {
		return
	}
	evt := amqp.NewLedgerEvent(kind, s.sessionID, records, s.store.Budget().Cents)
	if err := s.publisher.PublishLedgerEvent(ctx, evt); err != nil {
		// The ledger change already happened; only the notification is lost.
		s.log(ctx).WarnContext(ctx, "Failed to publish ledger event",
			"kind", kind, applog.FieldError, err)
	}
}
