package services

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracker/internal/amqp"
	"tracker/internal/core"
	"tracker/internal/ledger"
	applog "tracker/internal/log"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.LedgerEvent
	err    error
}

func (p *recordingPublisher) PublishLedgerEvent(_ context.Context, evt *amqp.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return p.err
}

func (p *recordingPublisher) kinds() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Kind
	}
	return out
}

func newService(pub EventPublisher) (*LedgerService, *ledger.Store) {
	store := ledger.NewDefault()
	return NewLedgerService("sess-1", store, pub, nil), store
}

func breakfast() core.Expense {
	return core.Expense{Date: core.NewDate(2025, 1, 1), Category: "Food", Amount: core.Money{Cents: 1575}, Description: "Breakfast"}
}

func TestAddThenTotals(t *testing.T) {
	svc, _ := newService(nil)
	ctx := context.Background()

	n, err := svc.Add(ctx, breakfast())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	s := svc.Summary(ctx, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, core.Totals{Sum: core.Money{Cents: 1575}, Count: 1, Categories: 1}, s.Totals)
}

func TestAddValidation(t *testing.T) {
	svc, store := newService(nil)
	ctx := context.Background()

	cases := []struct {
		name  string
		e     core.Expense
		field string
		cause error
	}{
		{"negative amount", core.Expense{Date: core.NewDate(2025, 1, 1), Category: "Food", Amount: core.Money{Cents: -1}}, "amount", core.ErrNegativeAmount},
		{"empty category", core.Expense{Date: core.NewDate(2025, 1, 1), Category: " "}, "category", core.ErrEmptyCategory},
		{"unknown category", core.Expense{Date: core.NewDate(2025, 1, 1), Category: "Fod"}, "category", core.ErrUnknownCategory},
		{"bad date", core.Expense{Date: core.ParseDate("tomorrow"), Category: "Food"}, "date", core.ErrInvalidDate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Add(ctx, tc.e)
			var ve *core.ValidationError
			require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
			assert.Equal(t, tc.field, ve.Field)
			assert.ErrorIs(t, err, tc.cause)
		})
	}
	assert.Equal(t, 0, store.Len())
}

func TestAddSuggestsCategory(t *testing.T) {
	svc, _ := newService(nil)
	_, err := svc.Add(context.Background(), core.Expense{Date: core.NewDate(2025, 1, 1), Category: "Transprot"})
	var ve *core.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, core.CategoryTransport, ve.Suggestion)
}

func TestAppendAcceptsFreeCategory(t *testing.T) {
	svc, _ := newService(nil)
	_, err := svc.Append(context.Background(), core.Expense{Date: core.ParseDate("n/a"), Category: "Groceries", Amount: core.Money{}})
	require.NoError(t, err)
}

func TestAppendPreservesOrder(t *testing.T) {
	svc, _ := newService(nil)
	ctx := context.Background()
	for i := 0; i < 20; i++ {
		_, err := svc.Append(ctx, core.Expense{Date: core.NewDate(2025, 1, i+1), Category: "Other", Amount: core.Money{Cents: int64(i)}})
		require.NoError(t, err)
	}
	for i, e := range svc.Records() {
		assert.Equal(t, int64(i), e.Amount.Cents)
	}
}

func TestLoadSample(t *testing.T) {
	svc, _ := newService(nil)
	ctx := context.Background()
	_, err := svc.Add(ctx, breakfast())
	require.NoError(t, err)

	assert.Equal(t, 3, svc.LoadSample(ctx))
	records := svc.Records()
	require.Len(t, records, 3)

	var dates, cats []string
	for _, e := range records {
		dates = append(dates, e.Date.String())
		cats = append(cats, e.Category)
	}
	assert.Equal(t, []string{"2025-01-01", "2025-01-02", "2025-01-03"}, dates)
	assert.Equal(t, []string{"Food", "Transport", "Entertainment"}, cats)
	assert.Equal(t, int64(4605), svc.Summary(ctx, time.Time{}).Totals.Sum.Cents)
}

func TestImportMissingColumnLeavesLedgerUntouched(t *testing.T) {
	svc, _ := newService(nil)
	ctx := context.Background()
	svc.LoadSample(ctx)
	before, err := svc.Export(ctx)
	require.NoError(t, err)

	_, err = svc.Import(ctx, strings.NewReader("Date,Category,Amount\n2025-02-01,Food,1\n"))
	var se *core.SchemaError
	require.True(t, errors.As(err, &se), "expected SchemaError, got %v", err)
	assert.Equal(t, []string{"Description"}, se.Missing)

	after, err := svc.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestImportBadRowLeavesLedgerUntouched(t *testing.T) {
	svc, _ := newService(nil)
	ctx := context.Background()
	svc.LoadSample(ctx)

	_, err := svc.Import(ctx, strings.NewReader("Date,Category,Amount,Description\n2025-02-01,Food,1,a\n2025-02-02,Food,x,b\n"))
	require.Error(t, err)
	assert.Len(t, svc.Records(), 3)
}

func TestExportImportRoundTrip(t *testing.T) {
	svc, _ := newService(nil)
	ctx := context.Background()
	svc.LoadSample(ctx)
	want := svc.Records()

	data, err := svc.Export(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "Date,Category,Amount,Description\n"))

	other, _ := newService(nil)
	n, err := other.Import(ctx, strings.NewReader(string(data)))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, want, other.Records())
}

func TestExportEmpty(t *testing.T) {
	svc, _ := newService(nil)
	_, err := svc.Export(context.Background())
	var ee *core.EmptyLedgerError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, "no expense data available to export", err.Error())
}

func TestSave(t *testing.T) {
	svc, _ := newService(nil)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "expenses.csv")

	_, err := svc.Save(ctx, path)
	var ee *core.EmptyLedgerError
	require.True(t, errors.As(err, &ee))
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "empty save must not create a file")

	svc.LoadSample(ctx)
	n, err := svc.Save(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	exported, err := svc.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, exported, written)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file should be gone")
}

func TestResetKeepsBudget(t *testing.T) {
	svc, _ := newService(nil)
	ctx := context.Background()
	require.NoError(t, svc.SetBudget(ctx, core.Money{Cents: 5000}))
	svc.LoadSample(ctx)

	svc.Reset(ctx)
	assert.Empty(t, svc.Records())
	assert.Equal(t, int64(5000), svc.Budget().Cents)
}

func TestSetBudget(t *testing.T) {
	svc, _ := newService(nil)
	ctx := context.Background()

	require.NoError(t, svc.SetBudget(ctx, core.Money{}))
	assert.Equal(t, int64(0), svc.Budget().Cents)

	svc.LoadSample(ctx)
	u := svc.Summary(ctx, time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)).Utilization
	assert.Equal(t, 0.0, u.Ratio)

	err := svc.SetBudget(ctx, core.Money{Cents: -100})
	var ve *core.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "budget", ve.Field)
	assert.Equal(t, int64(0), svc.Budget().Cents)
}

func TestPublishesEvents(t *testing.T) {
	pub := &recordingPublisher{}
	svc, _ := newService(pub)
	ctx := context.Background()

	_, err := svc.Add(ctx, breakfast())
	require.NoError(t, err)
	svc.LoadSample(ctx)
	require.NoError(t, svc.SetBudget(ctx, core.Money{Cents: 200}))
	_, err = svc.Import(ctx, strings.NewReader("Date,Category\n"))
	require.Error(t, err)
	svc.Reset(ctx)

	assert.Equal(t, []string{amqp.KindAppend, amqp.KindSample, amqp.KindBudget, amqp.KindReset}, pub.kinds())
	assert.Equal(t, "sess-1", pub.events[0].SessionID)
	assert.Equal(t, 3, pub.events[1].Records)
	assert.Equal(t, int64(200), pub.events[2].BudgetCents)
}

func TestPublishFailureDoesNotFailOperation(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc, _ := newService(pub)

	n, err := svc.Add(context.Background(), breakfast())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, pub.kinds(), 1)
}

func TestLogsUseRequestLogger(t *testing.T) {
	var sessionBuf, requestBuf bytes.Buffer
	sessionLogger := applog.New(applog.Config{Level: slog.LevelDebug, Output: &sessionBuf}).
		With(applog.FieldSessionID, "sess-1")
	requestLogger := applog.New(applog.Config{Level: slog.LevelDebug, Output: &requestBuf}).
		With(applog.FieldRequestID, "req-1", applog.FieldSessionID, "sess-1")
	svc := NewLedgerService("sess-1", ledger.NewDefault(), nil, sessionLogger)

	_, err := svc.Append(applog.NewContext(context.Background(), requestLogger), breakfast())
	require.NoError(t, err)
	line := requestBuf.String()
	assert.Contains(t, line, "request_id=req-1")
	assert.Contains(t, line, "component=ledger")
	assert.Equal(t, 1, strings.Count(line, "session_id="), line)
	assert.Empty(t, sessionBuf.String())

	svc.Reset(context.Background())
	assert.Contains(t, sessionBuf.String(), "Ledger reset")
	assert.Equal(t, 1, strings.Count(sessionBuf.String(), "session_id="), sessionBuf.String())
}
