// Package ledger holds the ordered expense records and monthly budget of one
// session. It is the only owner of mutable expense state.
package ledger

import (
	"sync"

	"tracker/internal/core"
)

// Snapshot is a read-only copy of the ledger for aggregation and export.
type Snapshot struct {
	Records      []core.Expense
	ExtraColumns []string
	Budget       core.Money
}

// Empty reports whether the snapshot holds no records.
func (s Snapshot) Empty() bool {
	return len(s.Records) == 0
}

type Store struct {
	mu           sync.Mutex
	items        []core.Expense
	extraColumns []string
	budget       core.Money
}

// New creates an empty ledger with the given monthly budget.
func New(budget core.Money) *Store {
	return &Store{budget: budget}
}

// NewDefault creates an empty ledger with the default 1000.00 budget.
func NewDefault() *Store {
	return New(core.Money{Cents: core.DefaultBudgetCents})
}

// Append adds e to the end of the ledger and returns the new record count.
func (s *Store) Append(e core.Expense) (int, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, e.Clone())
	return len(s.items), nil
}

// Replace discards the current records and substitutes records wholesale.
func (s *Store) Replace(records []core.Expense, extraColumns []string) {
	items := make([]core.Expense, len(records))
	for i, e := range records {
		items[i] = e.Clone()
	}
	cols := append([]string(nil), extraColumns...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = items
	s.extraColumns = cols
}

// Clear empties the ledger. The budget is kept.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.extraColumns = nil
}

// SetBudget replaces the monthly budget.
func (s *Store) SetBudget(m core.Money) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budget = m
}

// Budget returns the monthly budget.
func (s *Store) Budget() core.Money {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.budget
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := make([]core.Expense, len(s.items))
	for i, e := range s.items {
		records[i] = e.Clone()
	}
	return Snapshot{
		Records:      records,
		ExtraColumns: append([]string(nil), s.extraColumns...),
		Budget:       s.budget,
	}
}
