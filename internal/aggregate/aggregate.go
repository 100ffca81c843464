// Package aggregate derives read-only views from a ledger snapshot. Every
// function is pure: no mutation, no I/O, safe to call in any order. Sums
// saturate at the int64 range instead of wrapping.
package aggregate

import (
	"sort"
	"time"

	"tracker/internal/core"
)

// ByCategory sums amounts per category in first-appearance order. Categories
// without records are absent.
func ByCategory(records []core.Expense) []core.CategoryTotal {
	var out []core.CategoryTotal
	pos := make(map[string]int)
	for _, e := range records {
		i, ok := pos[e.Category]
		if !ok {
			i = len(out)
			pos[e.Category] = i
			out = append(out, core.CategoryTotal{Category: e.Category})
		}
		out[i].Amount.Cents = core.AddCents(out[i].Amount.Cents, e.Amount.Cents)
	}
	return out
}

// OverTime sums amounts per calendar day, ascending. Records whose date does
// not parse are left out of this view only; each one is reported as a
// warning so callers can surface how much was dropped.
func OverTime(records []core.Expense) ([]core.DayTotal, []*core.UnparseableDateWarning) {
	var warnings []*core.UnparseableDateWarning
	sums := make(map[time.Time]int64)
	for i, e := range records {
		day, ok := e.Date.Time()
		if !ok {
			warnings = append(warnings, &core.UnparseableDateWarning{Index: i, Raw: e.Date.Raw()})
			continue
		}
		sums[day] = core.AddCents(sums[day], e.Amount.Cents)
	}

	out := make([]core.DayTotal, 0, len(sums))
	for day, cents := range sums {
		out = append(out, core.DayTotal{Date: day, Amount: core.Money{Cents: cents}})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, warnings
}

// Totals returns the overall sum, record count and distinct category count.
func Totals(records []core.Expense) core.Totals {
	var t core.Totals
	seen := make(map[string]struct{})
	for _, e := range records {
		t.Sum.Cents = core.AddCents(t.Sum.Cents, e.Amount.Cents)
		seen[e.Category] = struct{}{}
	}
	t.Count = len(records)
	t.Categories = len(seen)
	return t
}

// MonthlyUtilization sums the amounts dated in ref's month and year and
// relates them to budget. A zero budget yields a ratio of 0.
func MonthlyUtilization(records []core.Expense, budget core.Money, ref time.Time) core.Utilization {
	u := core.Utilization{
		Year:   ref.Year(),
		Month:  int(ref.Month()),
		Budget: budget,
	}
	for _, e := range records {
		day, ok := e.Date.Time()
		if !ok {
			continue
		}
		if day.Year() == u.Year && int(day.Month()) == u.Month {
			u.Spent.Cents = core.AddCents(u.Spent.Cents, e.Amount.Cents)
		}
	}
	if budget.Cents > 0 {
		u.Ratio = float64(u.Spent.Cents) / float64(budget.Cents)
	}
	u.Progress = clamp(u.Ratio)
	return u
}

// Summarize computes every view for one snapshot and reference date.
func Summarize(records []core.Expense, budget core.Money, ref time.Time) core.Summary {
	overTime, skipped := OverTime(records)
	return core.Summary{
		Totals:      Totals(records),
		ByCategory:  ByCategory(records),
		OverTime:    overTime,
		Skipped:     len(skipped),
		Utilization: MonthlyUtilization(records, budget, ref),
	}
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
