package core

import (
	"encoding/json"
	"time"
)

// CategoryTotal represents an amount aggregated by category name.
type CategoryTotal struct {
	Category string `json:"category"`
	Amount   Money  `json:"amount"`
}

// DayTotal represents an amount aggregated by calendar day.
type DayTotal struct {
	Date   time.Time `json:"-"`
	Amount Money     `json:"amount"`
}

// MarshalJSON renders the day as YYYY-MM-DD.
func (d DayTotal) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Date   string `json:"date"`
		Amount Money  `json:"amount"`
	}{Date: d.Date.Format(time.DateOnly), Amount: d.Amount})
}

// Totals is the scalar ledger summary shown on the dashboard cards.
type Totals struct {
	Sum        Money `json:"sum"`
	Count      int   `json:"count"`
	Categories int   `json:"categories"`
}

// Utilization is the share of the monthly budget spent in one month.
type Utilization struct {
	Year   int   `json:"year"`
	Month  int   `json:"month"` // 1-12
	Spent  Money `json:"spent"`
	Budget Money `json:"budget"`
	// Ratio is Spent/Budget, or 0 when the budget is zero.
	Ratio float64 `json:"ratio"`
	// Progress is Ratio clamped to [0, 1].
	Progress float64 `json:"progress"`
}

// Summary bundles every derived view for one ledger snapshot.
type Summary struct {
	Totals      Totals          `json:"totals"`
	ByCategory  []CategoryTotal `json:"by_category"`
	OverTime    []DayTotal      `json:"over_time"`
	Skipped     int             `json:"skipped_dates"`
	Utilization Utilization     `json:"utilization"`
}
