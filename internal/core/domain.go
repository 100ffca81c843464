package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Categories offered by the guided expense form.
const (
	CategoryFood          = "Food"
	CategoryTransport     = "Transport"
	CategoryEntertainment = "Entertainment"
	CategoryUtilities     = "Utilities"
	CategoryOther         = "Other"
)

// Interchange column names.
const (
	ColumnDate        = "Date"
	ColumnCategory    = "Category"
	ColumnAmount      = "Amount"
	ColumnDescription = "Description"
)

// DefaultBudgetCents is the monthly budget a new ledger starts with.
const DefaultBudgetCents int64 = 100000

type (
	// Date is a calendar date as entered or imported. The text is kept and
	// parsed on demand, so an imported value that is not a date survives
	// untouched and simply reports itself as unparseable.
	Date struct {
		raw string
	}

	Money struct {
		Cents int64
	}

	Expense struct {
		Date        Date   `json:"date"`
		Category    string `json:"category"`
		Amount      Money  `json:"amount"`
		Description string `json:"description"`
		// Extra holds values of import columns outside the fixed schema.
		Extra map[string]string `json:"extra,omitempty"`
	}
)

// RequiredColumns lists the interchange columns in export order.
func RequiredColumns() []string {
	return []string{ColumnDate, ColumnCategory, ColumnAmount, ColumnDescription}
}

// Categories returns the fixed category set in display order.
func Categories() []string {
	return []string{CategoryFood, CategoryTransport, CategoryEntertainment, CategoryUtilities, CategoryOther}
}

// IsKnownCategory reports whether c belongs to the guided-form category set.
func IsKnownCategory(c string) bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// layouts accepted by the lenient date parser, most specific first.
var layouts = []string{
	"2006-01-02",
	"2006-1-2",
	"2006/01/02",
	"2006/1/2",
	"01/02/2006",
	"1/2/2006",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"02 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// NewDate creates a Date from year, month, day
func NewDate(year, month, day int) Date {
	return DateOf(time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC))
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	return Date{raw: t.Format(time.DateOnly)}
}

// ParseDate wraps s without validating it.
func ParseDate(s string) Date {
	return Date{raw: strings.TrimSpace(s)}
}

// Time parses the date leniently. ok is false for the unparseable marker.
func (d Date) Time() (t time.Time, ok bool) {
	if d.raw == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, d.raw); err == nil {
			y, m, day := parsed.Date()
			return time.Date(y, m, day, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// Valid reports whether the date parses as a calendar date.
func (d Date) Valid() bool {
	_, ok := d.Time()
	return ok
}

// Raw returns the text the date was created from.
func (d Date) Raw() string {
	return d.raw
}

// String returns YYYY-MM-DD for parseable dates and the raw text otherwise.
func (d Date) String() string {
	if t, ok := d.Time(); ok {
		return t.Format(time.DateOnly)
	}
	return d.raw
}

// Validate checks an expense entering the ledger through append.
func (e Expense) Validate() error {
	if strings.TrimSpace(e.Category) == "" {
		return &ValidationError{Field: "category", Err: ErrEmptyCategory}
	}
	if err := e.Amount.Validate(); err != nil {
		return &ValidationError{Field: "amount", Err: err}
	}
	return nil
}

// ValidateForm applies the guided-form rules on top of Validate: a real
// calendar date and a category from the fixed set.
func (e Expense) ValidateForm() error {
	if !e.Date.Valid() {
		return &ValidationError{Field: "date", Value: e.Date.Raw(), Err: ErrInvalidDate}
	}
	if err := e.Validate(); err != nil {
		return err
	}
	if !IsKnownCategory(e.Category) {
		return &ValidationError{
			Field:      "category",
			Value:      e.Category,
			Suggestion: SuggestCategory(e.Category),
			Err:        ErrUnknownCategory,
		}
	}
	return nil
}

// Clone returns a copy that shares no mutable state with e.
func (e Expense) Clone() Expense {
	if e.Extra != nil {
		extra := make(map[string]string, len(e.Extra))
		for k, v := range e.Extra {
			extra[k] = v
		}
		e.Extra = extra
	}
	return e
}

func (e Expense) String() string {
	return fmt.Sprintf("%s %s %s %q", e.Date, e.Category, e.Amount, e.Description)
}

// MarshalJSON encodes the date in its String form.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON keeps the text as given; validity is checked lazily.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*d = ParseDate(s)
	return nil
}
