package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrNegativeAmount  = errors.New("amount must not be negative")
	ErrEmptyCategory   = errors.New("empty category")
	ErrUnknownCategory = errors.New("unknown category")
	ErrInvalidDate     = errors.New("invalid date")
)

// ValidationError reports a record or input field that cannot be admitted.
type ValidationError struct {
	Field string
	Value string
	// Line is the 1-based input line for import failures, 0 otherwise.
	Line       int
	Suggestion string
	Err        error
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	if e.Line > 0 {
		fmt.Fprintf(&b, "line %d: ", e.Line)
	}
	fmt.Fprintf(&b, "invalid %s", e.Field)
	if e.Value != "" {
		fmt.Fprintf(&b, " %q", e.Value)
	}
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, " (did you mean %s?)", e.Suggestion)
	}
	return b.String()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// SchemaError is returned by import when required columns are missing or a
// column name appears more than once.
type SchemaError struct {
	Required  []string
	Missing   []string
	Duplicate []string
}

func (e *SchemaError) Error() string {
	if len(e.Missing) == 0 && len(e.Duplicate) > 0 {
		return fmt.Sprintf("CSV file has duplicate columns: %s", strings.Join(e.Duplicate, ", "))
	}
	return fmt.Sprintf("CSV file missing required columns: %s (required: %s)",
		strings.Join(e.Missing, ", "), strings.Join(e.Required, ", "))
}

// EmptyLedgerError is returned when export or save is attempted with no records.
type EmptyLedgerError struct {
	Op string
}

func (e *EmptyLedgerError) Error() string {
	if e.Op == "" {
		return "no expense data available"
	}
	return "no expense data available to " + e.Op
}

// UnparseableDateWarning marks a record left out of a date-based view.
type UnparseableDateWarning struct {
	Index int
	Raw   string
}

func (w *UnparseableDateWarning) Error() string {
	return fmt.Sprintf("record %d: unparseable date %q excluded from time series", w.Index, w.Raw)
}

// ImageLoadError reports an uploaded image that could not be decoded.
type ImageLoadError struct {
	Kind string
	Err  error
}

func (e *ImageLoadError) Error() string {
	return fmt.Sprintf("error loading %s image: %v", e.Kind, e.Err)
}

func (e *ImageLoadError) Unwrap() error { return e.Err }

// IsUserError reports whether err is a recoverable, user-facing condition
// rather than an internal failure.
func IsUserError(err error) bool {
	var (
		ve *ValidationError
		se *SchemaError
		ee *EmptyLedgerError
		ie *ImageLoadError
	)
	return errors.As(err, &ve) || errors.As(err, &se) || errors.As(err, &ee) || errors.As(err, &ie)
}
