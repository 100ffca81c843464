// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.
// Expense and budget input may arrive as JSON or as form-encoded bodies.

package http

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tracker/internal/core"
)

var errMissingField = errors.New("field is required")

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}

	p.body, p.err = io.ReadAll(r.Body)
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if p.IsJSONContent() || p.body[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.jsonData = nil
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// IsJSONContent reports whether the Content-Type header announces JSON.
func (p *RequestBodyParser) IsJSONContent() bool {
	mt, _, err := mime.ParseMediaType(p.contentType)
	return err == nil && mt == "application/json"
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// Has reports whether key was present in the body.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		_, ok := p.jsonData[key]
		return ok
	}
	return p.formData != nil && p.formData.Has(key)
}

// stringValue converts a decoded JSON value to string.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// ParseExpense reads date, category, amount and description from the body.
// A missing date defaults to today. Amount syntax errors are reported as
// ValidationError; the remaining rules are left to the ledger service.
func ParseExpense(p *RequestBodyParser, now time.Time) (core.Expense, error) {
	if err := p.Parse(); err != nil {
		return core.Expense{}, &core.ValidationError{Field: "body", Err: err}
	}

	date := core.DateOf(now)
	if v := p.Get("date"); v != "" {
		date = core.ParseDate(v)
	}

	if !p.Has("amount") {
		return core.Expense{}, &core.ValidationError{Field: "amount", Err: errMissingField}
	}
	amountStr := p.Get("amount")
	amount, err := core.ParseMoney(amountStr)
	if err != nil {
		return core.Expense{}, &core.ValidationError{Field: "amount", Value: amountStr, Err: err}
	}

	return core.Expense{
		Date:        date,
		Category:    p.Get("category"),
		Amount:      amount,
		Description: p.Get("description"),
	}, nil
}

// ParseBudget reads the "budget" field from the body.
func ParseBudget(p *RequestBodyParser) (core.Money, error) {
	if err := p.Parse(); err != nil {
		return core.Money{}, &core.ValidationError{Field: "body", Err: err}
	}
	if !p.Has("budget") {
		return core.Money{}, &core.ValidationError{Field: "budget", Err: errMissingField}
	}
	raw := p.Get("budget")
	m, err := core.ParseMoney(raw)
	if err != nil {
		return core.Money{}, &core.ValidationError{Field: "budget", Value: raw, Err: err}
	}
	return m, nil
}

// ParseReferenceDate reads the optional "date" query parameter used to pick
// the utilization month. The zero time means "today".
func ParseReferenceDate(query url.Values) (time.Time, error) {
	v := strings.TrimSpace(query.Get("date"))
	if v == "" {
		return time.Time{}, nil
	}
	t, ok := core.ParseDate(v).Time()
	if !ok {
		return time.Time{}, &core.ValidationError{Field: "date", Value: v, Err: core.ErrInvalidDate}
	}
	return t, nil
}
