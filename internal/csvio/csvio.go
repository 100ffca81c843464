// Package csvio encodes and decodes the expense interchange format: UTF-8
// comma-separated values with a header row naming at least the Date,
// Category, Amount and Description columns.
package csvio

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"tracker/internal/core"
)

var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// Table is a decoded interchange file.
type Table struct {
	Records []core.Expense
	// ExtraColumns lists non-schema columns in file order.
	ExtraColumns []string
}

// Decode parses r. It fails with *core.SchemaError when a required column is
// absent or a column name repeats, and with *core.ValidationError when a row
// does not match the header width or carries an amount that is not a
// dot-separated decimal. Dates are not checked here.
func Decode(r io.Reader) (*Table, error) {
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &core.SchemaError{Required: core.RequiredColumns(), Missing: core.RequiredColumns()}
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	var duplicate []string
	for i, name := range header {
		name = strings.TrimSpace(name)
		header[i] = name
		if _, dup := index[name]; dup {
			duplicate = append(duplicate, name)
			continue
		}
		index[name] = i
	}

	var missing []string
	for _, col := range core.RequiredColumns() {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 || len(duplicate) > 0 {
		return nil, &core.SchemaError{Required: core.RequiredColumns(), Missing: missing, Duplicate: duplicate}
	}

	table := &Table{}
	var extraIdx []int
	for i, name := range header {
		if isRequired(name) {
			continue
		}
		table.ExtraColumns = append(table.ExtraColumns, name)
		extraIdx = append(extraIdx, i)
	}

	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if isBlank(row) {
			continue
		}
		if len(row) != len(header) {
			return nil, &core.ValidationError{
				Field: "row",
				Line:  line,
				Err:   fmt.Errorf("expected %d fields, got %d", len(header), len(row)),
			}
		}

		amountText := row[index[core.ColumnAmount]]
		amount, err := core.ParseStrictMoney(amountText)
		if err != nil {
			return nil, &core.ValidationError{Field: "amount", Value: amountText, Line: line, Err: err}
		}

		e := core.Expense{
			Date:        core.ParseDate(row[index[core.ColumnDate]]),
			Category:    row[index[core.ColumnCategory]],
			Amount:      amount,
			Description: row[index[core.ColumnDescription]],
		}
		if len(extraIdx) > 0 {
			e.Extra = make(map[string]string, len(extraIdx))
			for j, col := range table.ExtraColumns {
				e.Extra[col] = row[extraIdx[j]]
			}
		}
		table.Records = append(table.Records, e)
	}

	return table, nil
}

// Encode writes the header and one row per record. Extra columns follow the
// four schema columns in the given order.
func Encode(w io.Writer, records []core.Expense, extraColumns []string) error {
	cw := csv.NewWriter(w)
	header := append(core.RequiredColumns(), extraColumns...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	row := make([]string, len(header))
	for _, e := range records {
		row[0] = e.Date.String()
		row[1] = e.Category
		row[2] = e.Amount.String()
		row[3] = e.Description
		for i, col := range extraColumns {
			row[4+i] = e.Extra[col]
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Marshal is Encode into a byte slice.
func Marshal(records []core.Expense, extraColumns []string) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, records, extraColumns); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isRequired(name string) bool {
	for _, col := range core.RequiredColumns() {
		if name == col {
			return true
		}
	}
	return false
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
