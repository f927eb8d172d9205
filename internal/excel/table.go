// Package excel wraps the workbook access the reconciliation pipeline
// needs: reading a sheet into a header-indexed table and resolving
// configured column keys, which may be literal header names or
// spreadsheet-style column letters.
package excel

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrSheetNotFound is returned when the named sheet is missing from a
	// workbook.
	ErrSheetNotFound = errors.New("sheet not found in workbook")

	// ErrWorkbookOpen is returned when a workbook cannot be opened, most
	// often because another program holds it locked.
	ErrWorkbookOpen = errors.New("workbook could not be opened")
)

// SchemaError reports required columns that could not be resolved against a
// sheet's header after mapping.
type SchemaError struct {
	Sheet   string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("sheet %q is missing required columns: %s", e.Sheet, strings.Join(e.Missing, ", "))
}

// Table is one sheet read into memory. Header holds the row at the
// configured header position; Rows the data rows below it. excelize yields
// ragged rows, so cell access goes through Cell.
type Table struct {
	File   string
	Sheet  string
	Header []string
	Rows   [][]string
}

// ReadTable loads a sheet. headerRow is the zero-based physical row holding
// the column headers; everything above it is discarded (the AFIP export
// carries a one-row document banner before its real header).
func ReadTable(path, sheet string, headerRow int) (*Table, error) {
	const op = "ReadTable"

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %q (close the file if it is open in Excel): %v", op, ErrWorkbookOpen, path, err)
	}
	defer f.Close()

	idx, err := f.GetSheetIndex(sheet)
	if err != nil || idx < 0 {
		return nil, fmt.Errorf("%s: %w: sheet %q in %q", op, ErrSheetNotFound, sheet, path)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read sheet %q in %q: %w", op, sheet, path, err)
	}
	if len(rows) <= headerRow {
		return nil, fmt.Errorf("%s: sheet %q in %q has no header row at position %d", op, sheet, path, headerRow+1)
	}

	header := make([]string, len(rows[headerRow]))
	for i, h := range rows[headerRow] {
		header[i] = strings.TrimSpace(h)
	}

	return &Table{
		File:   path,
		Sheet:  sheet,
		Header: header,
		Rows:   rows[headerRow+1:],
	}, nil
}

// Resolve maps a configured column key to a zero-based index into Header.
// Keys of at most three alphabetic runes are spreadsheet column letters
// (base-26, A=1); anything else must match a header name exactly.
func (t *Table) Resolve(key string) (int, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return 0, false
	}
	if isColumnLetter(key) {
		n, err := excelize.ColumnNameToNumber(key)
		if err != nil || n > len(t.Header) {
			return 0, false
		}
		return n - 1, true
	}
	for i, h := range t.Header {
		if h == key {
			return i, true
		}
	}
	return 0, false
}

// Cell reads a cell from a ragged row, returning "" past its end.
func Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func isColumnLetter(key string) bool {
	if len(key) == 0 || len(key) > 3 {
		return false
	}
	for _, r := range key {
		if !(r >= 'a' && r <= 'z') && !(r >= 'A' && r <= 'Z') {
			return false
		}
	}
	return true
}
