// Package tabular provides the normalization layer for broker file
// exports: container and delimiter detection, encoding fallback,
// header canonicalization, subunit currency rewriting and date-range
// filtering over loosely structured tables.
//
// Exports arrive as delimited text or spreadsheets with inconsistent
// delimiters, encodings and column spellings. Everything is read into
// a Table of string cells; typed interpretation happens downstream.
// Read failures are non-fatal: an unreadable file yields an empty
// Table, which downstream treats as "no data".
package tabular

import (
	"strings"
	"time"

	"broker-reconciliation-service/internal/models"
)

// Table is an in-memory tabular file: a header row and string cells.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Empty reports whether the table has no data rows.
func (t Table) Empty() bool {
	return len(t.Rows) == 0
}

// CanonicalHeader normalizes a header cell for column resolution:
// strips the UTF-8 BOM and stray quotes, trims whitespace and
// uppercases.
func CanonicalHeader(h string) string {
	h = strings.TrimPrefix(h, "\uFEFF")
	h = strings.ReplaceAll(h, `"`, "")
	return strings.ToUpper(strings.TrimSpace(h))
}

// ColumnIndex resolves a column by canonicalized name, returning -1
// when absent.
func (t Table) ColumnIndex(name string) int {
	want := CanonicalHeader(name)
	for i, h := range t.Headers {
		if CanonicalHeader(h) == want {
			return i
		}
	}
	return -1
}

// MissingColumns returns the required column names that cannot be
// resolved against the table's headers.
func (t Table) MissingColumns(required ...string) []string {
	var missing []string
	for _, name := range required {
		if t.ColumnIndex(name) == -1 {
			missing = append(missing, name)
		}
	}
	return missing
}

// Cell returns the trimmed cell at the given column index, or "" when
// the row is shorter than the header.
func Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// Field returns the trimmed cell for a named column, or "" when the
// column is absent.
func (t Table) Field(row []string, name string) string {
	return Cell(row, t.ColumnIndex(name))
}

// WithColumns returns a copy of the table with extra columns appended.
// The extra function produces the appended cells for each row.
func (t Table) WithColumns(names []string, extra func(row []string) []string) Table {
	out := Table{
		Headers: append(append([]string{}, t.Headers...), names...),
		Rows:    make([][]string, 0, len(t.Rows)),
	}
	for _, row := range t.Rows {
		out.Rows = append(out.Rows, append(append([]string{}, row...), extra(row)...))
	}
	return out
}

// DateTimeColumn is the enriched deal column used for report date
// filtering.
const DateTimeColumn = "Date & Time (UTC)"

// FilterByDateRange keeps rows whose timestamp in the named column
// falls within [start, end]. Rows with unparseable timestamps are
// dropped. A missing column or zero bounds leave the table unchanged.
func FilterByDateRange(t Table, start, end time.Time, column string) Table {
	if t.Empty() || start.IsZero() || end.IsZero() {
		return t
	}

	idx := t.ColumnIndex(column)
	if idx == -1 {
		return t
	}

	out := Table{Headers: t.Headers}
	for _, row := range t.Rows {
		ts := models.ParseFlexibleTime(Cell(row, idx))
		if ts.IsZero() {
			continue
		}
		if !ts.Before(start) && !ts.After(end) {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}
