// Package ledger loads and queries the semicolon-delimited reference table
// of transactions. Rows are kept in file order and the first row is data:
// there is no header skipping, so a header line participates in matching
// like any other row.
package ledger

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// Delimiter separates fields both in the ledger file and in every
// serialization of it (prompt rendering, matched-row output).
const Delimiter = ';'

// Row is an ordered sequence of string fields, typically
// date;date;description;amount;total.
type Row []string

// Date returns the first field, normalized.
func (r Row) Date() string {
	if len(r) == 0 {
		return ""
	}
	return NormalizeField(r[0])
}

// Description returns the third field, normalized and lower-cased.
func (r Row) Description() string {
	if len(r) < 3 {
		return ""
	}
	return strings.ToLower(NormalizeField(r[2]))
}

// Join serializes the row with the ledger delimiter.
func (r Row) Join() string {
	return strings.Join(r, string(Delimiter))
}

// Table is the in-memory parsed view of the ledger, re-parsed fresh on every
// reconciliation pass.
type Table struct {
	Rows []Row
}

// Load parses the ledger file. Rows keep their file order and ragged rows
// (fewer or more fields than usual) are tolerated.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = Delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse ledger: %w", err)
	}

	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		rows = append(rows, Row(rec))
	}
	return &Table{Rows: rows}, nil
}

// Serialize renders the whole table for the judgment prompt, one row per
// line, fields joined with the ledger delimiter.
func (t *Table) Serialize() string {
	lines := make([]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		lines = append(lines, r.Join())
	}
	return strings.Join(lines, "\n")
}

// FindRow scans rows in file order and returns the first row whose date field
// equals the verdict date exactly and whose description field contains the
// verdict description as a substring. First match wins; there is no scoring
// among multiple candidates.
func (t *Table) FindRow(date, description string) (Row, bool) {
	wantDate := NormalizeField(date)
	wantDesc := strings.ToLower(NormalizeField(description))
	for _, r := range t.Rows {
		if len(r) < 3 {
			continue
		}
		if r.Date() == wantDate && strings.Contains(r.Description(), wantDesc) {
			return r, true
		}
	}
	return nil, false
}

// NormalizeField trims whitespace and surrounding double quotes.
func NormalizeField(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"`)
}
