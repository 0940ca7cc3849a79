package contact

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Column names the pipeline relies on, in their normalized form.
const (
	ColumnEmail = "EMAIL"
	ColumnDOB   = "DOB"
	ColumnName  = "NAME"
)

// Table is a sheet of string cells with a normalized header row.
type Table struct {
	Headers []string
	Rows    [][]string
	index   map[string]int
}

// NewTable builds a Table from the raw header row and data rows. Headers are
// trimmed and upper-cased so lookups are case-insensitive.
func NewTable(headers []string, rows [][]string) *Table {
	t := &Table{
		Headers: make([]string, len(headers)),
		Rows:    rows,
		index:   make(map[string]int, len(headers)),
	}
	for i, h := range headers {
		h = strings.ToUpper(strings.TrimSpace(h))
		t.Headers[i] = h
		if _, dup := t.index[h]; !dup {
			t.index[h] = i
		}
	}
	return t
}

// Require checks that every named column is present.
func (t *Table) Require(columns ...string) error {
	var missing []string
	for _, c := range columns {
		if !t.Has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return nil
}

// Has reports whether the column exists.
func (t *Table) Has(column string) bool {
	_, ok := t.index[column]
	return ok
}

// Cell returns the value of column in row, or "" when the row is short or
// the column is absent.
func (t *Table) Cell(row []string, column string) string {
	i, ok := t.index[column]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// Source is a readable contact sheet.
type Source interface {
	// Name identifies the source in logs and cache entries.
	Name() string
	// Fingerprint returns the lowercase hex SHA-256 of the source content.
	Fingerprint(ctx context.Context) (string, error)
	// ReadTable reads the first sheet.
	ReadTable(ctx context.Context) (*Table, error)
}

// Correction records an address that was repaired before acceptance.
type Correction struct {
	Original  string `yaml:"original"`
	Corrected string `yaml:"corrected"`
}

// Cleaning is the outcome of validating a whole sheet.
type Cleaning struct {
	TotalRows   int          `yaml:"total_rows"`
	ValidEmails int          `yaml:"valid_emails"`
	Corrections []Correction `yaml:"corrections"`
	Rejects     []string     `yaml:"rejects"`
}

// Dataset is the cleaned sheet memoized under the source fingerprint.
type Dataset struct {
	Fingerprint string    `yaml:"fingerprint"`
	Source      string    `yaml:"source"`
	CreatedAt   time.Time `yaml:"created_at"`
	People      []Person  `yaml:"people"`
	Cleaning    Cleaning  `yaml:"cleaning"`
}
