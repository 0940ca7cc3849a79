package spreadsheet

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"

	"ncs-birthday-mailer/domain/contact"
)

// CSVSource reads a comma-separated export of the contact sheet.
type CSVSource struct {
	fileSource
}

// NewCSVSource creates a source for the csv file at path.
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{fileSource{path: path}}
}

// ReadTable reads every record of the file.
func (s *CSVSource) ReadTable(ctx context.Context) (*contact.Table, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", s.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", s.path, err)
	}
	return buildTable(rows)
}

var _ contact.Source = (*CSVSource)(nil)
