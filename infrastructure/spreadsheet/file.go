// Package spreadsheet reads contact sheets from xlsx, csv and Google Sheets.
package spreadsheet

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"ncs-birthday-mailer/domain/contact"
	"ncs-birthday-mailer/infrastructure/filesystem"
)

// Formats understood by OpenFile.
const (
	FormatAuto   = ""
	FormatXLSX   = "xlsx"
	FormatCSV    = "csv"
	FormatSheets = "sheets"
)

// ErrUnknownFormat is returned for a file type no reader handles.
var ErrUnknownFormat = errors.New("unknown data format")

// fileSource fingerprints a local file.
type fileSource struct {
	path string
}

func (s fileSource) Name() string {
	return s.path
}

func (s fileSource) Fingerprint(ctx context.Context) (string, error) {
	return filesystem.Fingerprint(s.path)
}

// DetectFormat maps a file extension to a format.
func DetectFormat(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
	}
}

// OpenFile returns the reader for a local file. An empty format is detected
// from the extension.
func OpenFile(path, format string) (contact.Source, error) {
	if format == FormatAuto {
		detected, err := DetectFormat(path)
		if err != nil {
			return nil, err
		}
		format = detected
	}

	switch format {
	case FormatXLSX:
		return NewXLSXSource(path), nil
	case FormatCSV:
		return NewCSVSource(path), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// buildTable drops fully blank rows and wraps the rest in a contact.Table.
func buildTable(rows [][]string) (*contact.Table, error) {
	if len(rows) == 0 {
		return nil, contact.ErrEmptySheet
	}

	headers := rows[0]
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], "\ufeff")
	}

	data := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		data = append(data, row)
	}
	return contact.NewTable(headers, data), nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
