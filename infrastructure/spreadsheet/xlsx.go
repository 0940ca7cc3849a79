package spreadsheet

import (
	"context"
	"fmt"

	"ncs-birthday-mailer/domain/contact"

	"github.com/xuri/excelize/v2"
)

// XLSXSource reads the first worksheet of an Excel workbook.
type XLSXSource struct {
	fileSource
}

// NewXLSXSource creates a source for the workbook at path.
func NewXLSXSource(path string) *XLSXSource {
	return &XLSXSource{fileSource{path: path}}
}

// ReadTable reads the first sheet with raw cell values, so date cells come
// back as serial day numbers rather than locale-formatted text.
func (s *XLSXSource) ReadTable(ctx context.Context) (*contact.Table, error) {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", s.path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s: %w", s.path, contact.ErrEmptySheet)
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return buildTable(rows)
}

var _ contact.Source = (*XLSXSource)(nil)
