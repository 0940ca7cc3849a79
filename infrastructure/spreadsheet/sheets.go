package spreadsheet

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"ncs-birthday-mailer/domain/contact"
	"ncs-birthday-mailer/infrastructure/googleauth"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsService defines the interface for Google Sheets API operations
// This allows mocking the Sheets API in tests
type SheetsService interface {
	GetValues(ctx context.Context, spreadsheetID, readRange string) ([][]interface{}, error)
}

// GoogleSheetsService is the production implementation using the Sheets API
type GoogleSheetsService struct {
	service *sheets.Service
}

// GetValues reads a range as formatted values
func (s *GoogleSheetsService) GetValues(ctx context.Context, spreadsheetID, readRange string) ([][]interface{}, error) {
	resp, err := s.service.Spreadsheets.Values.Get(spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

// NewGoogleSheetsService authorizes with a service account key
func NewGoogleSheetsService(ctx context.Context, credentialsPath string) (*GoogleSheetsService, error) {
	client, err := googleauth.ServiceAccountClient(ctx, credentialsPath, sheets.SpreadsheetsReadonlyScope)
	if err != nil {
		return nil, err
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}
	return &GoogleSheetsService{service: srv}, nil
}

// SheetsSource reads the contact sheet straight from Google Sheets. The
// values are fetched once per source and reused for fingerprinting and
// reading.
type SheetsSource struct {
	service       SheetsService
	spreadsheetID string
	readRange     string
	rows          [][]string
}

// NewSheetsSource creates a source for a spreadsheet range such as "Sheet1".
func NewSheetsSource(service SheetsService, spreadsheetID, readRange string) *SheetsSource {
	return &SheetsSource{service: service, spreadsheetID: spreadsheetID, readRange: readRange}
}

func (s *SheetsSource) Name() string {
	return fmt.Sprintf("sheets:%s/%s", s.spreadsheetID, s.readRange)
}

// Fingerprint hashes the JSON encoding of the fetched cell values.
func (s *SheetsSource) Fingerprint(ctx context.Context) (string, error) {
	rows, err := s.fetch(ctx)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("failed to encode sheet values: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func (s *SheetsSource) ReadTable(ctx context.Context) (*contact.Table, error) {
	rows, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}
	copied := make([][]string, len(rows))
	for i, r := range rows {
		copied[i] = append([]string(nil), r...)
	}
	return buildTable(copied)
}

func (s *SheetsSource) fetch(ctx context.Context) ([][]string, error) {
	if s.rows != nil {
		return s.rows, nil
	}

	values, err := s.service.GetValues(ctx, s.spreadsheetID, s.readRange)
	if err != nil {
		return nil, fmt.Errorf("failed to read spreadsheet %s: %w", s.spreadsheetID, err)
	}

	rows := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, v := range row {
			if v != nil {
				cells[j] = fmt.Sprint(v)
			}
		}
		rows[i] = cells
	}
	s.rows = rows
	return rows, nil
}

var _ contact.Source = (*SheetsSource)(nil)
