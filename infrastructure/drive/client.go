package drive

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"ncs-birthday-mailer/infrastructure/filesystem"
	"ncs-birthday-mailer/infrastructure/googleauth"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Native Google spreadsheets cannot be downloaded directly and are exported
// as xlsx instead.
const (
	googleSheetMimeType = "application/vnd.google-apps.spreadsheet"
	xlsxMimeType        = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// DriveService defines the interface for Google Drive API operations
// This allows mocking the Google Drive API in tests
type DriveService interface {
	GetFile(ctx context.Context, fileID string, fields string) (*drive.File, error)
	Download(ctx context.Context, fileID string) (io.ReadCloser, error)
	Export(ctx context.Context, fileID string, mimeType string) (io.ReadCloser, error)
}

// GoogleDriveService is the production implementation using the Google Drive API
type GoogleDriveService struct {
	service *drive.Service
}

// GetFile fetches file metadata
func (s *GoogleDriveService) GetFile(ctx context.Context, fileID string, fields string) (*drive.File, error) {
	return s.service.Files.Get(fileID).
		Fields(googleapi.Field(fields)).
		SupportsAllDrives(true).
		Context(ctx).
		Do()
}

// Download streams the file content
func (s *GoogleDriveService) Download(ctx context.Context, fileID string) (io.ReadCloser, error) {
	resp, err := s.service.Files.Get(fileID).SupportsAllDrives(true).Context(ctx).Download()
	if err != nil {
		return nil, err
	}
	return bodyOrError(resp)
}

// Export streams a native Google document converted to mimeType
func (s *GoogleDriveService) Export(ctx context.Context, fileID string, mimeType string) (io.ReadCloser, error) {
	resp, err := s.service.Files.Export(fileID, mimeType).Context(ctx).Download()
	if err != nil {
		return nil, err
	}
	return bodyOrError(resp)
}

func bodyOrError(resp *http.Response) (io.ReadCloser, error) {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// Client fetches data files from Google Drive
type Client struct {
	driveService DriveService
}

// ClientOption is a functional option for configuring Client
type ClientOption func(*Client)

// WithDriveService sets a custom drive service (for testing)
func WithDriveService(svc DriveService) ClientOption {
	return func(c *Client) {
		c.driveService = svc
	}
}

// NewClient creates a new Google Drive client
// If no options are provided, it initializes a real Google Drive service
func NewClient(ctx context.Context, credentialsPath string, opts ...ClientOption) (*Client, error) {
	c := &Client{}

	for _, opt := range opts {
		opt(c)
	}

	// If no custom drive service was provided, create a real one
	if c.driveService == nil {
		svc, err := newGoogleDriveService(ctx, credentialsPath)
		if err != nil {
			return nil, err
		}
		c.driveService = svc
	}

	return c, nil
}

// newGoogleDriveService creates a production Google Drive service
func newGoogleDriveService(ctx context.Context, credentialsPath string) (*GoogleDriveService, error) {
	client, err := googleauth.ServiceAccountClient(ctx, credentialsPath, drive.DriveReadonlyScope)
	if err != nil {
		return nil, err
	}

	srv, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create drive service: %w", err)
	}

	return &GoogleDriveService{service: srv}, nil
}

// DownloadTo saves the file with the given ID at dest and returns its Drive
// name. Google Sheets files are exported as xlsx.
func (c *Client) DownloadTo(ctx context.Context, fileID, dest string) (string, error) {
	meta, err := c.driveService.GetFile(ctx, fileID, "id, name, mimeType")
	if err != nil {
		return "", fmt.Errorf("failed to get file %s: %w", fileID, err)
	}

	var body io.ReadCloser
	if meta.MimeType == googleSheetMimeType {
		body, err = c.driveService.Export(ctx, fileID, xlsxMimeType)
	} else {
		body, err = c.driveService.Download(ctx, fileID)
	}
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", meta.Name, err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", meta.Name, err)
	}

	if err := filesystem.WriteFileAtomic(dest, data, 0644); err != nil {
		return "", err
	}
	return meta.Name, nil
}
