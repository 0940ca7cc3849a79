//go:build manual

package drive

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

// TestRealDriveDownload downloads a real file with a service account
// Run with: DRIVE_FILE_ID=... go test -tags=manual -v ./infrastructure/drive/... -run TestRealDriveDownload
func TestRealDriveDownload(t *testing.T) {
	credentialsPath := "../../credentials.json"
	fileID := os.Getenv("DRIVE_FILE_ID")

	if _, err := os.Stat(credentialsPath); os.IsNotExist(err) {
		t.Skip("credentials.json not found - skipping real Drive test")
	}
	if fileID == "" {
		t.Skip("DRIVE_FILE_ID not set - skipping real Drive test")
	}

	ctx := context.Background()

	client, err := NewClient(ctx, credentialsPath)
	if err != nil {
		t.Fatalf("Failed to create Drive client: %v", err)
	}

	dest := filepath.Join(t.TempDir(), "data.xlsx")
	name, err := client.DownloadTo(ctx, fileID, dest)
	if err != nil {
		t.Fatalf("DownloadTo() error = %v", err)
	}

	info, err := os.Stat(dest)
	if err != nil {
		t.Fatalf("downloaded file missing: %v", err)
	}
	t.Logf("Downloaded %q (%d bytes)", name, info.Size())
}
