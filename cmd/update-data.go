package cmd

import (
	"context"
	"fmt"
	"os"

	"ncs-birthday-mailer/infrastructure/drive"
	"ncs-birthday-mailer/infrastructure/filesystem"
	"ncs-birthday-mailer/infrastructure/store"

	"github.com/spf13/cobra"
)

var (
	updateSource      string
	updateDriveFileID string
	updateKeepSentLog bool
)

var updateDataCmd = &cobra.Command{
	Use:   "update-data",
	Short: "Replace the contact sheet and clear cached state",
	Long: `Copies a new contact sheet over the configured data file, deletes the
cleaned-contacts cache and resets the send log.

The new sheet comes from a local path (--source, DATA_SOURCE or
data.update_source) or from Google Drive (--drive-file). Native Google
Sheets files are exported as xlsx.

Examples:
  ncs-birthday-mailer update-data --source ~/Downloads/December.xlsx
  ncs-birthday-mailer update-data --drive-file 1AbCdEf --keep-sent-log`,
	RunE: runUpdateData,
}

func init() {
	rootCmd.AddCommand(updateDataCmd)
	updateDataCmd.Flags().StringVar(&updateSource, "source", "", "Local file to copy (defaults to DATA_SOURCE)")
	updateDataCmd.Flags().StringVar(&updateDriveFileID, "drive-file", "", "Google Drive file ID to download")
	updateDataCmd.Flags().BoolVar(&updateKeepSentLog, "keep-sent-log", false, "Do not reset the send log")
}

// DataFetcher places a new contact sheet at dest and returns a description
// of where it came from
type DataFetcher interface {
	Fetch(ctx context.Context, dest string) (string, error)
}

// Resetter clears persisted state
type Resetter interface {
	Reset(ctx context.Context) error
}

// LocalFetcher copies a file from disk
type LocalFetcher struct {
	Path string
}

func (f LocalFetcher) Fetch(ctx context.Context, dest string) (string, error) {
	if err := filesystem.CopyFile(f.Path, dest); err != nil {
		return "", err
	}
	return f.Path, nil
}

// DriveFetcher downloads a file from Google Drive
type DriveFetcher struct {
	Client *drive.Client
	FileID string
}

func (f DriveFetcher) Fetch(ctx context.Context, dest string) (string, error) {
	name, err := f.Client.DownloadTo(ctx, f.FileID, dest)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Google Drive %q (%s)", name, f.FileID), nil
}

func runUpdateData(cmd *cobra.Command, args []string) error {
	cfg, err := requireConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	var fetcher DataFetcher
	switch {
	case updateDriveFileID != "":
		client, err := drive.NewClient(ctx, cfg.Google.ServiceAccountFile)
		if err != nil {
			return fmt.Errorf("failed to create Drive client: %w", err)
		}
		fetcher = DriveFetcher{Client: client, FileID: updateDriveFileID}
	case updateSource != "":
		fetcher = LocalFetcher{Path: updateSource}
	case cfg.Data.UpdateSource != "":
		fetcher = LocalFetcher{Path: cfg.Data.UpdateSource}
	default:
		return fmt.Errorf("no source given; use --source, --drive-file or set DATA_SOURCE")
	}

	var sendLog Resetter
	if !updateKeepSentLog {
		backend, err := openSendLog(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to open send log: %w", err)
		}
		defer backend.Close()
		sendLog = backend
	}

	return RunUpdateDataWithDependencies(ctx, fetcher, cfg.Data.File, store.NewDatasetFile(cfg.State.CacheFile), sendLog, os.Stdout)
}

// RunUpdateDataWithDependencies replaces the data file at dest and clears
// the cache. A nil sendLog keeps the send log.
func RunUpdateDataWithDependencies(
	ctx context.Context,
	fetcher DataFetcher,
	dest string,
	cache Resetter,
	sendLog Resetter,
	output OutputWriter,
) error {
	from, err := fetcher.Fetch(ctx, dest)
	if err != nil {
		return fmt.Errorf("failed to update data file: %w", err)
	}
	fmt.Fprintf(output, "Updated %s from %s\n", dest, from)

	if err := cache.Reset(ctx); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	fmt.Fprintln(output, "Cleared contact cache")

	if sendLog == nil {
		fmt.Fprintln(output, "Kept send log")
		return nil
	}
	if err := sendLog.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset send log: %w", err)
	}
	fmt.Fprintln(output, "Reset send log")
	return nil
}
