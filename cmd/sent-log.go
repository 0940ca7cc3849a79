package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"ncs-birthday-mailer/domain/delivery"

	"github.com/spf13/cobra"
)

var (
	sentLogDate string
	sentLogAll  bool
	sentLogYes  bool
)

var sentLogCmd = &cobra.Command{
	Use:   "sent-log",
	Short: "Inspect or reset the record of sent greetings",
}

var sentLogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the addresses greeted on a day",
	Long: `Lists the addresses recorded as greeted on a day (default today), or on
every recorded day with --all.

Examples:
  ncs-birthday-mailer sent-log list
  ncs-birthday-mailer sent-log list --date 2026-05-17
  ncs-birthday-mailer sent-log list --all`,
	Args: cobra.NoArgs,
	RunE: runSentLogList,
}

var sentLogResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget every recorded greeting",
	Args:  cobra.NoArgs,
	RunE:  runSentLogReset,
}

func init() {
	rootCmd.AddCommand(sentLogCmd)
	sentLogCmd.AddCommand(sentLogListCmd)
	sentLogCmd.AddCommand(sentLogResetCmd)

	sentLogListCmd.Flags().StringVar(&sentLogDate, "date", "", "Day to list (YYYY-MM-DD, default today)")
	sentLogListCmd.Flags().BoolVar(&sentLogAll, "all", false, "List every recorded day")
	sentLogResetCmd.Flags().BoolVar(&sentLogYes, "yes", false, "Confirm the reset")
}

func runSentLogList(cmd *cobra.Command, args []string) error {
	cfg, err := requireConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	date := sentLogDate
	if date == "" {
		date = delivery.DateKey(time.Now())
	} else if _, err := time.Parse(delivery.DateLayout, date); err != nil {
		return fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
	}

	backend, err := openSendLog(ctx, cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	return RunSentLogListWithDependencies(ctx, backend, date, sentLogAll, os.Stdout)
}

// RunSentLogListWithDependencies prints the recorded sends for date, or for
// every date when all is set
func RunSentLogListWithDependencies(ctx context.Context, logStore delivery.SendLogStore, date string, all bool, output OutputWriter) error {
	log, err := logStore.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load send log: %w", err)
	}

	dates := []string{date}
	if all {
		dates = log.Dates()
	}

	w := tabwriter.NewWriter(output, 0, 0, 2, ' ', 0)
	rows := 0
	for _, d := range dates {
		for _, addr := range log.Addresses(d) {
			if rows == 0 {
				fmt.Fprintln(w, "DATE\tEMAIL")
			}
			fmt.Fprintf(w, "%s\t%s\n", d, addr)
			rows++
		}
	}
	if rows == 0 {
		if all {
			fmt.Fprintln(output, "No greetings recorded.")
		} else {
			fmt.Fprintf(output, "No greetings recorded for %s.\n", date)
		}
		return nil
	}
	return w.Flush()
}

func runSentLogReset(cmd *cobra.Command, args []string) error {
	if !sentLogYes {
		return fmt.Errorf("refusing to reset the send log without --yes")
	}
	cfg, err := requireConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	backend, err := openSendLog(ctx, cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	if err := backend.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset send log: %w", err)
	}
	fmt.Fprintln(os.Stdout, "Send log reset.")
	return nil
}
