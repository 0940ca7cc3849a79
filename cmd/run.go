package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"ncs-birthday-mailer/application/birthday"
	"ncs-birthday-mailer/domain/delivery"
	"ncs-birthday-mailer/domain/failure"
	"ncs-birthday-mailer/domain/report"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	runDate   string
	runDryRun bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Send today's birthday emails",
	Long: `Loads the contact sheet, sends a greeting to every contact whose birthday
is today and reports the result to the admins by email and Telegram.

Addresses already greeted today are skipped, so the command is safe to run
more than once a day.

Examples:
  ncs-birthday-mailer run
  ncs-birthday-mailer run --date 2026-05-17 --dry-run`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runDate, "date", "", "Treat this day (YYYY-MM-DD) as today")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Show who would be greeted without sending or recording anything")
}

// Runner executes one birthday run
type Runner interface {
	Run(ctx context.Context) (*birthday.Result, error)
}

// RunReporter delivers the outcome of a run
type RunReporter interface {
	ReportSuccess(ctx context.Context, status string, analytics *report.Analytics)
	ReportFailure(ctx context.Context, err error, stage string)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := requireConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	day := time.Now()
	if runDate != "" {
		day, err = time.ParseInLocation(delivery.DateLayout, runDate, time.Local)
		if err != nil {
			return fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
		}
	}

	sender, senderErr := newEmailSender(ctx, cfg)

	var reporter RunReporter
	if !runDryRun {
		reporter = newReporter(cfg, sender)
	}

	if senderErr != nil {
		return RunWithDependencies(ctx, failedRunner{err: failure.AsFatal(senderErr), stage: "creating mail client"}, reporter, os.Stdout)
	}

	svc, closeStore, err := newBirthdayService(ctx, cfg, sender,
		birthday.WithClock(func() time.Time { return day }),
		birthday.WithDryRun(runDryRun),
		birthday.WithOutput(os.Stdout),
	)
	if err != nil {
		return RunWithDependencies(ctx, failedRunner{err: failure.AsFatal(err), stage: "startup"}, reporter, os.Stdout)
	}
	defer func() {
		if err := closeStore(); err != nil {
			logrus.WithError(err).Warn("Failed to close send log")
		}
	}()

	return RunWithDependencies(ctx, svc, reporter, os.Stdout)
}

// RunWithDependencies runs the job and reports its outcome. A nil reporter
// skips reporting. On failure a zeroed summary is printed and the error is
// returned so the process exits non-zero.
func RunWithDependencies(ctx context.Context, runner Runner, reporter RunReporter, output OutputWriter) error {
	result, err := runner.Run(ctx)
	if err != nil {
		logrus.WithError(err).Error("Birthday run failed")
		if reporter != nil {
			reporter.ReportFailure(ctx, err, birthday.StageOf(err))
		}
		fmt.Fprintf(output, "\n%s", report.Summary(&report.Analytics{}))
		return fmt.Errorf("birthday run failed: %w", err)
	}

	fmt.Fprintf(output, "\n%s\n\n%s", result.Status, report.Summary(result.Analytics))

	if reporter != nil {
		reporter.ReportSuccess(ctx, result.Status, result.Analytics)
	}
	return nil
}

// failedRunner reports an error that happened before the run could start
type failedRunner struct {
	err   error
	stage string
}

func (f failedRunner) Run(ctx context.Context) (*birthday.Result, error) {
	return nil, &birthday.RunError{Stage: f.stage, Err: f.err}
}
