package report

import (
	"fmt"
	"strings"
)

// Subjects used for the admin report.
const (
	SubjectDaily  = "Birthday Cron Job: Daily Report"
	SubjectFailed = "Birthday Cron Job: FAILED"
)

// Summary renders the counter block printed at the end of every run.
func Summary(a *Analytics) string {
	var b strings.Builder
	b.WriteString("--- Analytics ---\n")
	for _, l := range a.Lines() {
		fmt.Fprintf(&b, "%s: %d\n", l.Label, l.Value)
	}
	return b.String()
}

// Render builds the daily report sent to admins.
func Render(status string, a *Analytics) string {
	var b strings.Builder
	b.WriteString(status)
	b.WriteString("\n\n")
	b.WriteString(Summary(a))

	if len(a.Corrections) > 0 {
		b.WriteString("\n--- Corrections ---\n")
		for _, c := range a.Corrections {
			b.WriteString(CorrectionMessage(c))
			b.WriteString("\n")
		}
	}

	if len(a.Rejects) > 0 {
		b.WriteString("\n--- Invalid Emails ---\n")
		for _, r := range a.Rejects {
			fmt.Fprintf(&b, "- %s\n", r)
		}
	}

	return b.String()
}

// RenderFailure builds the failure report with the full error chain and the
// context the run had reached.
func RenderFailure(err error, stage string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\nError: %v\n", SubjectFailed, err)
	if stage != "" {
		fmt.Fprintf(&b, "\nStage: %s\n", stage)
	}
	return b.String()
}

// ChatDaily wraps a daily report for the chat channel.
func ChatDaily(body string) string {
	return fmt.Sprintf("*%s*\n\n%s", SubjectDaily, body)
}

// ChatFailure is the abbreviated failure message for the chat channel.
func ChatFailure(err error) string {
	return fmt.Sprintf("*%s*\n\n`%v`", SubjectFailed, err)
}
