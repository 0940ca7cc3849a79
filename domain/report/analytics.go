package report

import (
	"fmt"

	"ncs-birthday-mailer/domain/contact"
)

// Analytics holds the counters of a single run.
type Analytics struct {
	TotalRows      int
	ValidEmails    int
	BirthdaysFound int
	EmailsSent     int
	SendFailures   int
	Corrections    []contact.Correction
	Rejects        []string
	SkippedSends   int
}

var _ contact.Recorder = (*Analytics)(nil)

// RecordCorrection appends an address repair.
func (a *Analytics) RecordCorrection(original, corrected string) {
	a.Corrections = append(a.Corrections, contact.Correction{Original: original, Corrected: corrected})
}

// RecordReject appends a cell from which no address was accepted.
func (a *Analytics) RecordReject(raw string) {
	a.Rejects = append(a.Rejects, raw)
}

// Cleaning snapshots the validation counters for caching.
func (a *Analytics) Cleaning() contact.Cleaning {
	return contact.Cleaning{
		TotalRows:   a.TotalRows,
		ValidEmails: a.ValidEmails,
		Corrections: append([]contact.Correction(nil), a.Corrections...),
		Rejects:     append([]string(nil), a.Rejects...),
	}
}

// FromCleaning starts a run's analytics from a cached validation result.
// Send counters start at zero.
func FromCleaning(c contact.Cleaning) *Analytics {
	return &Analytics{
		TotalRows:   c.TotalRows,
		ValidEmails: c.ValidEmails,
		Corrections: append([]contact.Correction(nil), c.Corrections...),
		Rejects:     append([]string(nil), c.Rejects...),
	}
}

// Line is one labelled counter in a summary.
type Line struct {
	Label string
	Value int
}

// Lines returns the counters in report order. List-valued entries are shown
// by their length.
func (a *Analytics) Lines() []Line {
	return []Line{
		{"Total Rows", a.TotalRows},
		{"Valid Emails", a.ValidEmails},
		{"Birthdays Found", a.BirthdaysFound},
		{"Emails Sent", a.EmailsSent},
		{"Send Failures", a.SendFailures},
		{"Corrections", len(a.Corrections)},
		{"Invalid Emails", len(a.Rejects)},
		{"Skipped Sends", a.SkippedSends},
	}
}

// CorrectionMessage formats a correction for reports.
func CorrectionMessage(c contact.Correction) string {
	return fmt.Sprintf("Corrected '%s' to '%s'", c.Original, c.Corrected)
}
