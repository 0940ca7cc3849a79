// Package birthday runs the daily birthday greeting job.
package birthday

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"ncs-birthday-mailer/application/dataset"
	"ncs-birthday-mailer/domain/contact"
	"ncs-birthday-mailer/domain/delivery"
	"ncs-birthday-mailer/domain/failure"
	"ncs-birthday-mailer/domain/notification"
	"ncs-birthday-mailer/domain/report"
	"ncs-birthday-mailer/infrastructure/logging"
	"ncs-birthday-mailer/infrastructure/retry"

	"github.com/sirupsen/logrus"
)

// Run statuses
const (
	StatusNoBirthdays = "No birthdays today."
	statusProcessed   = "Successfully processed %d new birthday emails."
	statusDryRun      = "Dry run: %d birthday emails would be sent."
)

// Stages reported when a run fails
const (
	StageDataset = "loading contacts"
	StageSendLog = "loading send log"
	StageCompose = "composing email"
	StageSend    = "sending emails"
	StageSaveLog = "saving send log"
	StageAttach  = "loading attachment"
)

// DatasetLoader provides the cleaned contacts for a run.
type DatasetLoader interface {
	Load(ctx context.Context) (*dataset.Result, error)
}

// Retrier runs an operation under a retry policy.
type Retrier interface {
	Do(ctx context.Context, operation string, fn func(ctx context.Context) error) error
}

// RunError records the stage a run stopped in.
type RunError struct {
	Stage string
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// StageOf returns the stage recorded in err, or "".
func StageOf(err error) string {
	var re *RunError
	if errors.As(err, &re) {
		return re.Stage
	}
	return ""
}

// Result is the outcome of a completed run.
type Result struct {
	Date      time.Time
	Status    string
	Analytics *report.Analytics
	Sent      []string
}

// Service orchestrates one run of the birthday job
type Service struct {
	contacts   DatasetLoader
	sendLog    delivery.SendLogStore
	sender     notification.EmailSender
	attachment AttachmentLoader
	retrier    Retrier
	template   notification.EmailTemplate
	clock      func() time.Time
	dryRun     bool
	output     io.Writer
	logger     logrus.FieldLogger
}

// Option configures a Service.
type Option func(*Service)

// WithRetrier replaces the default retry policy.
func WithRetrier(r Retrier) Option {
	return func(s *Service) {
		s.retrier = r
	}
}

// WithTemplate sets the greeting template.
func WithTemplate(t notification.EmailTemplate) Option {
	return func(s *Service) {
		s.template = t
	}
}

// WithClock sets the time source that decides "today".
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

// WithDryRun selects birthdays without sending or recording anything.
func WithDryRun(dryRun bool) Option {
	return func(s *Service) {
		s.dryRun = dryRun
	}
}

// WithOutput sets where progress is printed.
func WithOutput(w io.Writer) Option {
	return func(s *Service) {
		s.output = w
	}
}

// WithLogger sets the logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a run orchestrator.
func NewService(
	contacts DatasetLoader,
	sendLog delivery.SendLogStore,
	sender notification.EmailSender,
	attachment AttachmentLoader,
	opts ...Option,
) *Service {
	s := &Service{
		contacts:   contacts,
		sendLog:    sendLog,
		sender:     sender,
		attachment: attachment,
		template:   notification.DefaultTemplate,
		clock:      time.Now,
		output:     io.Discard,
		logger:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.retrier == nil {
		s.retrier = retry.New(retry.DefaultConfig(), retry.WithLogger(s.logger))
	}
	return s
}

// Run executes the job for today. Send failures are counted and the run
// continues; fatal errors stop it and come back as a *RunError.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	day := s.clock()

	loaded, err := s.contacts.Load(ctx)
	if err != nil {
		return nil, &RunError{Stage: StageDataset, Err: err}
	}
	analytics := loaded.Analytics

	birthdays := contact.BirthdaysOn(loaded.Dataset.People, day)
	analytics.BirthdaysFound = len(birthdays)

	s.logger.WithFields(logrus.Fields{
		"date":      delivery.DateKey(day),
		"birthdays": len(birthdays),
		"cached":    loaded.CacheHit,
	}).Info("Birthdays selected")

	result := &Result{Date: day, Analytics: analytics}

	if len(birthdays) == 0 {
		fmt.Fprintln(s.output, StatusNoBirthdays)
		result.Status = StatusNoBirthdays
		return result, nil
	}

	if s.dryRun {
		count := 0
		for _, p := range birthdays {
			for _, addr := range p.Emails {
				fmt.Fprintf(s.output, "Would send to: %s <%s>\n", displayName(p), addr)
				count++
			}
		}
		result.Status = fmt.Sprintf(statusDryRun, count)
		return result, nil
	}

	attachment, err := s.attachment.LoadAttachment()
	if err != nil {
		return nil, &RunError{Stage: StageAttach, Err: failure.AsFatal(err)}
	}

	log, err := s.sendLog.Load(ctx)
	if err != nil {
		return nil, &RunError{Stage: StageSendLog, Err: failure.AsFatal(err)}
	}

	sendErr := s.sendAll(ctx, day, birthdays, attachment, log, result)

	if err := s.sendLog.Save(ctx, log); err != nil {
		if sendErr != nil {
			s.logger.WithError(err).Error("Failed to save send log after aborted run")
			return nil, sendErr
		}
		return nil, &RunError{Stage: StageSaveLog, Err: failure.AsFatal(err)}
	}
	if sendErr != nil {
		return nil, sendErr
	}

	result.Status = fmt.Sprintf(statusProcessed, analytics.EmailsSent)
	return result, nil
}

// sendAll sends one greeting per address that has not been sent today.
// The send log is updated in memory only.
func (s *Service) sendAll(
	ctx context.Context,
	day time.Time,
	birthdays []contact.Person,
	attachment *notification.Attachment,
	log *delivery.SendLog,
	result *Result,
) error {
	date := delivery.DateKey(day)
	analytics := result.Analytics

	for _, p := range birthdays {
		data := notification.NewTemplateData(p.Name, day)
		subject, err := s.template.RenderSubject(data)
		if err != nil {
			return &RunError{Stage: StageCompose, Err: failure.AsFatal(err)}
		}
		body, err := s.template.RenderPlainText(data)
		if err != nil {
			return &RunError{Stage: StageCompose, Err: failure.AsFatal(err)}
		}

		for _, addr := range p.Emails {
			entry := s.logger.WithField("email", logging.MaskEmail(addr))

			if log.HasSent(date, addr) {
				analytics.SkippedSends++
				entry.Info("Already sent today, skipping")
				fmt.Fprintf(s.output, "Skipped (already sent): %s\n", addr)
				continue
			}

			req := &notification.EmailRequest{
				To:          []notification.Recipient{{Name: p.Name, Address: addr}},
				Subject:     subject,
				PlainText:   body,
				Attachments: []notification.Attachment{*attachment},
			}

			err := s.retrier.Do(ctx, "send birthday email", func(ctx context.Context) error {
				return s.sender.Send(ctx, req)
			})
			switch {
			case err == nil:
				analytics.EmailsSent++
				log.MarkSent(date, addr)
				result.Sent = append(result.Sent, addr)
				entry.Info("Birthday email sent")
				fmt.Fprintf(s.output, "Sent to: %s <%s>\n", displayName(p), addr)
			case failure.IsFatal(err), ctx.Err() != nil:
				return &RunError{Stage: StageSend, Err: err}
			default:
				analytics.SendFailures++
				entry.WithError(err).Error("Failed to send birthday email")
				fmt.Fprintf(s.output, "Failed: %s\n", addr)
			}
		}
	}
	return nil
}

func displayName(p contact.Person) string {
	if p.Name == "" {
		return "(no name)"
	}
	return p.Name
}
