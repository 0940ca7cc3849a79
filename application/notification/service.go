package notification

import (
	"context"

	"ncs-birthday-mailer/domain/notification"
	"ncs-birthday-mailer/domain/report"

	"github.com/sirupsen/logrus"
)

// Reporter sends run reports to the admins by email and to the chat channel.
// Delivery problems are logged and never returned.
type Reporter struct {
	sender notification.EmailSender
	admins []notification.Recipient
	chat   notification.ChatNotifier
	logger logrus.FieldLogger
}

// Option configures a Reporter.
type Option func(*Reporter)

// WithEmail reports by email to admins through sender.
func WithEmail(sender notification.EmailSender, admins []notification.Recipient) Option {
	return func(r *Reporter) {
		r.sender = sender
		r.admins = admins
	}
}

// WithChat reports to a chat channel.
func WithChat(chat notification.ChatNotifier) Option {
	return func(r *Reporter) {
		r.chat = chat
	}
}

// WithLogger sets the logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(r *Reporter) {
		r.logger = logger
	}
}

// NewReporter creates a reporter. Channels that are not configured are skipped.
func NewReporter(opts ...Option) *Reporter {
	r := &Reporter{logger: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ReportSuccess sends the daily report for a completed run.
func (r *Reporter) ReportSuccess(ctx context.Context, status string, analytics *report.Analytics) {
	body := report.Render(status, analytics)
	r.email(ctx, report.SubjectDaily, body)
	r.post(ctx, report.ChatDaily(body))
}

// ReportFailure sends the failure report for an aborted run.
func (r *Reporter) ReportFailure(ctx context.Context, err error, stage string) {
	r.email(ctx, report.SubjectFailed, report.RenderFailure(err, stage))
	r.post(ctx, report.ChatFailure(err))
}

func (r *Reporter) email(ctx context.Context, subject, body string) {
	if r.sender == nil || len(r.admins) == 0 {
		r.logger.Warn("No admin emails configured, skipping email report")
		return
	}

	req := &notification.EmailRequest{
		To:        r.admins,
		Subject:   subject,
		PlainText: body,
	}
	if err := r.sender.Send(ctx, req); err != nil {
		r.logger.WithError(err).WithField("subject", subject).Error("Failed to send admin report")
		return
	}
	r.logger.WithField("admins", len(r.admins)).Info("Admin report sent")
}

func (r *Reporter) post(ctx context.Context, text string) {
	if r.chat == nil {
		r.logger.Warn("Telegram not configured, skipping chat report")
		return
	}
	if err := r.chat.Notify(ctx, text); err != nil {
		r.logger.WithError(err).Error("Failed to post chat report")
		return
	}
	r.logger.Info("Chat report posted")
}
