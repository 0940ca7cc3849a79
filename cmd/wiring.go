package cmd

import (
	"context"
	"fmt"

	"ncs-birthday-mailer/application/birthday"
	"ncs-birthday-mailer/application/dataset"
	appnotif "ncs-birthday-mailer/application/notification"
	"ncs-birthday-mailer/domain/contact"
	"ncs-birthday-mailer/domain/notification"
	"ncs-birthday-mailer/infrastructure/config"
	"ncs-birthday-mailer/infrastructure/dns"
	"ncs-birthday-mailer/infrastructure/filesystem"
	"ncs-birthday-mailer/infrastructure/gmail"
	"ncs-birthday-mailer/infrastructure/googleauth"
	"ncs-birthday-mailer/infrastructure/retry"
	"ncs-birthday-mailer/infrastructure/smtp"
	"ncs-birthday-mailer/infrastructure/spreadsheet"
	"ncs-birthday-mailer/infrastructure/store"
	"ncs-birthday-mailer/infrastructure/telegram"

	"github.com/sirupsen/logrus"
)

// newSource opens the configured contact sheet
func newSource(ctx context.Context, cfg *config.Config) (contact.Source, error) {
	if cfg.Data.Format == spreadsheet.FormatSheets {
		svc, err := spreadsheet.NewGoogleSheetsService(ctx, cfg.Google.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("failed to create Sheets client: %w", err)
		}
		return spreadsheet.NewSheetsSource(svc, cfg.Data.SheetID, cfg.Data.SheetRange), nil
	}
	return spreadsheet.OpenFile(cfg.Data.File, cfg.Data.Format)
}

// newValidator builds the address validator, with the MX lookup when enabled
func newValidator(cfg *config.Config, domainCheck bool) contact.Validator {
	v := contact.Validator{DomainCheck: domainCheck}
	if domainCheck {
		v.Checker = dns.NewMXChecker(dns.WithTimeout(cfg.Validation.DNSTimeout))
	}
	return v
}

// newEmailSender creates the configured mail transport
func newEmailSender(ctx context.Context, cfg *config.Config) (notification.EmailSender, error) {
	switch cfg.Mail.Transport {
	case "gmail":
		client, err := gmail.NewClientWithOAuth(ctx, googleauth.OAuthConfig{
			CredentialsFile: cfg.Google.CredentialsFile,
			TokenFile:       cfg.Google.TokenFile,
		}, cfg.Sender())
		if err != nil {
			return nil, fmt.Errorf("failed to create Gmail client: %w", err)
		}
		return client, nil
	default:
		return smtp.NewClient(smtp.Config{
			Host:     cfg.Mail.SMTPServer,
			Port:     cfg.Mail.SMTPPort,
			Password: cfg.Mail.Password,
			From:     cfg.Sender(),
			Timeout:  cfg.Mail.Timeout,
		}), nil
	}
}

// newChatNotifier returns nil when Telegram is not configured
func newChatNotifier(cfg *config.Config) notification.ChatNotifier {
	client := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, telegram.WithAPIURL(cfg.Telegram.APIURL))
	if !client.Configured() {
		return nil
	}
	return client
}

// newReporter wires the admin report channels. sender may be nil.
func newReporter(cfg *config.Config, sender notification.EmailSender) *appnotif.Reporter {
	opts := []appnotif.Option{}
	if sender != nil {
		opts = append(opts, appnotif.WithEmail(sender, cfg.AdminRecipients()))
	}
	if chat := newChatNotifier(cfg); chat != nil {
		opts = append(opts, appnotif.WithChat(chat))
	}
	return appnotif.NewReporter(opts...)
}

func openSendLog(ctx context.Context, cfg *config.Config) (store.SendLogBackend, error) {
	return store.OpenSendLog(ctx, store.SendLogOptions{
		Backend:     cfg.State.SendLog.Backend,
		Path:        cfg.State.SendLog.Path,
		RedisURL:    cfg.State.SendLog.RedisURL,
		RedisPrefix: cfg.State.SendLog.RedisPrefix,
	})
}

func newDatasetService(ctx context.Context, cfg *config.Config) (*dataset.Service, error) {
	source, err := newSource(ctx, cfg)
	if err != nil {
		return nil, err
	}
	resolver := contact.NewResolver(newValidator(cfg, cfg.Validation.DomainCheck))
	return dataset.NewService(source, store.NewDatasetFile(cfg.State.CacheFile), resolver), nil
}

// newBirthdayService assembles the run orchestrator. The returned closer
// releases the send log backend.
func newBirthdayService(
	ctx context.Context,
	cfg *config.Config,
	sender notification.EmailSender,
	opts ...birthday.Option,
) (*birthday.Service, func() error, error) {
	contacts, err := newDatasetService(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	sendLog, err := openSendLog(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	retrier := retry.New(retry.Config{
		MaxAttempts:    cfg.Retry.MaxAttempts,
		InitialBackoff: cfg.Retry.InitialBackoff,
		BackoffFactor:  cfg.Retry.BackoffFactor,
	}, retry.WithLogger(logrus.StandardLogger()))

	base := []birthday.Option{
		birthday.WithRetrier(retrier),
		birthday.WithTemplate(notification.EmailTemplate{
			SubjectFormat: cfg.Message.Subject,
			PlainText:     cfg.Message.Body,
		}),
	}

	svc := birthday.NewService(
		contacts,
		sendLog,
		sender,
		birthday.NewFileAttachment(cfg.Message.Attachment, filesystem.NewChecker()),
		append(base, opts...)...,
	)
	return svc, sendLog.Close, nil
}
