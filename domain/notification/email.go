package notification

import (
	"context"
)

// Recipient represents an email recipient with name and address
type Recipient struct {
	Name    string
	Address string
}

// Attachment is a file carried by an email
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// EmailRequest contains everything needed to send one email
type EmailRequest struct {
	To          []Recipient // Primary recipients
	CC          []Recipient // Carbon copy recipients
	Subject     string
	PlainText   string
	Attachments []Attachment
}

// Validate checks that the email request has all required fields
func (r *EmailRequest) Validate() error {
	if len(r.To) == 0 {
		return ErrNoRecipients
	}
	for _, rcpt := range append(append([]Recipient{}, r.To...), r.CC...) {
		if rcpt.Address == "" {
			return ErrInvalidRecipient
		}
	}
	if r.Subject == "" {
		return ErrNoSubject
	}
	for _, a := range r.Attachments {
		if a.Filename == "" || len(a.Data) == 0 {
			return ErrEmptyAttachment
		}
	}
	return nil
}

// Addresses returns every To and CC address in order
func (r *EmailRequest) Addresses() []string {
	addrs := make([]string, 0, len(r.To)+len(r.CC))
	for _, rcpt := range r.To {
		addrs = append(addrs, rcpt.Address)
	}
	for _, rcpt := range r.CC {
		addrs = append(addrs, rcpt.Address)
	}
	return addrs
}

// EmailSender defines the interface for sending emails
type EmailSender interface {
	Send(ctx context.Context, req *EmailRequest) error
}

// ChatNotifier posts a text message to a chat channel
type ChatNotifier interface {
	Notify(ctx context.Context, text string) error
}
