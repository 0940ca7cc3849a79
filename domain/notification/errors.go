package notification

import "errors"

var (
	// ErrNoRecipients is returned when no To recipients are provided
	ErrNoRecipients = errors.New("at least one recipient is required")

	// ErrInvalidRecipient is returned when a recipient has no email address
	ErrInvalidRecipient = errors.New("recipient must have an email address")

	// ErrNoSubject is returned when the subject is empty
	ErrNoSubject = errors.New("subject is required")

	// ErrEmptyAttachment is returned when an attachment has no name or content
	ErrEmptyAttachment = errors.New("attachment must have a filename and content")

	// ErrNotConfigured is returned when a sender is missing credentials or a server
	ErrNotConfigured = errors.New("email sender configuration is incomplete")

	// ErrSendFailed is returned when the email fails to send
	ErrSendFailed = errors.New("failed to send email")
)
