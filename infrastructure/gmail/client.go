package gmail

import (
	"context"
	"encoding/base64"
	"fmt"

	"ncs-birthday-mailer/domain/failure"
	"ncs-birthday-mailer/domain/notification"
	"ncs-birthday-mailer/infrastructure/googleauth"
	"ncs-birthday-mailer/infrastructure/mimemsg"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// GmailService defines the interface for Gmail API operations
// This allows mocking the Gmail API in tests
type GmailService interface {
	SendMessage(ctx context.Context, userID string, message *gmail.Message) (*gmail.Message, error)
}

// GoogleGmailService is the production implementation using the Gmail API
type GoogleGmailService struct {
	service *gmail.Service
}

// SendMessage sends an email via Gmail API
func (s *GoogleGmailService) SendMessage(ctx context.Context, userID string, message *gmail.Message) (*gmail.Message, error) {
	return s.service.Users.Messages.Send(userID, message).Context(ctx).Do()
}

// Client implements notification.EmailSender using Gmail API
type Client struct {
	gmailService GmailService
	from         notification.Recipient
	builder      *mimemsg.Builder
}

// ClientOption is a functional option for configuring Client
type ClientOption func(*Client)

// WithGmailService sets a custom Gmail service (for testing)
func WithGmailService(svc GmailService) ClientOption {
	return func(c *Client) {
		c.gmailService = svc
	}
}

// WithBuilder sets the MIME builder (for testing)
func WithBuilder(b *mimemsg.Builder) ClientOption {
	return func(c *Client) {
		c.builder = b
	}
}

// NewClient creates a new Gmail client
func NewClient(from notification.Recipient, opts ...ClientOption) *Client {
	c := &Client{
		from:    from,
		builder: mimemsg.NewBuilder(from),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// NewClientWithOAuth creates a Gmail client authorized as the sending user
func NewClientWithOAuth(ctx context.Context, cfg googleauth.OAuthConfig, from notification.Recipient, opts ...ClientOption) (*Client, error) {
	httpClient, err := googleauth.UserClient(ctx, cfg, gmail.GmailSendScope)
	if err != nil {
		return nil, err
	}

	srv, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create gmail service: %w", err)
	}

	opts = append([]ClientOption{WithGmailService(&GoogleGmailService{service: srv})}, opts...)
	return NewClient(from, opts...), nil
}

// Send sends an email using the Gmail API
func (c *Client) Send(ctx context.Context, req *notification.EmailRequest) error {
	if c.gmailService == nil || c.from.Address == "" {
		return failure.Fatalf("%w: gmail sender not authorized", notification.ErrNotConfigured)
	}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid email request: %w", err)
	}

	rawMessage, err := c.builder.Build(req)
	if err != nil {
		return fmt.Errorf("failed to build message: %w", err)
	}

	// Gmail API expects base64url
	message := &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString(rawMessage),
	}

	if _, err := c.gmailService.SendMessage(ctx, "me", message); err != nil {
		return fmt.Errorf("%w: %v", notification.ErrSendFailed, err)
	}

	return nil
}

// Ensure Client implements notification.EmailSender
var _ notification.EmailSender = (*Client)(nil)
