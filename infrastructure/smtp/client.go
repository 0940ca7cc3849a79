// Package smtp sends notification emails through an SMTP relay.
package smtp

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"ncs-birthday-mailer/domain/failure"
	"ncs-birthday-mailer/domain/notification"
	"ncs-birthday-mailer/infrastructure/mimemsg"

	"github.com/sirupsen/logrus"
)

// implicitTLSPort is the submission port that expects TLS from the first byte.
const implicitTLSPort = 465

// Config holds the relay settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     notification.Recipient
	Timeout  time.Duration
}

// Validate reports missing settings as a fatal configuration error.
func (c Config) Validate() error {
	var missing []string
	if c.From.Address == "" {
		missing = append(missing, "sender address")
	}
	if c.Password == "" {
		missing = append(missing, "password")
	}
	if c.Host == "" {
		missing = append(missing, "server")
	}
	if len(missing) > 0 {
		return failure.Fatalf("%w: missing %v", notification.ErrNotConfigured, missing)
	}
	if c.Port <= 0 {
		return failure.Fatalf("%w: invalid port %d", notification.ErrNotConfigured, c.Port)
	}
	return nil
}

// Client implements notification.EmailSender over SMTP
type Client struct {
	cfg     Config
	builder *mimemsg.Builder
	logger  logrus.FieldLogger
}

// ClientOption is a functional option for configuring Client
type ClientOption func(*Client)

// WithBuilder sets the message builder (for tests)
func WithBuilder(b *mimemsg.Builder) ClientOption {
	return func(c *Client) {
		c.builder = b
	}
}

// WithLogger sets the logger
func WithLogger(logger logrus.FieldLogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates an SMTP client. Settings are checked on every Send so a
// misconfigured client only fails when it is actually used.
func NewClient(cfg Config, opts ...ClientOption) *Client {
	if cfg.Username == "" {
		cfg.Username = cfg.From.Address
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	c := &Client{
		cfg:     cfg,
		builder: mimemsg.NewBuilder(cfg.From),
		logger:  logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send delivers req to all To and CC recipients.
func (c *Client) Send(ctx context.Context, req *notification.EmailRequest) error {
	if err := c.cfg.Validate(); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid email request: %w", err)
	}

	msg, err := c.builder.Build(req)
	if err != nil {
		return fmt.Errorf("failed to build message: %w", err)
	}

	if err := c.deliver(ctx, req.Addresses(), msg); err != nil {
		return fmt.Errorf("%w: %v", notification.ErrSendFailed, err)
	}
	return nil
}

func (c *Client) deliver(ctx context.Context, recipients []string, msg []byte) error {
	addr := net.JoinHostPort(c.cfg.Host, strconv.Itoa(c.cfg.Port))
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	conn, err := c.dial(ctx, addr)
	if err != nil {
		return err
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, c.cfg.Host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()

	if c.cfg.Port != implicitTLSPort {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: c.cfg.Host}); err != nil {
				return fmt.Errorf("failed to start TLS: %w", err)
			}
		}
	}

	auth := smtp.PlainAuth("", c.cfg.Username, c.cfg.Password, c.cfg.Host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}

	if err := client.Mail(c.cfg.From.Address); err != nil {
		return fmt.Errorf("failed to set sender %s: %w", c.cfg.From.Address, err)
	}
	for _, rcpt := range recipients {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("failed to set recipient: %w", err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open data writer: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		w.Close()
		return fmt.Errorf("failed to write email data: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := client.Quit(); err != nil {
		c.logger.WithError(err).Warn("Error during SMTP QUIT")
	}
	return nil
}

func (c *Client) dial(ctx context.Context, addr string) (net.Conn, error) {
	if c.cfg.Port == implicitTLSPort {
		d := &tls.Dialer{Config: &tls.Config{ServerName: c.cfg.Host}}
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to SMTP server with TLS: %w", err)
		}
		return conn, nil
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	return conn, nil
}

// Ensure Client implements notification.EmailSender
var _ notification.EmailSender = (*Client)(nil)
