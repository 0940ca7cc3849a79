// Package mimemsg renders notification requests as RFC 5322 messages.
package mimemsg

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"strings"
	"time"

	"ncs-birthday-mailer/domain/notification"
)

const lineLength = 76

// Builder renders messages from a fixed sender.
type Builder struct {
	from     notification.Recipient
	boundary string
	now      func() time.Time
}

// Option configures a Builder.
type Option func(*Builder)

// WithBoundary fixes the multipart boundary (for tests).
func WithBoundary(boundary string) Option {
	return func(b *Builder) {
		b.boundary = boundary
	}
}

// WithClock sets the clock used for the Date header.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		b.now = now
	}
}

// NewBuilder creates a Builder for the given sender.
func NewBuilder(from notification.Recipient, opts ...Option) *Builder {
	b := &Builder{from: from, now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build renders req as a multipart/mixed message with a text/plain body and
// one base64 part per attachment.
func (b *Builder) Build(req *notification.EmailRequest) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if b.boundary != "" {
		if err := mw.SetBoundary(b.boundary); err != nil {
			return nil, fmt.Errorf("invalid boundary: %w", err)
		}
	}

	var msg bytes.Buffer
	writeHeader(&msg, "From", formatAddress(b.from))
	writeHeader(&msg, "To", formatAddresses(req.To))
	if len(req.CC) > 0 {
		writeHeader(&msg, "Cc", formatAddresses(req.CC))
	}
	writeHeader(&msg, "Subject", mime.QEncoding.Encode("utf-8", req.Subject))
	writeHeader(&msg, "Date", b.now().Format(time.RFC1123Z))
	writeHeader(&msg, "MIME-Version", "1.0")
	writeHeader(&msg, "Content-Type", fmt.Sprintf("multipart/mixed; boundary=%q", mw.Boundary()))
	msg.WriteString("\r\n")

	textHeader := textproto.MIMEHeader{}
	textHeader.Set("Content-Type", `text/plain; charset="UTF-8"`)
	textHeader.Set("Content-Transfer-Encoding", "quoted-printable")
	part, err := mw.CreatePart(textHeader)
	if err != nil {
		return nil, fmt.Errorf("failed to create text part: %w", err)
	}
	qp := quotedprintable.NewWriter(part)
	if _, err := qp.Write([]byte(req.PlainText)); err != nil {
		return nil, fmt.Errorf("failed to write text part: %w", err)
	}
	if err := qp.Close(); err != nil {
		return nil, fmt.Errorf("failed to write text part: %w", err)
	}

	for _, a := range req.Attachments {
		if err := writeAttachment(mw, a); err != nil {
			return nil, err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close message: %w", err)
	}

	msg.Write(buf.Bytes())
	return msg.Bytes(), nil
}

func writeAttachment(mw *multipart.Writer, a notification.Attachment) error {
	contentType := a.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	h := textproto.MIMEHeader{}
	h.Set("Content-Type", mime.FormatMediaType(contentType, map[string]string{"name": a.Filename}))
	h.Set("Content-Transfer-Encoding", "base64")
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": a.Filename}))

	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("failed to create attachment part %q: %w", a.Filename, err)
	}

	encoded := base64.StdEncoding.EncodeToString(a.Data)
	for len(encoded) > lineLength {
		if _, err := fmt.Fprintf(part, "%s\r\n", encoded[:lineLength]); err != nil {
			return fmt.Errorf("failed to write attachment %q: %w", a.Filename, err)
		}
		encoded = encoded[lineLength:]
	}
	if _, err := fmt.Fprintf(part, "%s\r\n", encoded); err != nil {
		return fmt.Errorf("failed to write attachment %q: %w", a.Filename, err)
	}
	return nil
}

func writeHeader(buf *bytes.Buffer, key, value string) {
	fmt.Fprintf(buf, "%s: %s\r\n", key, value)
}

func formatAddress(r notification.Recipient) string {
	return (&mail.Address{Name: r.Name, Address: r.Address}).String()
}

func formatAddresses(rs []notification.Recipient) string {
	addrs := make([]string, len(rs))
	for i, r := range rs {
		addrs[i] = formatAddress(r)
	}
	return strings.Join(addrs, ", ")
}
