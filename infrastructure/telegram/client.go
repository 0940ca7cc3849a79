// Package telegram posts messages to a chat through the Telegram Bot API.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ncs-birthday-mailer/domain/notification"
)

// DefaultAPIURL is the public Bot API endpoint.
const DefaultAPIURL = "https://api.telegram.org"

// maxMessageLength is the Bot API limit for a single message.
const maxMessageLength = 4096

// ErrNotConfigured is returned when the bot token or chat ID is missing.
var ErrNotConfigured = errors.New("telegram bot token or chat id not set")

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Client implements notification.ChatNotifier
type Client struct {
	token      string
	chatID     string
	apiURL     string
	parseMode  string
	httpClient *http.Client
}

// ClientOption is a functional option for configuring Client
type ClientOption func(*Client)

// WithAPIURL points the client at another Bot API endpoint (for tests)
func WithAPIURL(apiURL string) ClientOption {
	return func(c *Client) {
		c.apiURL = strings.TrimRight(apiURL, "/")
	}
}

// WithHTTPClient sets the HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a Telegram client for one chat
func NewClient(token, chatID string, opts ...ClientOption) *Client {
	c := &Client{
		token:      token,
		chatID:     chatID,
		apiURL:     DefaultAPIURL,
		parseMode:  "Markdown",
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether both the token and chat ID are set
func (c *Client) Configured() bool {
	return c.token != "" && c.chatID != ""
}

// Notify sends text to the configured chat
func (c *Client) Notify(ctx context.Context, text string) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	if len(text) > maxMessageLength {
		text = text[:maxMessageLength-3] + "..."
	}

	payload, err := json.Marshal(sendMessageRequest{
		ChatID:    c.chatID,
		Text:      text,
		ParseMode: c.parseMode,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", c.apiURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// The URL carries the bot token; keep it out of the error text.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram returned status %d: %s", resp.StatusCode, describe(body))
	}

	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err == nil && !parsed.OK {
		return fmt.Errorf("telegram rejected message: %s", parsed.Description)
	}
	return nil
}

func describe(body []byte) string {
	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Description != "" {
		return parsed.Description
	}
	return strings.TrimSpace(string(body))
}

// Ensure Client implements notification.ChatNotifier
var _ notification.ChatNotifier = (*Client)(nil)
