// Package pushover delivers notification batches through the Pushover API.
package pushover

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

const (
	// DefaultAPIURL is the Pushover message endpoint.
	DefaultAPIURL = "https://api.pushover.net/1/messages.json"

	// maxMessageRunes is Pushover's message length limit.
	maxMessageRunes = 1024
)

// Options holds the Pushover application token, user key, and presentation settings.
type Options struct {
	APIURL string
	Token  string
	User   string
	Sound  string
	Title  string
}

// Client implements pipeline.Notifier.
type Client struct {
	opts       Options
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Pushover client. Dispatch carries no timeout.
func NewClient(opts Options, logger *slog.Logger) *Client {
	return &Client{
		opts:       opts,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// Name identifies the channel in logs and metrics.
func (c *Client) Name() string { return "pushover" }

// Notify posts the joined batch as a single message. A rejected request is
// logged and swallowed; only transport failures are returned.
func (c *Client) Notify(ctx context.Context, message string) error {
	form := url.Values{
		"token":   {c.opts.Token},
		"user":    {c.opts.User},
		"sound":   {c.opts.Sound},
		"message": {truncate(message, maxMessageRunes)},
	}
	if c.opts.Title != "" {
		form.Set("title", c.opts.Title)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.APIURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("pushover request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Error("pushover rejected notification", "status", resp.StatusCode, "reason", http.StatusText(resp.StatusCode), "body", string(body))
		return nil
	}

	c.logger.Info("pushover notification sent", "chars", len([]rune(message)))
	return nil
}

// truncate cuts s to at most n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
