// Package pota reads the Parks on the Air activator spot feed.
package pota

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/couchcryptid/pota-spot-hunter/internal/domain"
)

// DefaultFeedURL is the public activator spot endpoint.
const DefaultFeedURL = "https://api.pota.app/spot/activator/"

// Client fetches the current activator spots.
type Client struct {
	feedURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a feed client. The feed has no request timeout; callers
// bound it through the context if they need to.
func NewClient(feedURL string, logger *slog.Logger) *Client {
	return &Client{
		feedURL:    feedURL,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// FetchSpots returns the decoded feed records. A non-2xx status is an error,
// as is a record whose fields cannot be decoded (wrapping domain.ErrInvalidSpot).
func (c *Client) FetchSpots(ctx context.Context) ([]domain.FeedRecord, error) {
	raws, err := c.FetchRaw(ctx)
	if err != nil {
		return nil, err
	}
	return domain.DecodeFeedRecords(raws)
}

// FetchRaw returns the feed array with each element left undecoded, so
// callers can decode and report records one at a time.
func (c *Client) FetchRaw(ctx context.Context) ([]json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pota feed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("pota feed error: status %d: %s", resp.StatusCode, body)
	}

	var raws []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raws); err != nil {
		return nil, fmt.Errorf("decode pota feed: %w", err)
	}

	c.logger.Debug("pota feed fetched", "spots", len(raws))
	return raws, nil
}
