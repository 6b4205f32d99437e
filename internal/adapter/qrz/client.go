// Package qrz talks to the QRZ.com XML callsign database.
package qrz

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/pota-spot-hunter/internal/domain"
	"github.com/couchcryptid/pota-spot-hunter/internal/observability"
	"golang.org/x/net/html/charset"
)

// DefaultAPIURL is the current XML interface endpoint.
const DefaultAPIURL = "https://xmldata.qrz.com/xml/current/"

// Client issues session keys and looks up callsigns. It implements
// credential.Issuer and pipeline.IdentityLookup.
type Client struct {
	username      string
	password      string
	baseURL       string
	lookupTimeout time.Duration
	httpClient    *http.Client
	metrics       *observability.Metrics
	logger        *slog.Logger
}

// NewClient creates a QRZ client. lookupTimeout bounds every callsign lookup.
func NewClient(baseURL, username, password string, lookupTimeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		username:      username,
		password:      password,
		baseURL:       baseURL,
		lookupTimeout: lookupTimeout,
		httpClient:    &http.Client{},
		metrics:       metrics,
		logger:        logger,
	}
}

// IssueKey logs in with the configured username and password and returns the
// session key. A non-2xx status or a response without a key is an error.
func (c *Client) IssueKey(ctx context.Context) (string, error) {
	params := url.Values{
		"username": {c.username},
		"password": {c.password},
	}

	resp, err := c.get(ctx, params)
	if err != nil {
		return "", fmt.Errorf("qrz login request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("qrz login: status %d: %s", resp.StatusCode, reasonPhrase(resp))
	}

	var db database
	if err := decodeXML(resp.Body, &db); err != nil {
		return "", fmt.Errorf("decode qrz login: %w", err)
	}

	key := strings.TrimSpace(db.Session.Key)
	if key == "" {
		msg := strings.TrimSpace(db.Session.Error)
		if msg == "" {
			msg = "no session key in response"
		}
		return "", fmt.Errorf("qrz login: %s", msg)
	}
	return key, nil
}

// Lookup resolves a callsign to an Identity. A non-2xx status becomes an
// error Identity so one bad lookup does not sink the run; transport failures,
// including the lookup timeout, and undecodable bodies are returned as errors.
func (c *Client) Lookup(ctx context.Context, callsign, key string) (domain.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, c.lookupTimeout)
	defer cancel()

	start := time.Now()
	resp, err := c.get(ctx, url.Values{"s": {key}, "callsign": {callsign}})
	c.metrics.LookupDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return domain.Identity{}, fmt.Errorf("qrz lookup %s: timed out after %s: %w", callsign, c.lookupTimeout, err)
		}
		return domain.Identity{}, fmt.Errorf("qrz lookup %s: %w", callsign, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reason := reasonPhrase(resp)
		c.logger.Warn("qrz lookup rejected", "callsign", callsign, "status", resp.StatusCode, "reason", reason)
		return domain.LookupFailure(resp.StatusCode, reason), nil
	}

	var db database
	if err := decodeXML(resp.Body, &db); err != nil {
		return domain.Identity{}, fmt.Errorf("decode qrz lookup %s: %w", callsign, err)
	}
	if db.Session.Error != "" {
		c.logger.Info("qrz session message", "callsign", callsign, "error", db.Session.Error)
	}

	var cs callsignRecord
	if db.Callsign != nil {
		cs = *db.Callsign
	}
	return domain.ResolveIdentity(cs.FirstName, cs.LastName, cs.Trustee), nil
}

func (c *Client) get(ctx context.Context, params url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/xml")
	return c.httpClient.Do(req)
}

// reasonPhrase returns the text after the status code, e.g.
// "Internal Server Error" for "500 Internal Server Error".
// decodeXML decodes a QRZ document, transcoding any declared non-UTF-8
// encoding such as ISO-8859-1.
func decodeXML(r io.Reader, v any) error {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel
	return dec.Decode(v)
}

func reasonPhrase(resp *http.Response) string {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	reason := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if reason == "" {
		reason = http.StatusText(resp.StatusCode)
	}
	return reason
}

// QRZ XML response types. Tags carry no namespace so both the current
// xmldata.qrz.com and the legacy online.qrz.com documents decode.

type database struct {
	XMLName  xml.Name        `xml:"QRZDatabase"`
	Session  session         `xml:"Session"`
	Callsign *callsignRecord `xml:"Callsign"`
}

type session struct {
	Key     string `xml:"Key"`
	Error   string `xml:"Error"`
	Message string `xml:"Message"`
}

type callsignRecord struct {
	Call      string `xml:"call"`
	FirstName string `xml:"fname"`
	LastName  string `xml:"name"`
	Trustee   string `xml:"trustee"`
}
