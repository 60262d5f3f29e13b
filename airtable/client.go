package airtable

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"github.com/zenibako/cue-browser/cues"
)

const (
	DefaultAPIURL   = "https://api.airtable.com/v0"
	DefaultMaxPages = 10
	DefaultTimeout  = 30 * time.Second

	maxBodyBytes = 32 << 20
)

// ErrBodyTooLarge is returned when an upstream page exceeds the read limit.
var ErrBodyTooLarge = errors.New("upstream body too large")

// StatusError is returned when the upstream answers with a non-2xx status.
type StatusError struct {
	Code   int
	Status string // status text, e.g. "Unprocessable Entity"
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream status %d %s: %s", e.Code, e.Status, e.Body)
}

// Client lists records from one table of an Airtable-compatible base.
type Client struct {
	apiURL     string
	baseID     string
	apiKey     string
	table      string
	maxPages   int
	maxBody    int64
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithAPIURL overrides the API root, mainly for tests.
func WithAPIURL(apiURL string) Option {
	return func(c *Client) {
		c.apiURL = strings.TrimRight(apiURL, "/")
	}
}

// WithTimeout sets the per-request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithMaxPages bounds how many pages a single listing follows.
func WithMaxPages(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxPages = n
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a client for the given base and table. The table name
// may be given raw ("music data") or already escaped ("music%20data").
func NewClient(baseID, apiKey, table string, opts ...Option) *Client {
	c := &Client{
		apiURL:     DefaultAPIURL,
		baseID:     baseID,
		apiKey:     apiKey,
		table:      table,
		maxPages:   DefaultMaxPages,
		maxBody:    maxBodyBytes,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TableURL returns the list endpoint for the configured table.
func (c *Client) TableURL() string {
	return c.apiURL + "/" + url.PathEscape(c.baseID) + "/" + EscapeTable(c.table)
}

// EscapeTable path-escapes a table name exactly once.
func EscapeTable(table string) string {
	unescaped, err := url.PathUnescape(table)
	if err != nil {
		unescaped = table
	}
	return url.PathEscape(unescaped)
}

// ListRecords fetches every page of the table, following offsets until the
// upstream stops returning one or the page limit is reached. Records are
// returned undecoded so the caller can drop invalid ones individually.
func (c *Client) ListRecords(ctx context.Context) ([]json.RawMessage, error) {
	var (
		records []json.RawMessage
		offset  string
	)
	for page := 1; page <= c.maxPages; page++ {
		p, err := c.fetchPage(ctx, offset)
		if err != nil {
			return nil, err
		}
		records = append(records, p.Records...)
		if p.Offset == "" {
			log.Debug("Upstream listing complete", "pages", page, "records", len(records))
			return records, nil
		}
		offset = p.Offset
	}
	log.Warn("Upstream listing truncated at page limit", "max_pages", c.maxPages, "records", len(records))
	return records, nil
}

func (c *Client) fetchPage(ctx context.Context, offset string) (cues.Page, error) {
	endpoint := c.TableURL()
	if offset != "" {
		endpoint += "?" + url.Values{"offset": {offset}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return cues.Page{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cache-Control", "no-store")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return cues.Page{}, fmt.Errorf("request upstream: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return cues.Page{}, fmt.Errorf("read upstream body: %w", err)
	}

	log.Debug("Upstream page fetched",
		"status", resp.StatusCode,
		"size", humanize.Bytes(uint64(len(body))),
		"elapsed", time.Since(start).Round(time.Millisecond),
		"offset", offset != "")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return cues.Page{}, &StatusError{
			Code:   resp.StatusCode,
			Status: http.StatusText(resp.StatusCode),
			Body:   string(body),
		}
	}
	if int64(len(body)) > c.maxBody {
		return cues.Page{}, fmt.Errorf("%w: more than %s", ErrBodyTooLarge, humanize.IBytes(uint64(c.maxBody)))
	}

	return cues.DecodePage(body)
}
