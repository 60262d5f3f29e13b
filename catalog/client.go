package catalog

import (
	"bytes"
	"context"
	"encoding/json"
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

// DefaultErrorMessage is shown when a failed response carries no message.
const DefaultErrorMessage = "Failed to load cues"

// CuesPath is the proxy route serving the cue list.
const CuesPath = "/api/cues"

// FetchError is a failed cue list request with the message to display.
type FetchError struct {
	Status  int // 0 when no response was received
	Message string
}

func (e *FetchError) Error() string {
	return e.Message
}

// Client fetches the cue list from a record proxy.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// FetchCues requests the cue list. Every failure is a *FetchError.
func (c *Client) FetchCues(ctx context.Context) ([]cues.Cue, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+CuesPath, nil)
	if err != nil {
		return nil, &FetchError{Message: fmt.Sprintf("%s: %v", DefaultErrorMessage, err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Message: fmt.Sprintf("%s: %v", DefaultErrorMessage, err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Status: resp.StatusCode, Message: fmt.Sprintf("%s: %v", DefaultErrorMessage, err)}
	}

	log.Debug("Cue list response",
		"status", resp.StatusCode,
		"size", humanize.Bytes(uint64(len(body))),
		"dropped", resp.Header.Get("X-Cues-Dropped"))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{Status: resp.StatusCode, Message: errorMessage(resp.StatusCode, body)}
	}

	if trimmed := bytes.TrimSpace(body); len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &FetchError{Status: resp.StatusCode, Message: DefaultErrorMessage + ": unexpected response"}
	}
	var list []cues.Cue
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, &FetchError{Status: resp.StatusCode, Message: fmt.Sprintf("%s: %v", DefaultErrorMessage, err)}
	}
	return list, nil
}

// errorMessage prefers the "error" field of a JSON body.
func errorMessage(status int, body []byte) string {
	var payload struct {
		Error any `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if msg, ok := payload.Error.(string); ok && msg != "" {
			return msg
		}
	}
	return fmt.Sprintf("%s (HTTP %d)", DefaultErrorMessage, status)
}

// ResolveURL resolves an audio URL against the proxy base, so relative
// paths like "/tracks/theme.mp3" become absolute.
func (c *Client) ResolveURL(ref string) string {
	if ref == "" {
		return ""
	}
	base, err := url.Parse(c.baseURL + "/")
	if err != nil {
		return ref
	}
	u, err := base.Parse(ref)
	if err != nil {
		return ref
	}
	return u.String()
}
