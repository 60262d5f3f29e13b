package proxy

import (
	"time"

	"github.com/dustin/go-humanize"

	"github.com/zenibako/cue-browser/history"
)

// Error messages returned by GET /api/cues.
const (
	MsgConfigError     = "Server configuration error: Missing upstream credentials"
	MsgUpstreamError   = "Upstream API error"
	MsgInvalidResponse = "Invalid response from upstream"
	MsgFetchFailed     = "Failed to fetch cues"
)

// Response headers
const (
	HeaderDropped   = "X-Cues-Dropped" // records skipped as invalid
	HeaderRequestID = "X-Request-ID"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status             string `json:"status"`
	Time               string `json:"time"`
	UpstreamConfigured bool   `json:"upstream_configured"`
	History            bool   `json:"history"`
	Started            string `json:"started"`
}

// FetchDTO is one row of GET /api/fetches.
type FetchDTO struct {
	ID             string    `json:"id"`
	StartedAt      time.Time `json:"started_at"`
	Age            string    `json:"age"`
	DurationMs     int64     `json:"duration_ms"`
	Outcome        string    `json:"outcome"`
	UpstreamStatus int       `json:"upstream_status,omitempty"`
	CueCount       int       `json:"cue_count"`
	Dropped        int       `json:"dropped"`
	Error          string    `json:"error,omitempty"`
}

// FetchListResponse is the body of GET /api/fetches.
type FetchListResponse struct {
	Fetches []FetchDTO       `json:"fetches"`
	Count   int              `json:"count"`
	Totals  map[string]int64 `json:"totals"`
}

func toFetchDTO(f history.Fetch) FetchDTO {
	return FetchDTO{
		ID:             f.ID,
		StartedAt:      f.StartedAt,
		Age:            humanize.Time(f.StartedAt),
		DurationMs:     f.DurationMs,
		Outcome:        f.Outcome,
		UpstreamStatus: f.UpstreamStatus,
		CueCount:       f.CueCount,
		Dropped:        f.Dropped,
		Error:          f.Error,
	}
}
