package proxy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"github.com/zenibako/cue-browser/airtable"
	"github.com/zenibako/cue-browser/config"
	"github.com/zenibako/cue-browser/cues"
	"github.com/zenibako/cue-browser/history"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"service": "cue proxy",
		"endpoints": map[string]string{
			"cues":       "GET /api/cues",
			"legacyCues": "GET /pages/api/cues",
			"health":     "GET /health",
			"fetches":    "GET /api/fetches?limit=N",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}
	s.respondJSON(w, http.StatusOK, HealthResponse{
		Status:             "healthy",
		Time:               time.Now().UTC().Format(time.RFC3339),
		UpstreamConfigured: s.upstream != nil && s.config.Upstream.Validate() == nil,
		History:            s.history != nil,
		Started:            humanize.Time(s.started),
	})
}

// handleCues serves the normalized cue list. Every failure is a 500 with
// an {error, details} body.
func (s *Server) handleCues(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}

	fetch := history.Fetch{StartedAt: time.Now()}
	list, dropped, err := s.fetchCues(r.Context())
	fetch.DurationMs = time.Since(fetch.StartedAt).Milliseconds()

	if err != nil {
		resp := s.classify(err, &fetch)
		fetch.Error = resp.Error
		s.record(r.Context(), fetch)
		s.respondJSON(w, http.StatusInternalServerError, resp)
		return
	}

	fetch.Outcome = history.OutcomeOK
	fetch.CueCount = len(list)
	fetch.Dropped = dropped
	s.record(r.Context(), fetch)

	w.Header().Set(HeaderDropped, strconv.Itoa(dropped))
	s.respondJSON(w, http.StatusOK, list)
}

func (s *Server) fetchCues(ctx context.Context) ([]cues.Cue, int, error) {
	if err := s.config.Upstream.Validate(); err != nil {
		return nil, 0, err
	}
	if s.upstream == nil {
		return nil, 0, config.ErrMissingCredentials
	}

	records, err := s.upstream.ListRecords(ctx)
	if err != nil {
		return nil, 0, err
	}

	list, dropped, errs := cues.DecodeRecords(records, s.options)
	for _, e := range errs {
		log.Warn("Dropping upstream record", "error", e)
	}
	return list, dropped, nil
}

// classify maps a fetch failure to its response body and history outcome.
func (s *Server) classify(err error, fetch *history.Fetch) ErrorResponse {
	var statusErr *airtable.StatusError
	switch {
	case errors.Is(err, config.ErrMissingCredentials):
		log.Error("Missing upstream configuration",
			"base_id", s.config.Upstream.BaseID != "",
			"api_key", s.config.Upstream.APIKey != "")
		fetch.Outcome = history.OutcomeConfigError
		return ErrorResponse{Error: MsgConfigError}

	case errors.As(err, &statusErr):
		log.Error("Upstream API error", "status", statusErr.Code, "body", statusErr.Body)
		fetch.Outcome = history.OutcomeUpstreamStatus
		fetch.UpstreamStatus = statusErr.Code
		return ErrorResponse{
			Error:   fmt.Sprintf("%s: %d %s", MsgUpstreamError, statusErr.Code, statusErr.Status),
			Details: statusErr.Body,
		}

	case errors.Is(err, cues.ErrInvalidPage):
		log.Error("Invalid response from upstream", "error", err)
		fetch.Outcome = history.OutcomeInvalidResponse
		return ErrorResponse{Error: MsgInvalidResponse}

	default:
		log.Error("Error fetching cues", "error", err)
		fetch.Outcome = history.OutcomeFailed
		return ErrorResponse{Error: MsgFetchFailed, Details: err.Error()}
	}
}

func (s *Server) record(ctx context.Context, fetch history.Fetch) {
	if s.history == nil {
		return
	}
	if err := s.history.Record(context.WithoutCancel(ctx), fetch); err != nil {
		log.Warn("Failed to record fetch", "error", err)
	}
}

// handleFetches lists recent fetch history, newest first.
func (s *Server) handleFetches(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}
	if s.history == nil {
		s.respondError(w, http.StatusNotFound, "Fetch history is disabled", "")
		return
	}

	limit := config.DefaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.respondError(w, http.StatusBadRequest, "Invalid limit", fmt.Sprintf("limit must be a positive integer, got %q", v))
			return
		}
		limit = min(n, config.MaxHistoryLimit)
	}

	rows, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		log.Error("Failed to list fetches", "error", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to list fetches", err.Error())
		return
	}

	totals, err := s.history.CountByOutcome(r.Context())
	if err != nil {
		log.Error("Failed to count fetches", "error", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to list fetches", err.Error())
		return
	}

	dtos := make([]FetchDTO, 0, len(rows))
	for _, f := range rows {
		dtos = append(dtos, toFetchDTO(f))
	}
	s.respondJSON(w, http.StatusOK, FetchListResponse{Fetches: dtos, Count: len(dtos), Totals: totals})
}
