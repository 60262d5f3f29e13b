package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/zenibako/cue-browser/config"
	"github.com/zenibako/cue-browser/cues"
	"github.com/zenibako/cue-browser/history"
)

// Lister returns the raw records of the upstream table.
type Lister interface {
	ListRecords(ctx context.Context) ([]json.RawMessage, error)
}

// Recorder stores and lists fetch history.
type Recorder interface {
	Record(ctx context.Context, f history.Fetch) error
	Recent(ctx context.Context, limit int) ([]history.Fetch, error)
	CountByOutcome(ctx context.Context) (map[string]int64, error)
}

// Server is the record proxy HTTP server.
type Server struct {
	config   *config.Proxy
	upstream Lister
	history  Recorder
	options  cues.Options
	started  time.Time
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithHistory records every cue fetch in r and enables GET /api/fetches.
func WithHistory(r Recorder) ServerOption {
	return func(s *Server) {
		s.history = r
	}
}

// NewServer creates a proxy. upstream may be nil when credentials are
// missing; cue requests then fail with a configuration error.
func NewServer(cfg *config.Proxy, upstream Lister, opts ...ServerOption) *Server {
	s := &Server{
		config:   cfg,
		upstream: upstream,
		options:  cues.Options{DefaultAudioExt: cues.NormalizeExt(cfg.DefaultAudioExt)},
		started:  time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info("Cue proxy listening", "addr", addr, "history", s.history != nil, "origins", s.config.AllowedOrigins)
	log.Info("Endpoints",
		"cues", "GET /api/cues",
		"legacy", "GET /pages/api/cues",
		"health", "GET /health",
		"fetches", "GET /api/fetches")

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
		log.Info("Shutting down cue proxy...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.DefaultShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Errorf("Failed to encode JSON response: %v", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, statusCode int, message, details string) {
	s.respondJSON(w, statusCode, ErrorResponse{Error: message, Details: details})
}
