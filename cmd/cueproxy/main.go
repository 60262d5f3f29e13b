package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/zenibako/cue-browser/airtable"
	"github.com/zenibako/cue-browser/config"
	"github.com/zenibako/cue-browser/history"
	"github.com/zenibako/cue-browser/proxy"
)

func main() {
	cfg := config.LoadProxy()

	port := flag.Int("port", cfg.Port, "HTTP port to listen on")
	historyDB := flag.String("history-db", cfg.HistoryDB, "SQLite file for fetch history (empty disables)")
	logLevel := flag.String("log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flag.Parse()

	cfg.Port = *port
	cfg.HistoryDB = *historyDB
	cfg.LogLevel = *logLevel
	config.SetupLogging(cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, &cfg); err != nil {
		log.Error("Cue proxy failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Proxy) error {
	var upstream proxy.Lister
	if missing := cfg.Upstream.Missing(); len(missing) > 0 {
		log.Warn("Upstream credentials not set; /api/cues will answer with a configuration error", "missing", missing)
	} else {
		upstream = airtable.NewClient(cfg.Upstream.BaseID, cfg.Upstream.APIKey, cfg.Upstream.TableName,
			airtable.WithAPIURL(cfg.Upstream.APIURL),
			airtable.WithTimeout(cfg.Upstream.Timeout),
			airtable.WithMaxPages(cfg.Upstream.MaxPages))
		log.Info("Upstream configured", "table", cfg.Upstream.TableName, "timeout", cfg.Upstream.Timeout)
	}

	var opts []proxy.ServerOption
	if cfg.HistoryDB != "" {
		store, err := history.Open(cfg.HistoryDB)
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer store.Close()
		opts = append(opts, proxy.WithHistory(store))
		log.Info("Recording fetch history", "db", cfg.HistoryDB)
	}

	return proxy.NewServer(cfg, upstream, opts...).Run(ctx, fmt.Sprintf(":%d", cfg.Port))
}
