package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/log"

	"github.com/zenibako/cue-browser/catalog"
	"github.com/zenibako/cue-browser/config"
	"github.com/zenibako/cue-browser/player"
)

func main() {
	cfg := config.LoadBrowse()

	proxyURL := flag.String("proxy", cfg.ProxyURL, "Base URL of the cue proxy")
	engineHost := flag.String("engine-host", cfg.EngineHost, "OSC audio engine host")
	enginePort := flag.Int("engine-port", cfg.EnginePort, "OSC audio engine port (updates arrive on port+1)")
	logLevel := flag.String("log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flag.Parse()

	config.SetupLogging(*logLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client := catalog.NewClient(*proxyURL)
	engine := player.NewEngine(*engineHost, *enginePort, player.WithListenHost("0.0.0.0"))
	if err := engine.Listen(ctx); err != nil {
		log.Warn("Engine updates unavailable; card states follow requests only", "error", err)
	}
	defer engine.Close()

	b := newBrowser(catalog.NewView(client), client, engine)
	err := b.run(ctx)
	b.stop()
	if err != nil && !errors.Is(err, huh.ErrUserAborted) {
		log.Error("Cue browser failed", "error", err)
		os.Exit(1)
	}
}
