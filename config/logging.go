package config

import (
	"os"

	"github.com/charmbracelet/log"
)

// SetupLogging configures the default charmbracelet logger. An unknown
// level falls back to info.
func SetupLogging(level string) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		log.Warn("Unknown log level, using info", "level", level)
		lvl = log.InfoLevel
	}
	log.SetOutput(os.Stderr)
	log.SetLevel(lvl)
	log.SetReportTimestamp(true)
}
