package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrMissingCredentials is returned when the upstream base id or API key is unset.
var ErrMissingCredentials = errors.New("missing upstream credentials")

// Defaults
const (
	DefaultAPIURL          = "https://api.airtable.com/v0"
	DefaultTableName       = "music data"
	DefaultTimeout         = 30 * time.Second
	DefaultMaxPages        = 10
	DefaultPort            = 8080
	DefaultAudioExt        = ".mp3"
	DefaultProxyURL        = "http://localhost:8080"
	DefaultEngineHost      = "127.0.0.1"
	DefaultEnginePort      = 53100
	DefaultLogLevel        = "info"
	DefaultAllowedOrigins  = "*"
	DefaultHistoryLimit    = 20
	MaxHistoryLimit        = 200
	DefaultShutdownTimeout = 10 * time.Second
)

// Upstream describes how to reach the record store.
type Upstream struct {
	APIURL    string
	BaseID    string
	APIKey    string
	TableName string
	Timeout   time.Duration // 0 disables the client timeout
	MaxPages  int
}

// Validate reports ErrMissingCredentials when a required value is absent.
func (u Upstream) Validate() error {
	if missing := u.Missing(); len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}
	return nil
}

// Missing lists the environment variables a valid configuration still needs.
func (u Upstream) Missing() []string {
	var missing []string
	if u.BaseID == "" {
		missing = append(missing, "UPSTREAM_BASE_ID")
	}
	if u.APIKey == "" {
		missing = append(missing, "UPSTREAM_API_KEY")
	}
	return missing
}

// Proxy holds runtime configuration for cmd/cueproxy.
type Proxy struct {
	Port            int
	AllowedOrigins  []string
	HistoryDB       string // empty disables fetch history
	DefaultAudioExt string
	LogLevel        string
	Upstream        Upstream
}

// Browse holds runtime configuration for cmd/cuebrowse.
type Browse struct {
	ProxyURL   string
	EngineHost string
	EnginePort int // updates arrive on EnginePort+1
	LogLevel   string
}

// LoadProxy reads proxy configuration from environment variables.
// UPSTREAM_* names win over the older AIRTABLE_* names.
func LoadProxy() Proxy {
	return Proxy{
		Port:            envInt("CUEPROXY_PORT", DefaultPort),
		AllowedOrigins:  splitList(envStr("CUEPROXY_ALLOWED_ORIGINS", DefaultAllowedOrigins)),
		HistoryDB:       envStr("CUEPROXY_HISTORY_DB", ""),
		DefaultAudioExt: envStr("CUEPROXY_DEFAULT_AUDIO_EXT", DefaultAudioExt),
		LogLevel:        envStr("LOG_LEVEL", DefaultLogLevel),
		Upstream: Upstream{
			APIURL:    strings.TrimRight(envStr("UPSTREAM_API_URL", DefaultAPIURL), "/"),
			BaseID:    envFirst("UPSTREAM_BASE_ID", "AIRTABLE_BASE_ID"),
			APIKey:    envFirst("UPSTREAM_API_KEY", "AIRTABLE_API_KEY"),
			TableName: envFirstOr(DefaultTableName, "UPSTREAM_TABLE_NAME", "AIRTABLE_TABLE_NAME"),
			Timeout:   envSeconds("UPSTREAM_TIMEOUT", DefaultTimeout),
			MaxPages:  envInt("UPSTREAM_MAX_PAGES", DefaultMaxPages),
		},
	}
}

// LoadBrowse reads terminal browser configuration from environment variables.
func LoadBrowse() Browse {
	return Browse{
		ProxyURL:   strings.TrimRight(envStr("CUEBROWSE_PROXY_URL", DefaultProxyURL), "/"),
		EngineHost: envStr("CUEBROWSE_ENGINE_HOST", DefaultEngineHost),
		EnginePort: envInt("CUEBROWSE_ENGINE_PORT", DefaultEnginePort),
		LogLevel:   envStr("LOG_LEVEL", DefaultLogLevel),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envSeconds(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return time.Duration(n) * time.Second
		}
	}
	return fallback
}

func envFirst(keys ...string) string {
	return envFirstOr("", keys...)
}

func envFirstOr(fallback string, keys ...string) string {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return fallback
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
