// Package config defines client configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults; Load() layers sources on top.
// - The API base is resolved once at startup and never mutated afterwards.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// DefaultAPIBase is the final fallback when nothing configures the backend.
const DefaultAPIBase = "http://localhost:8000/api"

// Config contains process configuration for the dashboard client.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// APIBaseURL explicitly pins the backend API base, e.g.
	// "https://roadlens.example.com/api". Highest precedence.
	APIBaseURL string `koanf:"api_base_url"`

	// BackendHost derives the API base as http://<host>/api when no
	// explicit APIBaseURL is set.
	BackendHost string `koanf:"backend_host"`

	// Username and Password are the fixed dashboard credentials used by
	// the session manager. Credential issuance itself is external.
	Username string `koanf:"username"`
	Password string `koanf:"password"`

	// PollIntervalMS sets the job list poll cadence.
	PollIntervalMS int `koanf:"poll_interval_ms"`

	// HTTPTimeoutMS bounds a single backend request.
	HTTPTimeoutMS int `koanf:"http_timeout_ms"`

	// MetricsAddr, when non-empty, serves Prometheus metrics during watch
	// mode, e.g. ":9091".
	MetricsAddr string `koanf:"metrics_addr"`

	// PreviewAsset is the fixed artifact name looked up for the processed
	// preview video.
	PreviewAsset string `koanf:"preview_asset"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		Username:       "admin",
		Password:       "admin",
		PollIntervalMS: 5000,
		HTTPTimeoutMS:  15000,
		PreviewAsset:   "preview_tracking.mp4",
	}
}

// APIBase resolves the backend base URL through the precedence chain:
// explicit override, derived from the configured host, fixed default.
func (c *Config) APIBase() string {
	if u := strings.TrimSpace(c.APIBaseURL); u != "" {
		return strings.TrimRight(u, "/")
	}
	if h := strings.TrimSpace(c.BackendHost); h != "" {
		return fmt.Sprintf("http://%s/api", strings.TrimRight(h, "/"))
	}
	return DefaultAPIBase
}

// PollInterval returns the poll cadence as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// HTTPTimeout returns the per-request timeout as a duration.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutMS) * time.Millisecond
}
