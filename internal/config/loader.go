package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, .env, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. .env in the working directory (populates the process environment only)
//  3. file (YAML) if ROADLENS_CONFIG is set
//  4. env (prefix ROADLENS_)
func Load(_ context.Context) (*Config, error) {
	// .env is optional; a missing file is not an error.
	_ = godotenv.Load()

	base := New()

	k := koanf.New(".")

	if path := os.Getenv("ROADLENS_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: ROADLENS_API_BASE_URL, ROADLENS_POLL_INTERVAL_MS, ...
	// Map env keys like ROADLENS_API_BASE_URL -> api_base_url (flat keys).
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("ROADLENS_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "roadlens_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case strings.TrimSpace(c.Username) == "":
		return fmt.Errorf("%w: username must not be empty", ErrInvalidConfig)
	case c.PollIntervalMS <= 0:
		return fmt.Errorf("%w: poll_interval_ms must be positive", ErrInvalidConfig)
	case c.HTTPTimeoutMS <= 0:
		return fmt.Errorf("%w: http_timeout_ms must be positive", ErrInvalidConfig)
	case strings.TrimSpace(c.PreviewAsset) == "":
		return fmt.Errorf("%w: preview_asset must not be empty", ErrInvalidConfig)
	}
	return nil
}
