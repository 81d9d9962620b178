// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meshwork Contributors

// Package config loads server configuration from a YAML file, command-line
// flags, and environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/meshwork/meshwork/internal/xdg"
)

// Defaults.
const (
	DefaultHTTPAddr    = ":8080"
	DefaultMetricsAddr = "127.0.0.1:9100"
	DefaultLogFormat   = "json"
	DefaultTokenTTL    = 24 * time.Hour
)

// Config holds the server configuration.
type Config struct {
	// HTTPAddr is the listen address for the API server.
	HTTPAddr string `koanf:"http_addr"`
	// MetricsAddr is the listen address for the observability server.
	MetricsAddr string `koanf:"metrics_addr"`
	// DatabaseURL is the PostgreSQL connection string. Taken from the
	// DATABASE_URL environment variable when set; it never belongs in a
	// config file committed to version control.
	DatabaseURL string `koanf:"database_url"`
	// JWTSecret signs session tokens. Taken from MESHWORK_JWT_SECRET when
	// set.
	JWTSecret string `koanf:"jwt_secret"`
	// TokenTTL is the session token lifetime.
	TokenTTL time.Duration `koanf:"token_ttl"`
	// LogFormat is "json" or "text".
	LogFormat string `koanf:"log_format"`
}

// Load builds a Config from the optional YAML file at path, the given flag
// set, and environment variables. Precedence: defaults < file < flags <
// environment. An empty path falls back to the XDG config location.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]any{
		"http_addr":    DefaultHTTPAddr,
		"metrics_addr": DefaultMetricsAddr,
		"log_format":   DefaultLogFormat,
		"token_ttl":    DefaultTokenTTL.String(),
	}
	for key, val := range defaults {
		if err := k.Set(key, val); err != nil {
			return nil, oops.With("operation", "set config default").With("key", key).Wrap(err)
		}
	}

	if path == "" {
		path = xdg.ConfigFile()
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, oops.Code("CONFIG_FILE_INVALID").With("path", path).Wrap(err)
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_INVALID").Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_UNMARSHAL_FAILED").Wrap(err)
	}

	// Secrets come from the environment and beat everything else.
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("MESHWORK_JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}

	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = DefaultTokenTTL
	}

	return &cfg, nil
}

// Validate checks that required settings are present for serving.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return oops.Code("CONFIG_MISSING").Errorf("database URL is required (set DATABASE_URL)")
	}
	if c.JWTSecret == "" {
		return oops.Code("CONFIG_MISSING").Errorf("JWT secret is required (set MESHWORK_JWT_SECRET)")
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return oops.Code("CONFIG_INVALID").Errorf("log format must be json or text, got %q", c.LogFormat)
	}
	return nil
}
