// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

// Package config loads service configuration from defaults, an optional
// YAML file, and command line flags, in that order of precedence.
package config

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Config is the full accountd configuration.
type Config struct {
	Env string `koanf:"env"`

	Log struct {
		Level  string `koanf:"level"`
		Format string `koanf:"format"`
	} `koanf:"log"`

	HTTP struct {
		Addr            string        `koanf:"addr"`
		ReadTimeout     time.Duration `koanf:"read_timeout"`
		WriteTimeout    time.Duration `koanf:"write_timeout"`
		ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	} `koanf:"http"`

	Database struct {
		URL string `koanf:"url"`
	} `koanf:"database"`

	Auth struct {
		Secret     string        `koanf:"secret"`
		SessionTTL time.Duration `koanf:"session_ttl"`
		ResetTTL   time.Duration `koanf:"reset_ttl"`
	} `koanf:"auth"`

	SMTP struct {
		Host     string        `koanf:"host"`
		Port     int           `koanf:"port"`
		Username string        `koanf:"username"`
		Password string        `koanf:"password"`
		From     string        `koanf:"from"`
		Timeout  time.Duration `koanf:"timeout"`
	} `koanf:"smtp"`

	// PublicBaseURL is the externally reachable base of the service,
	// used to build password reset links.
	PublicBaseURL string `koanf:"public_base_url"`

	Observability struct {
		Addr string `koanf:"addr"`
	} `koanf:"observability"`
}

// Default returns the configuration used when neither file nor flags
// override a key.
func Default() Config {
	var cfg Config
	cfg.Env = "development"
	cfg.Log.Level = "info"
	cfg.Log.Format = "json"
	cfg.HTTP.Addr = ":8080"
	cfg.HTTP.ReadTimeout = 10 * time.Second
	cfg.HTTP.WriteTimeout = 10 * time.Second
	cfg.HTTP.ShutdownTimeout = 15 * time.Second
	cfg.Auth.SessionTTL = 24 * time.Hour
	cfg.Auth.ResetTTL = time.Hour
	cfg.SMTP.Port = 587
	cfg.SMTP.Timeout = 10 * time.Second
	cfg.Observability.Addr = ":9090"
	return cfg
}

// Load builds the configuration. path may be empty to skip the file
// layer; a named file that does not exist is an error. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, oops.Code("CONFIG_FILE_MISSING").
				With("path", path).
				Wrap(err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_PARSE_FAILED").
				With("path", path).
				Wrap(err)
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_UNMARSHAL_FAILED").Wrap(err)
	}
	return &cfg, nil
}

// Validate checks the keys the service needs to run. Commands that only
// touch the database skip this and check Database.URL themselves.
func (c *Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.Database.URL) == "" {
		missing = append(missing, "database.url")
	}
	if strings.TrimSpace(c.Auth.Secret) == "" {
		missing = append(missing, "auth.secret")
	}
	if strings.TrimSpace(c.PublicBaseURL) == "" {
		missing = append(missing, "public_base_url")
	}
	if len(missing) > 0 {
		return oops.Code("CONFIG_INVALID").
			With("missing", missing).
			Errorf("missing required config keys: %s", strings.Join(missing, ", "))
	}
	if c.Auth.SessionTTL <= 0 || c.Auth.ResetTTL <= 0 {
		return oops.Code("CONFIG_INVALID").
			Errorf("auth TTLs must be positive")
	}
	return nil
}

// LogLevel maps the configured level string to a slog.Level. Unknown
// values fall back to info.
func (c *Config) LogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
