// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/robfig/cron/v3"
)

// knownWeakSecrets contains default/example secrets that must be rejected in production.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the web server configuration loaded from environment variables.
type Config struct {
	APIURL        string        `env:"FEDDICT_API_URL" envDefault:"https://feddict-api.onrender.com"`
	APITimeout    time.Duration `env:"FEDDICT_API_TIMEOUT" envDefault:"5s"`
	SessionSecret string        `env:"FEDDICT_SESSION_SECRET,required"`
	DBPath        string        `env:"FEDDICT_DB_PATH" envDefault:"./data/feddict.db"`
	ServerHost    string        `env:"FEDDICT_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int           `env:"FEDDICT_SERVER_PORT" envDefault:"8080"`
	Env           string        `env:"FEDDICT_ENV" envDefault:"development"`
	LogLevel      string        `env:"FEDDICT_LOG_LEVEL" envDefault:"info"`

	// Listing
	PerPage         int `env:"FEDDICT_PER_PAGE" envDefault:"10"`
	SuggestionLimit int `env:"FEDDICT_SUGGESTION_LIMIT" envDefault:"5"`

	// Cache configuration (Redis is optional; memory is used otherwise)
	RedisURL    string `env:"FEDDICT_REDIS_URL"`
	CachePrefix string `env:"FEDDICT_CACHE_PREFIX" envDefault:"feddict:"`
	CacheTTL    int    `env:"FEDDICT_CACHE_TTL" envDefault:"300"` // seconds

	// Scheduler
	RefreshSchedule    string `env:"FEDDICT_REFRESH_SCHEDULE" envDefault:"*/10 * * * *"`
	EventRetentionDays int    `env:"FEDDICT_EVENT_RETENTION_DAYS" envDefault:"30"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// CacheTTLDuration returns CacheTTL as a duration.
func (c Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// EventRetention returns how long persisted events are kept.
func (c Config) EventRetention() time.Duration {
	return time.Duration(c.EventRetentionDays) * 24 * time.Hour
}

// SlogLevel maps LogLevel to a slog.Level. Unknown values fall back to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
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

// MinSessionSecretLength is the minimum required length for the session secret.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Warn about low-entropy secrets
	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("FEDDICT_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.SessionSecret) < MinSessionSecretLength {
		return fmt.Errorf("FEDDICT_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(c.SessionSecret))
	}

	for _, weak := range knownWeakSecrets {
		if c.SessionSecret == weak {
			return fmt.Errorf("FEDDICT_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if c.Env != "development" && c.Env != "production" {
		return fmt.Errorf("FEDDICT_ENV must be development or production, got %q", c.Env)
	}
	if c.APITimeout <= 0 {
		return fmt.Errorf("FEDDICT_API_TIMEOUT must be positive, got %s", c.APITimeout)
	}
	if c.PerPage < 1 || c.PerPage > 100 {
		return fmt.Errorf("FEDDICT_PER_PAGE must be between 1 and 100, got %d", c.PerPage)
	}
	if c.SuggestionLimit < 1 {
		return fmt.Errorf("FEDDICT_SUGGESTION_LIMIT must be positive, got %d", c.SuggestionLimit)
	}
	if c.RefreshSchedule != "" {
		if _, err := cron.ParseStandard(c.RefreshSchedule); err != nil {
			return fmt.Errorf("FEDDICT_REFRESH_SCHEDULE: %w", err)
		}
	}
	return nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
