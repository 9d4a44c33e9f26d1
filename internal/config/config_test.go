// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"log/slog"
	"os"
	"testing"
	"time"
)

const testSecret = "test-secret-key-32-bytes-long!!!"

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set %s: %v", key, err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()
	setEnv(t, "FEDDICT_SESSION_SECRET", testSecret)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.APIURL != "https://feddict-api.onrender.com" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.APITimeout != 5*time.Second {
		t.Errorf("APITimeout = %s, want 5s", cfg.APITimeout)
	}
	if cfg.DBPath != "./data/feddict.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "./data/feddict.db")
	}
	if cfg.ServerPort != 8080 {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, 8080)
	}
	if cfg.Env != "development" {
		t.Errorf("Env = %q, want %q", cfg.Env, "development")
	}
	if cfg.PerPage != 10 {
		t.Errorf("PerPage = %d, want 10", cfg.PerPage)
	}
	if cfg.SuggestionLimit != 5 {
		t.Errorf("SuggestionLimit = %d, want 5", cfg.SuggestionLimit)
	}
	if cfg.CachePrefix != "feddict:" {
		t.Errorf("CachePrefix = %q, want %q", cfg.CachePrefix, "feddict:")
	}
	if cfg.CacheTTLDuration() != 5*time.Minute {
		t.Errorf("CacheTTLDuration() = %s, want 5m", cfg.CacheTTLDuration())
	}
	if cfg.EventRetention() != 30*24*time.Hour {
		t.Errorf("EventRetention() = %s", cfg.EventRetention())
	}
	if cfg.UseRedisCache() {
		t.Error("UseRedisCache() = true without FEDDICT_REDIS_URL")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	os.Clearenv()
	setEnv(t, "FEDDICT_SESSION_SECRET", testSecret)
	setEnv(t, "FEDDICT_API_URL", "http://localhost:8000")
	setEnv(t, "FEDDICT_API_TIMEOUT", "2s")
	setEnv(t, "FEDDICT_ENV", "production")
	setEnv(t, "FEDDICT_PER_PAGE", "25")
	setEnv(t, "FEDDICT_REDIS_URL", "redis://localhost:6379/0")
	setEnv(t, "FEDDICT_REFRESH_SCHEDULE", "@every 5m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.APIURL != "http://localhost:8000" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.APITimeout != 2*time.Second {
		t.Errorf("APITimeout = %s, want 2s", cfg.APITimeout)
	}
	if cfg.IsDevelopment() {
		t.Error("IsDevelopment() = true for production")
	}
	if cfg.PerPage != 25 {
		t.Errorf("PerPage = %d, want 25", cfg.PerPage)
	}
	if !cfg.UseRedisCache() {
		t.Error("UseRedisCache() = false with FEDDICT_REDIS_URL set")
	}
}

func TestLoad_RequiredSessionSecret(t *testing.T) {
	os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() should fail when FEDDICT_SESSION_SECRET is not set")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"short secret", "FEDDICT_SESSION_SECRET", "1234567890123456789012345678901"},
		{"weak secret", "FEDDICT_SESSION_SECRET", "change-me-to-32-byte-secret-key!"},
		{"unknown env", "FEDDICT_ENV", "staging"},
		{"zero timeout", "FEDDICT_API_TIMEOUT", "0s"},
		{"per page too large", "FEDDICT_PER_PAGE", "500"},
		{"zero suggestions", "FEDDICT_SUGGESTION_LIMIT", "0"},
		{"bad schedule", "FEDDICT_REFRESH_SCHEDULE", "every now and then"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			setEnv(t, "FEDDICT_SESSION_SECRET", testSecret)
			setEnv(t, tt.key, tt.value)

			if _, err := Load(); err == nil {
				t.Fatalf("Load() should fail with %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestConfig_ServerAddr(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"localhost", 8080, "localhost:8080"},
		{"0.0.0.0", 3000, "0.0.0.0:3000"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			cfg := Config{ServerHost: tt.host, ServerPort: tt.port}
			if got := cfg.ServerAddr(); got != tt.want {
				t.Errorf("ServerAddr() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConfig_SlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			if got := (Config{LogLevel: tt.level}).SlogLevel(); got != tt.want {
				t.Errorf("SlogLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHasMinimumEntropy(t *testing.T) {
	tests := []struct {
		secret string
		want   bool
	}{
		{"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", false},
		{"abcdefghABCDEFGHabcdefghABCDEFGH", false},
		{"abcdefghABCDEFGH1234567812345678", true},
		{testSecret, true},
	}

	for _, tt := range tests {
		if got := hasMinimumEntropy(tt.secret); got != tt.want {
			t.Errorf("hasMinimumEntropy(%q) = %v, want %v", tt.secret, got, tt.want)
		}
	}
}
