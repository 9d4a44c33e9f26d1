// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package cliconfig reads and writes the feddict-cli YAML file, which holds
// the API location and the persisted admin credential.
package cliconfig

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/feddict/feddict/internal/apiclient"
	"github.com/feddict/feddict/internal/auth"
)

// File is the on-disk CLI configuration.
type File struct {
	APIURL        string `yaml:"api_url"`
	Timeout       string `yaml:"timeout,omitempty"`
	Username      string `yaml:"username,omitempty"`
	Credential    string `yaml:"credential,omitempty"`
	Authenticated bool   `yaml:"authenticated,omitempty"`
	LogFile       string `yaml:"log_file,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() *File {
	return &File{
		APIURL:  apiclient.DefaultBaseURL,
		Timeout: apiclient.DefaultTimeout.String(),
	}
}

// DefaultPath returns ~/.config/feddict/config.yaml (or the platform equivalent).
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".feddict", "config.yaml")
	}
	return filepath.Join(dir, "feddict", "config.yaml")
}

// Load reads the file at path. A missing file yields defaults.
// FEDDICT_API_URL and FEDDICT_API_TIMEOUT override file values.
func Load(path string) (*File, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading cli config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing cli config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	if _, err := time.ParseDuration(cfg.Timeout); err != nil {
		return nil, fmt.Errorf("invalid timeout %q: %w", cfg.Timeout, err)
	}
	return cfg, nil
}

func (f *File) applyEnvOverrides() {
	if v := os.Getenv("FEDDICT_API_URL"); v != "" {
		f.APIURL = v
	}
	if v := os.Getenv("FEDDICT_API_TIMEOUT"); v != "" {
		f.Timeout = v
	}
	if f.APIURL == "" {
		f.APIURL = apiclient.DefaultBaseURL
	}
	if f.Timeout == "" {
		f.Timeout = apiclient.DefaultTimeout.String()
	}
}

// TimeoutDuration returns the request timeout.
func (f *File) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(f.Timeout)
	if err != nil || d <= 0 {
		return apiclient.DefaultTimeout
	}
	return d
}

// Save writes the file with owner-only permissions since it holds a credential.
func (f *File) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshaling cli config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing cli config: %w", err)
	}
	return nil
}

// Store persists the auth session record in the CLI config file.
type Store struct {
	mu   sync.Mutex
	path string
	file *File
}

var _ auth.Store = (*Store)(nil)

// NewStore returns a Store that writes the session into file at path.
func NewStore(path string, file *File) *Store {
	return &Store{path: path, file: file}
}

// Load returns the persisted record.
func (s *Store) Load(_ context.Context) (auth.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return auth.Record{
		Credential:    auth.Credential(s.file.Credential),
		Authenticated: s.file.Authenticated && s.file.Credential != "",
	}, nil
}

// Save writes rec to disk.
func (s *Store) Save(_ context.Context, rec auth.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.file.Credential = string(rec.Credential)
	s.file.Username = rec.Credential.Username()
	s.file.Authenticated = rec.Authenticated
	return s.file.Save(s.path)
}

// Clear removes the credential from disk.
func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.file.Credential = ""
	s.file.Username = ""
	s.file.Authenticated = false
	return s.file.Save(s.path)
}
