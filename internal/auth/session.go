// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/feddict/feddict/internal/model"
)

// ErrInvalidCredentials is returned by Login when the backend rejects the
// username/password pair.
var ErrInvalidCredentials = errors.New("invalid username or password")

// Verifier checks a credential against the backend.
type Verifier interface {
	VerifyAuth(ctx context.Context, cred Credential) (bool, error)
}

// Session is the admin authentication state for one user.
// The in-memory record is the source of truth; the Store mirrors it.
type Session struct {
	mu       sync.RWMutex
	rec      Record
	store    Store
	verifier Verifier
	logger   *slog.Logger
}

// NewSession creates a logged-out session. Call Restore to load a
// previously persisted record.
func NewSession(store Store, verifier Verifier, logger *slog.Logger) *Session {
	if store == nil {
		store = NewMemoryStore()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{store: store, verifier: verifier, logger: logger}
}

// Restore loads the persisted record into memory.
func (s *Session) Restore(ctx context.Context) error {
	rec, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading session: %w", err)
	}
	if rec.Credential.IsZero() {
		rec.Authenticated = false
	}
	s.mu.Lock()
	s.rec = rec
	s.mu.Unlock()
	return nil
}

// Login stores the credential and verifies it. The session becomes
// authenticated only when the backend accepts it; otherwise the stored
// credential is cleared and the session stays logged out.
func (s *Session) Login(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		verr := &model.ValidationError{}
		if username == "" {
			verr.Add("username", "Username is required")
		}
		if password == "" {
			verr.Add("password", "Password is required")
		}
		return verr
	}

	cred := NewCredential(username, password)
	s.mu.Lock()
	s.rec = Record{Credential: cred}
	s.mu.Unlock()
	if err := s.store.Save(ctx, Record{Credential: cred}); err != nil {
		return fmt.Errorf("saving credential: %w", err)
	}

	ok, err := s.verifier.VerifyAuth(ctx, cred)
	if err != nil || !ok {
		s.clear(ctx)
		if err != nil {
			s.logger.Warn("login verification failed", "username", username, "error", err)
			return fmt.Errorf("verifying credential: %w", err)
		}
		s.logger.Warn("login rejected", "username", username)
		return ErrInvalidCredentials
	}

	rec := Record{Credential: cred, Authenticated: true}
	s.mu.Lock()
	s.rec = rec
	s.mu.Unlock()
	if err := s.store.Save(ctx, rec); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	s.logger.Info("admin logged in", "username", username)
	return nil
}

// Logout clears the credential from memory and storage.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.rec = Record{}
	s.mu.Unlock()
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

// Verify re-checks the stored credential. Rejections and network failures
// both resolve to false and invalidate the session.
func (s *Session) Verify(ctx context.Context) bool {
	s.mu.RLock()
	cred := s.rec.Credential
	s.mu.RUnlock()
	if cred.IsZero() {
		return false
	}

	ok, err := s.verifier.VerifyAuth(ctx, cred)
	if err != nil {
		s.logger.Warn("credential verification failed", "error", err)
	}
	if err != nil || !ok {
		s.clear(ctx)
		return false
	}

	s.mu.Lock()
	s.rec.Authenticated = true
	rec := s.rec
	s.mu.Unlock()
	if err := s.store.Save(ctx, rec); err != nil {
		s.logger.Error("failed to persist session", "error", err)
	}
	return true
}

// Invalidate logs the session out after the backend answered 401.
func (s *Session) Invalidate(ctx context.Context) {
	s.logger.Warn("session invalidated by backend", "username", s.Username())
	s.clear(ctx)
}

func (s *Session) clear(ctx context.Context) {
	s.mu.Lock()
	s.rec = Record{}
	s.mu.Unlock()
	if err := s.store.Clear(ctx); err != nil {
		s.logger.Error("failed to clear session", "error", err)
	}
}

// Authenticated reports whether the session holds a verified credential.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec.Authenticated && !s.rec.Credential.IsZero()
}

// Credential returns the stored credential when authenticated.
func (s *Session) Credential() (Credential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.rec.Authenticated || s.rec.Credential.IsZero() {
		return "", false
	}
	return s.rec.Credential, true
}

// Username returns the user name of the stored credential.
func (s *Session) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec.Credential.Username()
}

type ctxKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session stored by WithSession, or nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(ctxKey{}).(*Session)
	return s
}
