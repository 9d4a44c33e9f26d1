// Package session configures the scs session manager and stores the admin
// credential in the web session.
package session

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"

	"github.com/feddict/feddict/internal/auth"
)

// Session keys.
const (
	KeyCredential    = "credential"
	KeyAuthenticated = "authenticated"
)

// New creates a new session manager configured with SQLite store.
func New(db *sql.DB, isDev bool) *scs.SessionManager {
	sm := scs.New()
	sm.Store = sqlite3store.New(db)

	sm.Lifetime = 24 * time.Hour
	sm.IdleTimeout = 2 * time.Hour
	sm.Cookie.HttpOnly = true
	sm.Cookie.Path = "/"
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = !isDev
	if !isDev {
		// __Host- requires Secure, Path=/ and no Domain.
		sm.Cookie.Name = "__Host-session"
	}

	return sm
}

// Store keeps an auth.Record in the web session of the current request.
// It must be used with a context that went through LoadAndSave.
type Store struct {
	sm *scs.SessionManager
}

var _ auth.Store = (*Store)(nil)

// NewStore returns a Store over sm.
func NewStore(sm *scs.SessionManager) *Store {
	return &Store{sm: sm}
}

// Load reads the record from the session.
func (s *Store) Load(ctx context.Context) (auth.Record, error) {
	return auth.Record{
		Credential:    auth.Credential(s.sm.GetString(ctx, KeyCredential)),
		Authenticated: s.sm.GetBool(ctx, KeyAuthenticated),
	}, nil
}

// Save writes the record. The session token is renewed when the record
// becomes authenticated.
func (s *Store) Save(ctx context.Context, rec auth.Record) error {
	if rec.Authenticated && !s.sm.GetBool(ctx, KeyAuthenticated) {
		if err := s.sm.RenewToken(ctx); err != nil {
			return fmt.Errorf("renewing session token: %w", err)
		}
	}
	s.sm.Put(ctx, KeyCredential, string(rec.Credential))
	s.sm.Put(ctx, KeyAuthenticated, rec.Authenticated)
	return nil
}

// Clear removes the credential and renews the token.
func (s *Store) Clear(ctx context.Context) error {
	s.sm.Remove(ctx, KeyCredential)
	s.sm.Remove(ctx, KeyAuthenticated)
	if err := s.sm.RenewToken(ctx); err != nil {
		return fmt.Errorf("renewing session token: %w", err)
	}
	return nil
}
