// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alexedwards/scs/v2"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feddict/feddict/internal/auth"
	"github.com/feddict/feddict/internal/service"
	"github.com/feddict/feddict/internal/session"
)

func newTestSessionManager(t *testing.T) *scs.SessionManager {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE sessions (token TEXT PRIMARY KEY, data BLOB NOT NULL, expiry REAL NOT NULL)`)
	require.NoError(t, err)
	return session.New(db, true)
}

type staticVerifier bool

func (v staticVerifier) VerifyAuth(context.Context, auth.Credential) (bool, error) {
	return bool(v), nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRequireAdmin(t *testing.T) {
	sm := newTestSessionManager(t)
	logger := discardLogger()

	mux := http.NewServeMux()
	mux.HandleFunc("/login-as-admin", func(w http.ResponseWriter, r *http.Request) {
		err := GetSession(r).Login(r.Context(), "admin", "pw")
		require.NoError(t, err)
	})
	mux.Handle("/admin", RequireAdmin()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "hello "+GetSession(r).Username())
	})))
	handler := sm.LoadAndSave(LoadSession(sm, staticVerifier(true), logger)(mux))

	// Anonymous request is redirected with the original path.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin?page=2", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?next=%2Fadmin%3Fpage%3D2", rec.Header().Get("Location"))

	// Log in, then reuse the cookie.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login-as-admin", nil))
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello admin", rec.Body.String())
}

func TestRequireAdminPostRedirectsWithoutNext(t *testing.T) {
	handler := RequireAdmin()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/cleanup", nil))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, LoginPath, rec.Header().Get("Location"))
}

func TestGetSessionWithoutMiddleware(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	s := GetSession(r)
	require.NotNil(t, s)
	assert.False(t, s.Authenticated())
	assert.False(t, IsAuthenticated(r))
}

func TestRequestInfo(t *testing.T) {
	var got service.RequestInfo
	handler := RequestInfo(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = service.RequestInfoFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/admin/upload?x=1", nil)
	req.RemoteAddr = "203.0.113.7:51234"
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "203.0.113.7", got.IP)
	assert.Equal(t, "/admin/upload", got.URL)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		remote string
		want   string
	}{
		{"192.0.2.1:1234", "192.0.2.1"},
		{"[2001:db8::1]:443", "2001:db8::1"},
		{"192.0.2.1", "192.0.2.1"},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = tt.remote
		assert.Equal(t, tt.want, ClientIP(r), tt.remote)
	}
}
