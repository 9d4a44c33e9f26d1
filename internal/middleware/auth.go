// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for authentication,
// request protection, and request context handling.
package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"net/url"

	"github.com/alexedwards/scs/v2"

	"github.com/feddict/feddict/internal/auth"
	"github.com/feddict/feddict/internal/service"
	"github.com/feddict/feddict/internal/session"
)

// LoginPath is where unauthenticated admin requests are sent.
const LoginPath = "/login"

// LoadSession creates middleware that restores the admin auth session from
// the scs session and stores it in the request context. It must run inside
// sm.LoadAndSave.
func LoadSession(sm *scs.SessionManager, verifier auth.Verifier, logger *slog.Logger) func(http.Handler) http.Handler {
	store := session.NewStore(sm)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := auth.NewSession(store, verifier, logger)
			if err := sess.Restore(r.Context()); err != nil {
				logger.Error("failed to restore session", "error", err)
			}
			ctx := auth.WithSession(r.Context(), sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSession returns the auth session of the request. It never returns nil;
// requests that did not pass LoadSession get a logged-out session.
func GetSession(r *http.Request) *auth.Session {
	if s := auth.FromContext(r.Context()); s != nil {
		return s
	}
	return auth.NewSession(nil, nil, nil)
}

// IsAuthenticated reports whether the request carries a verified credential.
func IsAuthenticated(r *http.Request) bool {
	s := auth.FromContext(r.Context())
	return s != nil && s.Authenticated()
}

// RequireAdmin creates middleware that requires an authenticated session.
// Other requests are redirected to the login page with the original path
// in "next".
func RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IsAuthenticated(r) {
				target := LoginPath
				if r.Method == http.MethodGet {
					target += "?" + url.Values{"next": {r.URL.RequestURI()}}.Encode()
				}
				http.Redirect(w, r, target, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestInfo stores the client IP and request path in the context so
// event log entries can record them.
func RequestInfo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := service.WithRequestInfo(r.Context(), service.RequestInfo{
			IP:  ClientIP(r),
			URL: r.URL.Path,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientIP returns the host part of r.RemoteAddr. Run chi's RealIP first
// when the server sits behind a proxy.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
