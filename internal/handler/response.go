// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/feddict/feddict/internal/admin"
	"github.com/feddict/feddict/internal/apiclient"
	"github.com/feddict/feddict/internal/render"
)

// flashAndRedirect sets a flash message and redirects with 303.
func flashAndRedirect(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, url, message, messageType string) {
	renderer.SetFlash(r, message, messageType)
	http.Redirect(w, r, url, http.StatusSeeOther)
}

func flashError(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, url, message string) {
	flashAndRedirect(w, r, renderer, url, message, render.FlashError)
}

func flashSuccess(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, url, message string) {
	flashAndRedirect(w, r, renderer, url, message, render.FlashSuccess)
}

// parseFormOrRedirect parses the request form and redirects with an error
// message on failure.
func parseFormOrRedirect(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, redirectURL string) bool {
	if err := r.ParseForm(); err != nil {
		flashError(w, r, renderer, redirectURL, "Invalid form data")
		return false
	}
	return true
}

// logAndInternalError logs an error and writes a 500 response.
func logAndInternalError(w http.ResponseWriter, logMsg string, args ...any) {
	slog.Error(logMsg, args...)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// renderOrError renders a page and turns a template failure into a 500.
func renderOrError(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, status int, name string, data render.TemplateData) {
	if err := renderer.RenderStatus(w, r, status, name, data); err != nil {
		logAndInternalError(w, "failed to render template", "template", name, "error", err)
	}
}

// sessionGone reports whether err means the admin must log in again, and
// if so redirects to the login page. The admin service has already
// invalidated the session when the backend answered 401.
func sessionGone(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, err error) bool {
	switch {
	case apiclient.IsUnauthorized(err):
		flashError(w, r, renderer, redirectLogin, msgSessionExpired)
		return true
	case errors.Is(err, admin.ErrNotAuthenticated):
		http.Redirect(w, r, redirectLogin, http.StatusSeeOther)
		return true
	}
	return false
}

// handleActionError routes a failed admin action: an expired session goes
// to the login page, anything else becomes a flash on redirectURL.
func handleActionError(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, redirectURL, fallback string, err error) {
	if sessionGone(w, r, renderer, err) {
		return
	}
	flashError(w, r, renderer, redirectURL, apiclient.UserMessage(err, fallback))
}

// writeJSON writes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   message,
	})
}
