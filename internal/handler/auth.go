// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/feddict/feddict/internal/apiclient"
	"github.com/feddict/feddict/internal/auth"
	"github.com/feddict/feddict/internal/middleware"
	"github.com/feddict/feddict/internal/model"
	"github.com/feddict/feddict/internal/render"
	"github.com/feddict/feddict/internal/service"
)

// AuthHandler handles the admin login and logout routes.
type AuthHandler struct {
	renderer        *render.Renderer
	sessionManager  *scs.SessionManager
	eventService    *service.EventService
	loginProtection *middleware.LoginProtection
	logger          *slog.Logger
}

// NewAuthHandler creates a new AuthHandler. lp may be nil.
func NewAuthHandler(renderer *render.Renderer, sm *scs.SessionManager, events *service.EventService, lp *middleware.LoginProtection, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		renderer:        renderer,
		sessionManager:  sm,
		eventService:    events,
		loginProtection: lp,
		logger:          logger,
	}
}

// LoginPageData holds data for the login template.
type LoginPageData struct {
	Username string
	Next     string
	Errors   *model.ValidationError
}

// LoginForm renders the login page. Authenticated admins go straight to
// the dashboard.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if middleware.IsAuthenticated(r) {
		http.Redirect(w, r, redirectAdmin, http.StatusSeeOther)
		return
	}
	h.renderLogin(w, r, http.StatusOK, LoginPageData{Next: safeNext(r.URL.Query().Get("next"))})
}

func (h *AuthHandler) renderLogin(w http.ResponseWriter, r *http.Request, status int, data LoginPageData) {
	renderOrError(w, r, h.renderer, status, tmplLogin, render.TemplateData{
		Title: "Admin login",
		Data:  data,
	})
}

// Login handles the login form submission. The credential is verified
// against the backend before the session counts as authenticated.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectLogin) {
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	next := safeNext(r.FormValue("next"))
	data := LoginPageData{Username: username, Next: next}
	ctx := r.Context()
	clientIP := middleware.ClientIP(r)

	if h.loginProtection != nil && username != "" {
		if locked, remaining := h.loginProtection.IsLocked(username); locked {
			_ = h.eventService.LogAuthEvent(ctx, model.EventLevelWarning, "Login attempt on locked account", username, map[string]any{"ip": clientIP})
			flashError(w, r, h.renderer, redirectLogin,
				fmt.Sprintf("Too many failed attempts. Try again in %s.", formatDuration(remaining)))
			return
		}
	}

	sess := middleware.GetSession(r)
	err := sess.Login(ctx, username, password)

	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		data.Errors = verr
		h.renderLogin(w, r, http.StatusUnprocessableEntity, data)
		return

	case errors.Is(err, auth.ErrInvalidCredentials):
		_ = h.eventService.LogAuthEvent(ctx, model.EventLevelWarning, "Login failed: invalid credentials", username, map[string]any{"ip": clientIP})
		if h.loginProtection != nil {
			if locked, lockDuration := h.loginProtection.RecordFailedAttempt(username); locked {
				_ = h.eventService.LogAuthEvent(ctx, model.EventLevelWarning, "Account locked due to failed attempts", username, map[string]any{"duration": lockDuration.String()})
				flashError(w, r, h.renderer, redirectLogin,
					fmt.Sprintf("Too many failed attempts. Try again in %s.", formatDuration(lockDuration)))
				return
			}
			if remaining := h.loginProtection.RemainingAttempts(username); remaining > 0 && remaining <= 3 {
				flashError(w, r, h.renderer, redirectLogin,
					fmt.Sprintf("Invalid username or password. %d attempts remaining.", remaining))
				return
			}
		}
		flashError(w, r, h.renderer, redirectLogin, "Invalid username or password")
		return

	case err != nil:
		h.logger.Error("login failed", "username", username, "error", err)
		flashError(w, r, h.renderer, redirectLogin, apiclient.UserMessage(err, "Login failed"))
		return
	}

	if h.loginProtection != nil {
		h.loginProtection.RecordSuccessfulLogin(username)
	}

	// Regenerate session ID to prevent session fixation
	if err := h.sessionManager.RenewToken(ctx); err != nil {
		logAndInternalError(w, "session renewal error", "error", err)
		return
	}

	_ = h.eventService.LogAuthEvent(ctx, model.EventLevelInfo, "Admin logged in", username, map[string]any{"ip": clientIP})
	flashSuccess(w, r, h.renderer, next, "Welcome back, "+username)
}

// Logout clears the stored credential.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r)
	username := sess.Username()

	if err := sess.Logout(r.Context()); err != nil {
		h.logger.Error("session clear error", "error", err)
	}
	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		h.logger.Error("session renewal error", "error", err)
	}
	if username != "" {
		_ = h.eventService.LogAuthEvent(r.Context(), model.EventLevelInfo, "Admin logged out", username, nil)
	}

	flashAndRedirect(w, r, h.renderer, redirectRoot, "You have been logged out", render.FlashInfo)
}

// safeNext accepts only local absolute paths as a post-login target.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return redirectAdmin
	}
	return next
}

// formatDuration renders a lockout duration in whole minutes or seconds.
func formatDuration(d time.Duration) string {
	if d >= time.Minute {
		m := int((d + time.Minute - 1) / time.Minute)
		if m == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", m)
	}
	s := int((d + time.Second - 1) / time.Second)
	if s <= 1 {
		return "1 second"
	}
	return fmt.Sprintf("%d seconds", s)
}
