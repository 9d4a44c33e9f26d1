// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/feddict/feddict/internal/auth"
	"github.com/feddict/feddict/internal/middleware"
	"github.com/feddict/feddict/internal/render"
	"github.com/feddict/feddict/internal/service"
)

// Deps holds everything the router needs.
type Deps struct {
	DB              *sql.DB
	API             Backend
	Verifier        auth.Verifier
	Glossary        Glossary
	Events          *service.EventService
	Renderer        *render.Renderer
	SessionManager  *scs.SessionManager
	LoginProtection *middleware.LoginProtection
	Static          fs.FS
	Logger          *slog.Logger

	CSRFKey        []byte
	IsDev          bool
	AccessLog      bool
	PerPage        int
	SuggestLimit   int
	RequestTimeout time.Duration
	PublicRPS      float64
	PublicBurst    int
}

// NewRouter builds the HTTP handler of the web UI.
func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = 30 * time.Second
	}
	if d.PublicRPS <= 0 {
		d.PublicRPS, d.PublicBurst = 10, 20
	}

	searchHandler := NewSearchHandler(d.API, d.Glossary, d.Renderer, d.Logger, d.PerPage, d.SuggestLimit)
	authHandler := NewAuthHandler(d.Renderer, d.SessionManager, d.Events, d.LoginProtection, d.Logger)
	adminHandler := NewAdminHandler(d.API, d.Glossary, d.Events, d.Renderer, d.Logger, d.PerPage)
	eventsHandler := NewEventsHandler(d.Events, d.Renderer)
	healthHandler := NewHealthHandler(d.DB, d.Glossary)

	csrfMiddleware := middleware.CSRF(middleware.DefaultCSRFConfig(d.CSRFKey, d.IsDev))
	publicRateLimiter := middleware.NewGlobalRateLimiter(d.PublicRPS, d.PublicBurst)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	if d.AccessLog {
		r.Use(chimw.Logger)
	}
	r.Use(chimw.Recoverer)
	r.Use(chimw.GetHead)
	r.Use(middleware.Timeout(d.RequestTimeout))
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(d.IsDev)))
	r.Use(middleware.RequestInfo)

	if d.Static != nil {
		r.Handle(RouteStatic, http.StripPrefix("/static/", http.FileServer(http.FS(d.Static))))
	}

	r.Group(func(r chi.Router) {
		r.Use(d.SessionManager.LoadAndSave)
		r.Use(middleware.LoadSession(d.SessionManager, d.Verifier, d.Logger))

		r.Get(RouteHealth, healthHandler.Health)

		// Public search
		r.With(publicRateLimiter.HTMLMiddleware()).Get(RouteRoot, searchHandler.Search)
		r.With(publicRateLimiter.Middleware()).Get(RouteSuggestions, searchHandler.Suggestions)

		// Auth
		r.Group(func(r chi.Router) {
			r.Use(csrfMiddleware)
			r.Get(RouteLogin, authHandler.LoginForm)
			if d.LoginProtection != nil {
				r.With(d.LoginProtection.Middleware()).Post(RouteLogin, authHandler.Login)
			} else {
				r.Post(RouteLogin, authHandler.Login)
			}
			r.Post(RouteLogout, authHandler.Logout)
		})

		// Admin
		r.Route(RouteAdmin, func(r chi.Router) {
			r.Use(csrfMiddleware)
			r.Use(middleware.RequireAdmin())

			r.Get(RouteRoot, adminHandler.Dashboard)
			r.Get(RouteEvents, eventsHandler.List)

			r.Get(RouteTerms+RouteSuffixNew, adminHandler.NewTerm)
			r.Post(RouteTerms, adminHandler.CreateTerm)
			r.Post(RouteBulkDelete, adminHandler.BulkDelete)
			r.Get(RouteTermsID+RouteSuffixEdit, adminHandler.EditTerm)
			r.Post(RouteTermsID, adminHandler.UpdateTerm) // HTML forms can't send PUT
			r.Post(RouteTermsID+RouteSuffixDel, adminHandler.DeleteTerm)

			r.Get(RouteDeleteAll, adminHandler.DeleteAllForm)
			r.Post(RouteDeleteAll, adminHandler.DeleteAll)
			r.Get(RouteUpload, adminHandler.UploadForm)
			r.Post(RouteUpload, adminHandler.Upload)
			r.Post(RouteCleanup, adminHandler.Cleanup)
		})
	})

	return r
}
