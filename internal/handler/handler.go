// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler implements the HTTP handlers of the glossary web UI.
package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/feddict/feddict/internal/admin"
	"github.com/feddict/feddict/internal/auth"
	"github.com/feddict/feddict/internal/browse"
	"github.com/feddict/feddict/internal/model"
)

// Backend is the glossary API used by the web handlers.
type Backend interface {
	admin.Backend
	browse.Fetcher
}

// Glossary serves cached reference data and is told when it went stale.
type Glossary interface {
	Categories(ctx context.Context) ([]string, error)
	Stats(ctx context.Context, cred auth.Credential) (*model.Stats, error)
	ReloadStats(ctx context.Context, cred auth.Credential) (*model.Stats, error)
	Root(ctx context.Context) (string, error)
	admin.Refresher
}

// ParsePageParam returns the "page" query parameter, or 1.
func ParsePageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}
