// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/feddict/feddict/internal/auth"
	"github.com/feddict/feddict/internal/model"
)

// Glossary cache keys.
const (
	KeyCategories = "glossary:categories"
	KeyStats      = "glossary:stats"
	KeyRoot       = "glossary:root"
)

// RootTTL bounds how long the backend status message is cached.
const RootTTL = time.Minute

// Source is the backend data the glossary cache reads through to.
type Source interface {
	Categories(ctx context.Context) ([]string, error)
	Stats(ctx context.Context, cred auth.Credential) (*model.Stats, error)
	Root(ctx context.Context) (string, error)
}

// Glossary caches slow-changing backend reads: the category list, storage
// statistics and the backend status message. Term listings are never
// cached. Mutations invalidate through Refresh and RefreshAfter.
type Glossary struct {
	src        Source
	backend    Cacher
	categories *TypedCache[[]string]
	stats      *TypedCache[model.Stats]
	root       *TypedCache[string]
	logger     *slog.Logger

	mu     sync.Mutex
	timers map[*time.Timer]struct{}
	closed bool
}

// NewGlossary creates a glossary cache over backend.
func NewGlossary(src Source, backend Cacher, ttl time.Duration, logger *slog.Logger) *Glossary {
	if logger == nil {
		logger = slog.Default()
	}
	return &Glossary{
		src:        src,
		backend:    backend,
		categories: NewTypedCache[[]string](backend, ttl),
		stats:      NewTypedCache[model.Stats](backend, ttl),
		root:       NewTypedCache[string](backend, RootTTL),
		logger:     logger,
		timers:     make(map[*time.Timer]struct{}),
	}
}

// Categories returns the distinct categories, loading them on a miss.
func (g *Glossary) Categories(ctx context.Context) ([]string, error) {
	return g.categories.GetOrLoad(ctx, KeyCategories, g.src.Categories)
}

// Stats returns storage statistics. The credential is used only on a miss.
func (g *Glossary) Stats(ctx context.Context, cred auth.Credential) (*model.Stats, error) {
	st, err := g.stats.GetOrLoad(ctx, KeyStats, func(ctx context.Context) (model.Stats, error) {
		s, err := g.src.Stats(ctx, cred)
		if err != nil {
			return model.Stats{}, err
		}
		return *s, nil
	})
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// ReloadStats fetches statistics with cred, bypassing the cache, and
// stores the result for later Stats calls. Callers that must learn whether
// cred is still accepted use it instead of Stats, whose hits never reach
// the backend.
func (g *Glossary) ReloadStats(ctx context.Context, cred auth.Credential) (*model.Stats, error) {
	s, err := g.src.Stats(ctx, cred)
	if err != nil {
		return nil, err
	}
	g.stats.Forget(KeyStats)
	if err := g.stats.Set(ctx, KeyStats, *s); err != nil {
		g.logger.Warn("caching stats failed", "error", err)
	}
	return s, nil
}

// Root returns the backend status message.
func (g *Glossary) Root(ctx context.Context) (string, error) {
	return g.root.GetOrLoad(ctx, KeyRoot, g.src.Root)
}

// Invalidate drops cached categories and statistics.
func (g *Glossary) Invalidate(ctx context.Context) {
	g.categories.Forget(KeyCategories)
	g.stats.Forget(KeyStats)
	if err := g.backend.DeleteByPrefix(ctx, "glossary:"); err != nil {
		g.logger.Warn("cache invalidation failed", "error", err)
		return
	}
	g.logger.Debug("glossary cache invalidated")
}

// Warm reloads the category list.
func (g *Glossary) Warm(ctx context.Context) error {
	g.categories.Forget(KeyCategories)
	if err := g.categories.Delete(ctx, KeyCategories); err != nil {
		return err
	}
	_, err := g.Categories(ctx)
	return err
}

// Refresh invalidates immediately. Listing views re-fetch on their next render.
func (g *Glossary) Refresh() {
	g.Invalidate(context.Background())
}

// RefreshAfter invalidates now and again after d, once the backend has
// finished processing.
func (g *Glossary) RefreshAfter(d time.Duration) {
	g.Refresh()

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	var t *time.Timer
	t = time.AfterFunc(d, func() {
		g.mu.Lock()
		_, live := g.timers[t]
		delete(g.timers, t)
		g.mu.Unlock()
		if live {
			g.Refresh()
		}
	})
	g.timers[t] = struct{}{}
}

// CacheStats reports backend statistics when available.
func (g *Glossary) CacheStats() (Stats, bool) {
	sp, ok := g.backend.(StatsProvider)
	if !ok {
		return Stats{}, false
	}
	return sp.Stats(), true
}

// Close stops pending delayed refreshes. It does not close the backend.
func (g *Glossary) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	for t := range g.timers {
		t.Stop()
		delete(g.timers, t)
	}
}
