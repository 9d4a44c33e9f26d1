// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feddict/feddict/internal/auth"
	"github.com/feddict/feddict/internal/model"
)

type fakeSource struct {
	mu         sync.Mutex
	categories []string
	calls      map[string]int
	creds      []auth.Credential
	documents  int
	statsErr   error
}

func newFakeSource(categories ...string) *fakeSource {
	return &fakeSource{categories: categories, calls: map[string]int{}, documents: 42}
}

func (s *fakeSource) count(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *fakeSource) Categories(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["categories"]++
	return append([]string(nil), s.categories...), nil
}

func (s *fakeSource) Stats(_ context.Context, cred auth.Credential) (*model.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["stats"]++
	s.creds = append(s.creds, cred)
	if s.statsErr != nil {
		return nil, s.statsErr
	}
	return &model.Stats{DocumentCount: s.documents}, nil
}

func (s *fakeSource) Root(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["root"]++
	return "FedDict API is running", nil
}

func (s *fakeSource) setCategories(c ...string) {
	s.mu.Lock()
	s.categories = c
	s.mu.Unlock()
}

func backends(t *testing.T) map[string]Cacher {
	t.Helper()
	mem := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = mem.Close() })

	s := miniredis.RunT(t)
	opts := DefaultRedisCacheOptions()
	opts.URL = "redis://" + s.Addr()
	rc, err := NewRedisCache(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })

	return map[string]Cacher{"memory": mem, "redis": rc}
}

func TestGlossary_ReadThroughAndInvalidate(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			src := newFakeSource("Networking", "Security")
			g := NewGlossary(src, backend, time.Minute, nil)
			defer g.Close()
			ctx := context.Background()

			for range 3 {
				cats, err := g.Categories(ctx)
				require.NoError(t, err)
				assert.Equal(t, []string{"Networking", "Security"}, cats)
			}
			assert.Equal(t, 1, src.count("categories"))

			cred := auth.NewCredential("admin", "pw")
			st, err := g.Stats(ctx, cred)
			require.NoError(t, err)
			assert.Equal(t, 42, st.DocumentCount)
			_, _ = g.Stats(ctx, cred)
			assert.Equal(t, 1, src.count("stats"))

			src.setCategories("Networking", "Protocols", "Security")
			g.Refresh()

			cats, err := g.Categories(ctx)
			require.NoError(t, err)
			assert.Len(t, cats, 3)
			assert.Equal(t, 2, src.count("categories"))
			_, _ = g.Stats(ctx, cred)
			assert.Equal(t, 2, src.count("stats"))
		})
	}
}

func TestGlossary_ReloadStats(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			src := newFakeSource()
			g := NewGlossary(src, backend, time.Minute, nil)
			defer g.Close()
			ctx := context.Background()
			alice := auth.NewCredential("alice", "pw")
			bob := auth.NewCredential("bob", "pw")

			_, err := g.Stats(ctx, alice)
			require.NoError(t, err)

			src.mu.Lock()
			src.documents = 7
			src.mu.Unlock()

			st, err := g.ReloadStats(ctx, bob)
			require.NoError(t, err)
			assert.Equal(t, 7, st.DocumentCount)
			assert.Equal(t, 2, src.count("stats"), "reload bypasses a cached value")
			assert.Equal(t, bob, src.creds[1])

			st, err = g.Stats(ctx, alice)
			require.NoError(t, err)
			assert.Equal(t, 7, st.DocumentCount, "reload refreshes the cache")
			assert.Equal(t, 2, src.count("stats"))

			src.mu.Lock()
			src.statsErr = errors.New("401 unauthorized")
			src.mu.Unlock()

			_, err = g.ReloadStats(ctx, bob)
			require.Error(t, err)
			st, err = g.Stats(ctx, alice)
			require.NoError(t, err)
			assert.Equal(t, 7, st.DocumentCount, "a failed reload keeps the cached value")
		})
	}
}

func TestGlossary_Root(t *testing.T) {
	src := newFakeSource()
	mem := NewMemoryCache(MemoryCacheOptions{})
	defer func() { _ = mem.Close() }()
	g := NewGlossary(src, mem, time.Minute, nil)

	msg, err := g.Root(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "FedDict API is running", msg)
	_, _ = g.Root(context.Background())
	assert.Equal(t, 1, src.count("root"))
}

func TestGlossary_RefreshAfter(t *testing.T) {
	src := newFakeSource("A")
	mem := NewMemoryCache(MemoryCacheOptions{})
	defer func() { _ = mem.Close() }()
	g := NewGlossary(src, mem, time.Minute, nil)
	defer g.Close()
	ctx := context.Background()

	_, _ = g.Categories(ctx)
	g.RefreshAfter(50 * time.Millisecond)
	_, _ = g.Categories(ctx)
	assert.Equal(t, 2, src.count("categories"), "RefreshAfter invalidates immediately")

	assert.Eventually(t, func() bool {
		has, _ := mem.Has(ctx, KeyCategories)
		return !has
	}, time.Second, 10*time.Millisecond, "and again after the delay")
}

func TestGlossary_CloseStopsDelayedRefresh(t *testing.T) {
	src := newFakeSource("A")
	mem := NewMemoryCache(MemoryCacheOptions{})
	defer func() { _ = mem.Close() }()
	g := NewGlossary(src, mem, time.Minute, nil)
	ctx := context.Background()

	g.RefreshAfter(30 * time.Millisecond)
	_, _ = g.Categories(ctx)
	g.Close()

	time.Sleep(80 * time.Millisecond)
	has, _ := mem.Has(ctx, KeyCategories)
	assert.True(t, has, "no refresh fires after Close")
}

func TestGlossary_Warm(t *testing.T) {
	src := newFakeSource("A")
	mem := NewMemoryCache(MemoryCacheOptions{})
	defer func() { _ = mem.Close() }()
	g := NewGlossary(src, mem, time.Minute, nil)
	ctx := context.Background()

	_, _ = g.Categories(ctx)
	src.setCategories("A", "B")
	require.NoError(t, g.Warm(ctx))

	cats, _ := g.Categories(ctx)
	assert.Equal(t, []string{"A", "B"}, cats)
	assert.Equal(t, 2, src.count("categories"))

	st, ok := g.CacheStats()
	require.True(t, ok)
	assert.Equal(t, "memory", st.Backend)
}
