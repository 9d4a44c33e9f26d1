// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package browse

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageWindow(t *testing.T) {
	tests := []struct {
		name    string
		current int
		pages   int
		want    []int
	}{
		{"no pages", 1, 0, nil},
		{"single page", 1, 1, []int{1}},
		{"few pages", 2, 4, []int{1, 2, 3, 4}},
		{"start of many", 1, 10, []int{1, 2, 3, 0, 10}},
		{"middle of many", 5, 10, []int{1, 0, 3, 4, 5, 6, 7, 0, 10}},
		{"adjacent to first", 4, 10, []int{1, 2, 3, 4, 5, 6, 0, 10}},
		{"end of many", 10, 10, []int{1, 0, 8, 9, 10}},
		{"clamped above", 99, 5, []int{1, 0, 3, 4, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PageWindow(tt.current, tt.pages))
		})
	}
}

func TestClampPage(t *testing.T) {
	tests := []struct {
		name  string
		page  int
		pages int
		want  int
	}{
		{"valid page", 3, 5, 3},
		{"first page", 1, 5, 1},
		{"last page", 5, 5, 5},
		{"below minimum", 0, 5, 1},
		{"negative page", -1, 5, 1},
		{"above maximum", 10, 5, 5},
		{"no pages", 3, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampPage(tt.page, tt.pages); got != tt.want {
				t.Errorf("ClampPage(%d, %d) = %d, want %d", tt.page, tt.pages, got, tt.want)
			}
		})
	}
}

func TestBuildPagination(t *testing.T) {
	q := Query{Search: "proto", Category: "Networking", SortField: "term", SortOrder: "asc", Page: 2}
	p := BuildPagination(q, 5, 42, "/")

	assert.Equal(t, "Page 2 of 5", p.Label())
	assert.True(t, p.ShouldShow())
	assert.True(t, p.HasPrev)
	assert.True(t, p.HasNext)
	assert.Equal(t, "/?category=Networking&pages=5&q=proto", p.PrevURL, "page 1 is the default and omitted")
	assert.Equal(t, "/?category=Networking&page=3&pages=5&q=proto", p.NextURL)
	assert.Equal(t, "/?category=Networking&page=5&pages=5&q=proto", p.LastURL)

	require.Len(t, p.Pages, 5)
	assert.True(t, p.Pages[1].IsCurrent)

	u, err := url.Parse(p.Pages[3].URL)
	require.NoError(t, err)
	assert.Equal(t, "4", u.Query().Get(ParamPage))
	assert.Equal(t, "Networking", u.Query().Get(ParamCategory))
	assert.Equal(t, 5, KnownPages(u.Query()))

	assert.Equal(t, "proto", p.Prev.Get("prev_q"))
}

func TestBuildPaginationSinglePage(t *testing.T) {
	p := BuildPagination(DefaultQuery(), 0, 0, "/")
	assert.False(t, p.ShouldShow())
	assert.False(t, p.HasPrev)
	assert.False(t, p.HasNext)
	assert.Equal(t, "Page 1 of 1", p.Label())
	assert.Equal(t, "/", p.FirstURL)
}

func TestRetainedPagination(t *testing.T) {
	q := Query{Search: "proto", SortField: "term", SortOrder: "asc", Page: 4}

	t.Run("known page count", func(t *testing.T) {
		p := RetainedPagination(q, 5, "/")
		assert.Equal(t, "Page 4 of 5", p.Label())
		assert.True(t, p.ShouldShow())
		assert.Equal(t, 4, p.CurrentPage)
		assert.Equal(t, "/?page=5&pages=5&q=proto", p.NextURL)
	})

	tests := []struct {
		name  string
		known int
	}{
		{"unknown page count", 0},
		{"page beyond known count", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := RetainedPagination(q, tt.known, "/")
			assert.Zero(t, p.TotalPages, "no made-up page count")
			assert.False(t, p.ShouldShow())
			assert.Empty(t, p.Pages)
			assert.Equal(t, 4, p.CurrentPage)
			assert.Equal(t, "proto", p.Prev.Get("prev_q"), "search form keeps its prev fields")
		})
	}
}

func TestKnownPages(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"", 0},
		{"5", 5},
		{"0", 0},
		{"-2", 0},
		{"five", 0},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, KnownPages(url.Values{ParamPages: {tt.raw}}))
		})
	}
}
