// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package browse

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feddict/feddict/internal/model"
)

func TestQueryReducerResetsPage(t *testing.T) {
	base := DefaultQuery().WithPage(4)

	tests := []struct {
		name     string
		got      Query
		wantPage int
	}{
		{"search changed", base.WithSearch("proto"), 1},
		{"search whitespace only", base.WithSearch("  "), 4},
		{"category changed", base.WithCategory("Networking"), 1},
		{"category same", base.WithCategory(""), 4},
		{"sort changed", base.WithSort(model.SortByCreated), 1},
		{"sort invalid", base.WithSort("id"), 4},
		{"order changed", base.WithOrder(model.SortDesc), 1},
		{"order invalid", base.WithOrder("sideways"), 4},
		{"toggle order", base.ToggleOrder(), 1},
		{"page change keeps filters", base.WithCategory("X").WithPage(3), 3},
		{"page below one", base.WithPage(0), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantPage, tt.got.Page)
		})
	}
}

func TestReconcile(t *testing.T) {
	prev := Query{Search: "proto", Category: "Networking", SortField: "term", SortOrder: "asc", Page: 2}

	same := prev
	same.Page = 3
	assert.Equal(t, 3, Reconcile(prev, same).Page, "pure page change is kept")

	changed := prev
	changed.Category = "Security"
	changed.Page = 3
	assert.Equal(t, 1, Reconcile(prev, changed).Page, "filter change wins over requested page")
}

func TestQueryValuesRoundTrip(t *testing.T) {
	q := Query{Search: "  proto  col ", Category: "Networking", SortField: model.SortByCreated, SortOrder: model.SortDesc, Page: 2}
	v := q.Values()

	assert.Equal(t, "proto col", v.Get(ParamSearch))
	assert.Equal(t, "created", v.Get(ParamSort))
	assert.Equal(t, "desc", v.Get(ParamOrder))
	assert.Equal(t, "2", v.Get(ParamPage))

	back := QueryFromValues(v)
	assert.Equal(t, "proto col", back.Search)
	assert.True(t, back.SameFilters(q))
	assert.Equal(t, 2, back.Page)

	assert.Empty(t, DefaultQuery().Values(), "defaults are omitted")
}

func TestQueryFromValuesInvalid(t *testing.T) {
	v := url.Values{
		ParamSort:  {"password"},
		ParamOrder: {"up"},
		ParamPage:  {"-3"},
	}
	q := QueryFromValues(v)
	assert.Equal(t, DefaultQuery(), q)
}

func TestPrevQueryFromValues(t *testing.T) {
	_, ok := PrevQueryFromValues(url.Values{ParamSearch: {"x"}})
	assert.False(t, ok)

	q := Query{Search: "tls", Category: "Security", SortField: "term", SortOrder: "asc"}
	v := q.PrevValues()
	v.Set(ParamSearch, "tls")
	v.Set(ParamCategory, "Security")
	v.Set(ParamPage, "4")

	prev, ok := PrevQueryFromValues(v)
	require.True(t, ok)
	assert.True(t, prev.SameFilters(q))

	next := QueryFromValues(v)
	assert.Equal(t, 4, Reconcile(prev, next).Page)

	v.Set(ParamCategory, "Networking")
	assert.Equal(t, 1, Reconcile(prev, QueryFromValues(v)).Page)
}

func TestQueryParams(t *testing.T) {
	q := Query{Search: " proto ", Category: "Networking", SortField: "term", SortOrder: "asc", Page: 2}
	assert.Equal(t, model.ListParams{
		Page: 2, PerPage: 10, Search: "proto", Category: "Networking", SortField: "term", SortOrder: "asc",
	}, q.Params(10))

	empty := DefaultQuery()
	assert.Equal(t, "", empty.Params(10).Search)
}

func TestValidateJump(t *testing.T) {
	tests := []struct {
		page, pages int
		wantErr     bool
	}{
		{1, 5, false},
		{5, 5, false},
		{0, 5, true},
		{6, 5, true},
		{1, 0, false},
		{2, 0, true},
	}
	for _, tt := range tests {
		err := ValidateJump(tt.page, tt.pages)
		if tt.wantErr {
			assert.Error(t, err, "page %d of %d", tt.page, tt.pages)
		} else {
			assert.NoError(t, err, "page %d of %d", tt.page, tt.pages)
		}
	}

	err := ValidateJump(9, 5)
	assert.EqualError(t, err, "Please enter a page number between 1 and 5")
}

func TestParseJump(t *testing.T) {
	n, err := ParseJump(" 3 ", 5)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = ParseJump("three", 5)
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, JumpMessage(5), verr.Field(ParamPage))
}
