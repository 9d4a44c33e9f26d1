// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package browse holds the search and listing state: the query reducer used
// by both front-ends, page window computation, and the debounced Controller
// used by the terminal client.
package browse

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/feddict/feddict/internal/model"
)

// URL parameter names.
const (
	ParamSearch   = "q"
	ParamCategory = "category"
	ParamSort     = "sort"
	ParamOrder    = "order"
	ParamPage     = "page"
	ParamJump     = "jump"
	// ParamPages carries the page count the client last saw.
	ParamPages = "pages"

	// prevPrefix marks hidden form fields carrying the query the page was
	// rendered with, so a submitted form can be reconciled against it.
	prevPrefix = "prev_"
)

// Query is the user-controlled part of a listing request.
type Query struct {
	Search    string
	Category  string
	SortField string
	SortOrder string
	Page      int
}

// DefaultQuery returns the initial query: no filters, sorted by term ascending.
func DefaultQuery() Query {
	return Query{SortField: model.SortByTerm, SortOrder: model.SortAsc, Page: 1}
}

// SameFilters reports whether q and o select the same result set, ignoring page.
func (q Query) SameFilters(o Query) bool {
	return NormalizeSearch(q.Search) == NormalizeSearch(o.Search) &&
		q.Category == o.Category &&
		q.SortField == o.SortField &&
		q.SortOrder == o.SortOrder
}

// WithSearch sets the search text. A change resets the page to 1.
func (q Query) WithSearch(s string) Query {
	next := q
	next.Search = s
	return Reconcile(q, next)
}

// WithCategory sets the category filter ("" for all). A change resets the page.
func (q Query) WithCategory(c string) Query {
	next := q
	next.Category = c
	return Reconcile(q, next)
}

// WithSort sets the sort field. Unknown fields are ignored.
func (q Query) WithSort(field string) Query {
	if !model.IsValidSortField(field) {
		return q
	}
	next := q
	next.SortField = field
	return Reconcile(q, next)
}

// WithOrder sets the sort order. Unknown orders are ignored.
func (q Query) WithOrder(order string) Query {
	if order != model.SortAsc && order != model.SortDesc {
		return q
	}
	next := q
	next.SortOrder = order
	return Reconcile(q, next)
}

// ToggleOrder flips between ascending and descending.
func (q Query) ToggleOrder() Query {
	if q.SortOrder == model.SortDesc {
		return q.WithOrder(model.SortAsc)
	}
	return q.WithOrder(model.SortDesc)
}

// WithPage moves to page p, keeping every filter.
func (q Query) WithPage(p int) Query {
	if p < 1 {
		p = 1
	}
	q.Page = p
	return q
}

// Reconcile returns next, with its page reset to 1 when any filter differs
// from prev. Only an explicit page change may leave the page as requested.
func Reconcile(prev, next Query) Query {
	if !prev.SameFilters(next) {
		next.Page = 1
	}
	if next.Page < 1 {
		next.Page = 1
	}
	return next
}

// Params converts q into backend listing parameters.
func (q Query) Params(perPage int) model.ListParams {
	return model.ListParams{
		Page:      max(q.Page, 1),
		PerPage:   perPage,
		Search:    NormalizeSearch(q.Search),
		Category:  q.Category,
		SortField: q.SortField,
		SortOrder: q.SortOrder,
	}
}

// Values encodes q as URL parameters, omitting defaults.
func (q Query) Values() url.Values {
	v := url.Values{}
	if s := NormalizeSearch(q.Search); s != "" {
		v.Set(ParamSearch, s)
	}
	if q.Category != "" {
		v.Set(ParamCategory, q.Category)
	}
	if q.SortField != "" && q.SortField != model.SortByTerm {
		v.Set(ParamSort, q.SortField)
	}
	if q.SortOrder != "" && q.SortOrder != model.SortAsc {
		v.Set(ParamOrder, q.SortOrder)
	}
	if q.Page > 1 {
		v.Set(ParamPage, strconv.Itoa(q.Page))
	}
	return v
}

// PrevValues encodes q as hidden prev_* fields.
func (q Query) PrevValues() url.Values {
	v := url.Values{}
	v.Set(prevPrefix+ParamSearch, q.Search)
	v.Set(prevPrefix+ParamCategory, q.Category)
	v.Set(prevPrefix+ParamSort, q.SortField)
	v.Set(prevPrefix+ParamOrder, q.SortOrder)
	return v
}

// QueryFromValues parses URL parameters. Invalid values fall back to defaults.
func QueryFromValues(v url.Values) Query {
	return parseQuery(v, "")
}

// PrevQueryFromValues parses the prev_* fields. ok is false when the request
// carries none, i.e. it did not come from a rendered search form.
func PrevQueryFromValues(v url.Values) (q Query, ok bool) {
	for key := range v {
		if strings.HasPrefix(key, prevPrefix) {
			ok = true
			break
		}
	}
	if !ok {
		return Query{}, false
	}
	return parseQuery(v, prevPrefix), true
}

func parseQuery(v url.Values, prefix string) Query {
	q := DefaultQuery()
	q.Search = v.Get(prefix + ParamSearch)
	q.Category = strings.TrimSpace(v.Get(prefix + ParamCategory))
	if f := v.Get(prefix + ParamSort); model.IsValidSortField(f) {
		q.SortField = f
	}
	if o := v.Get(prefix + ParamOrder); o == model.SortAsc || o == model.SortDesc {
		q.SortOrder = o
	}
	if p, err := strconv.Atoi(v.Get(prefix + ParamPage)); err == nil && p > 0 {
		q.Page = p
	}
	return q
}

// JumpMessage is the validation text for an out-of-range page jump.
func JumpMessage(pages int) string {
	return fmt.Sprintf("Please enter a page number between 1 and %d", max(pages, 1))
}

// ValidateJump checks that page lies in [1, pages]. An empty result set
// counts as a single page.
func ValidateJump(page, pages int) error {
	pages = max(pages, 1)
	if page < 1 || page > pages {
		return model.NewValidationError(ParamPage, JumpMessage(pages))
	}
	return nil
}

// ParseJump parses and validates user-entered page text.
func ParseJump(s string, pages int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, model.NewValidationError(ParamPage, JumpMessage(pages))
	}
	if err := ValidateJump(n, pages); err != nil {
		return 0, err
	}
	return n, nil
}
