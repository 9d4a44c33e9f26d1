// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package browse

import (
	"fmt"
	"net/url"
	"strconv"
)

// WindowDelta is how many pages are shown on each side of the current page.
const WindowDelta = 2

// Pagination holds pagination data for templates and the terminal footer.
type Pagination struct {
	CurrentPage int
	TotalPages  int
	TotalItems  int
	HasPrev     bool
	HasNext     bool
	FirstURL    string
	PrevURL     string
	NextURL     string
	LastURL     string
	Pages       []PaginationPage
	Prev        url.Values // hidden prev_* fields for the jump form
}

// PaginationPage represents a single page link or an ellipsis.
type PaginationPage struct {
	Number     int
	URL        string
	IsCurrent  bool
	IsEllipsis bool
}

// BuildPagination creates pagination for q against a result with pages
// pages and total items. Links keep every filter of q plus the page count,
// so a page whose fetch fails can still render the pager it was reached
// from. baseURL is the path without query string.
func BuildPagination(q Query, pages, total int, baseURL string) Pagination {
	current := q.Page
	if pages < 1 {
		pages = 1
	}
	current = ClampPage(current, pages)

	buildURL := func(page int) string {
		v := q.WithPage(page).Values()
		if pages > 1 {
			v.Set(ParamPages, strconv.Itoa(pages))
		}
		if len(v) == 0 {
			return baseURL
		}
		return baseURL + "?" + v.Encode()
	}

	p := Pagination{
		CurrentPage: current,
		TotalPages:  pages,
		TotalItems:  total,
		HasPrev:     current > 1,
		HasNext:     current < pages,
		FirstURL:    buildURL(1),
		LastURL:     buildURL(pages),
		Prev:        q.PrevValues(),
	}
	if p.HasPrev {
		p.PrevURL = buildURL(current - 1)
	}
	if p.HasNext {
		p.NextURL = buildURL(current + 1)
	}

	for _, n := range PageWindow(current, pages) {
		if n == 0 {
			p.Pages = append(p.Pages, PaginationPage{IsEllipsis: true})
			continue
		}
		p.Pages = append(p.Pages, PaginationPage{Number: n, URL: buildURL(n), IsCurrent: n == current})
	}
	return p
}

// RetainedPagination is the pager of a page whose fetch failed. It keeps
// q.Page and the page count the client last saw. When that count is
// unknown, or q.Page lies beyond it, the result has no pages and renders
// nothing.
func RetainedPagination(q Query, knownPages int, baseURL string) Pagination {
	if knownPages < 1 || q.Page > knownPages {
		return Pagination{CurrentPage: q.Page, Prev: q.PrevValues()}
	}
	return BuildPagination(q, knownPages, 0, baseURL)
}

// KnownPages reads the page count hint of values. It returns 0 when the
// hint is missing or malformed.
func KnownPages(values url.Values) int {
	n, err := strconv.Atoi(values.Get(ParamPages))
	if err != nil || n < 1 {
		return 0
	}
	return n
}

// ShouldShow returns true if there is more than one page.
func (p Pagination) ShouldShow() bool {
	return p.TotalPages > 1
}

// Label renders the "Page X of Y" caption.
func (p Pagination) Label() string {
	return PageLabel(p.CurrentPage, p.TotalPages)
}

// PageLabel renders "Page X of Y".
func PageLabel(page, pages int) string {
	return fmt.Sprintf("Page %d of %d", page, max(pages, 1))
}

// PageWindow returns the page numbers to display around current: page 1,
// WindowDelta pages either side of current, and the last page. Zero marks
// an ellipsis between non-adjacent numbers.
func PageWindow(current, pages int) []int {
	if pages < 1 {
		return nil
	}
	current = ClampPage(current, pages)

	var nums []int
	for i := 1; i <= pages; i++ {
		if i == 1 || i == pages || (i >= current-WindowDelta && i <= current+WindowDelta) {
			nums = append(nums, i)
		}
	}

	out := make([]int, 0, len(nums)+2)
	last := 0
	for _, n := range nums {
		if last != 0 && n-last > 1 {
			out = append(out, 0)
		}
		out = append(out, n)
		last = n
	}
	return out
}

// ClampPage ensures page is within [1, pages].
func ClampPage(page, pages int) int {
	if page > pages {
		page = pages
	}
	if page < 1 {
		return 1
	}
	return page
}
