package handler

import (
	"net/url"
	"strconv"

	"github.com/feddict/feddict/internal/browse"
)

// AdminPagination holds pagination data for admin list templates whose
// query is not a term listing (the event log).
type AdminPagination struct {
	CurrentPage int
	TotalPages  int
	TotalItems  int64
	PerPage     int
	HasPrev     bool
	HasNext     bool
	FirstURL    string
	PrevURL     string
	NextURL     string
	LastURL     string
	Pages       []browse.PaginationPage
}

// Label renders the "Page X of Y" caption.
func (p AdminPagination) Label() string {
	return browse.PageLabel(p.CurrentPage, p.TotalPages)
}

// NormalizePagination clamps page to the page count of totalItems and
// returns both.
func NormalizePagination(page, totalItems, perPage int) (int, int) {
	totalPages := (totalItems + perPage - 1) / perPage
	if totalPages < 1 {
		totalPages = 1
	}
	return browse.ClampPage(page, totalPages), totalPages
}

// BuildAdminPagination creates pagination data for admin templates.
// baseURL is the path without query string; queryParams are the current
// filters to keep on every link.
func BuildAdminPagination(currentPage, totalItems, perPage int, baseURL string, queryParams url.Values) AdminPagination {
	currentPage, totalPages := NormalizePagination(currentPage, totalItems, perPage)

	params := make(url.Values)
	for k, v := range queryParams {
		if k != "page" && len(v) > 0 && v[0] != "" {
			params[k] = v
		}
	}
	buildURL := func(page int) string {
		if page > 1 {
			params.Set("page", strconv.Itoa(page))
		} else {
			params.Del("page")
		}
		if len(params) == 0 {
			return baseURL
		}
		return baseURL + "?" + params.Encode()
	}

	p := AdminPagination{
		CurrentPage: currentPage,
		TotalPages:  totalPages,
		TotalItems:  int64(totalItems),
		PerPage:     perPage,
		HasPrev:     currentPage > 1,
		HasNext:     currentPage < totalPages,
		FirstURL:    buildURL(1),
		LastURL:     buildURL(totalPages),
	}
	if p.HasPrev {
		p.PrevURL = buildURL(currentPage - 1)
	}
	if p.HasNext {
		p.NextURL = buildURL(currentPage + 1)
	}
	for _, n := range browse.PageWindow(currentPage, totalPages) {
		if n == 0 {
			p.Pages = append(p.Pages, browse.PaginationPage{IsEllipsis: true})
			continue
		}
		p.Pages = append(p.Pages, browse.PaginationPage{Number: n, URL: buildURL(n), IsCurrent: n == currentPage})
	}
	return p
}
