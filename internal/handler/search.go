package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/feddict/feddict/internal/apiclient"
	"github.com/feddict/feddict/internal/browse"
	"github.com/feddict/feddict/internal/model"
	"github.com/feddict/feddict/internal/render"
)

// Form fields of the search page.
const (
	fieldJump  = browse.ParamJump
	fieldPages = browse.ParamPages
)

// SearchHandler serves the public search page and the suggestion endpoint.
type SearchHandler struct {
	api          Backend
	glossary     Glossary
	renderer     *render.Renderer
	logger       *slog.Logger
	perPage      int
	suggestLimit int
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(api Backend, glossary Glossary, renderer *render.Renderer, logger *slog.Logger, perPage, suggestLimit int) *SearchHandler {
	if perPage < 1 {
		perPage = browse.DefaultPerPage
	}
	if suggestLimit < 1 {
		suggestLimit = browse.DefaultSuggestLimit
	}
	return &SearchHandler{
		api:          api,
		glossary:     glossary,
		renderer:     renderer,
		logger:       logger,
		perPage:      perPage,
		suggestLimit: suggestLimit,
	}
}

// ListingView is the search form, listing query and pagination shared by
// the public search page and the admin dashboard.
type ListingView struct {
	Action     string
	Query      browse.Query
	Categories []string
	SortFields []string
	Pagination browse.Pagination
}

// SearchPageData holds data for the search template.
type SearchPageData struct {
	ListingView
	Items []model.Term
	Total int
	Error string
}

// listURL returns the canonical URL of q under base.
func listURL(base string, q browse.Query) string {
	v := q.Values()
	if len(v) == 0 {
		return base
	}
	return base + "?" + v.Encode()
}

// resolveQuery reads the listing query of r. A submitted search form
// carries the query it was rendered with in prev_* fields; any filter
// change against it returns to page 1.
func resolveQuery(r *http.Request) browse.Query {
	values := r.URL.Query()
	q := browse.QueryFromValues(values)
	if prev, ok := browse.PrevQueryFromValues(values); ok {
		q = browse.Reconcile(prev, q)
	}
	return q
}

// handleJump redirects a page-jump submission. An out-of-range page is
// reported as a flash on the current page and no listing is fetched for it.
func handleJump(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, base string, q browse.Query) bool {
	values := r.URL.Query()
	if !values.Has(fieldJump) {
		return false
	}
	pages := max(browse.KnownPages(values), 1)
	n, err := browse.ParseJump(values.Get(fieldJump), pages)
	if err != nil {
		flashError(w, r, renderer, pagedURL(base, q, pages), err.Error())
		return true
	}
	http.Redirect(w, r, pagedURL(base, q.WithPage(n), pages), http.StatusSeeOther)
	return true
}

// pagedURL is listURL plus the page count hint read back by
// browse.KnownPages when the next fetch fails.
func pagedURL(base string, q browse.Query, pages int) string {
	v := q.Values()
	if pages > 1 {
		v.Set(fieldPages, strconv.Itoa(pages))
	}
	if len(v) == 0 {
		return base
	}
	return base + "?" + v.Encode()
}

// Search handles GET / - the search and listing page.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := resolveQuery(r)
	if handleJump(w, r, h.renderer, redirectRoot, q) {
		return
	}

	data := SearchPageData{
		ListingView: ListingView{
			Action:     redirectRoot,
			Query:      q,
			SortFields: model.ValidSortFields(),
			Categories: h.categories(r),
		},
	}

	res, err := h.api.ListTerms(r.Context(), q.Params(h.perPage))
	if err != nil {
		h.logger.Warn("term list fetch failed", "error", err, "page", q.Page)
		data.Error = apiclient.UserMessage(err, "Could not load terms")
		data.Pagination = browse.RetainedPagination(q, browse.KnownPages(r.URL.Query()), redirectRoot)
	} else {
		if res.Pages > 0 && q.Page > res.Pages {
			http.Redirect(w, r, listURL(redirectRoot, q.WithPage(res.Pages)), http.StatusSeeOther)
			return
		}
		data.Items = res.Items
		data.Total = res.Total
		data.Pagination = browse.BuildPagination(q, res.Pages, res.Total, redirectRoot)
	}

	renderOrError(w, r, h.renderer, http.StatusOK, tmplSearch, render.TemplateData{
		Title: "Search the glossary",
		Data:  data,
	})
}

func (h *SearchHandler) categories(r *http.Request) []string {
	cats, err := h.glossary.Categories(r.Context())
	if err != nil {
		h.logger.Warn("failed to load categories", "error", err)
		return nil
	}
	return cats
}

// Suggestions handles GET /suggestions?q= and returns matching terms as
// JSON. Text shorter than the suggestion minimum yields an empty list
// without a backend call.
func (h *SearchHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	s := browse.NormalizeSearch(r.URL.Query().Get(browse.ParamSearch))
	if utf8.RuneCountInString(s) < browse.DefaultSuggestMinLen {
		writeJSON(w, http.StatusOK, []model.Term{})
		return
	}

	terms, err := h.api.Suggestions(r.Context(), s, h.suggestLimit)
	if err != nil {
		h.logger.Debug("suggestion fetch failed", "error", err)
		writeJSONError(w, http.StatusBadGateway, apiclient.UserMessage(err, "Suggestions unavailable"))
		return
	}
	if terms == nil {
		terms = []model.Term{}
	}
	writeJSON(w, http.StatusOK, terms)
}
