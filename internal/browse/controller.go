// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package browse

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/feddict/feddict/internal/debounce"
	"github.com/feddict/feddict/internal/model"
)

// Controller defaults
const (
	DefaultPerPage       = 10
	DefaultSuggestLimit  = 5
	DefaultSuggestMinLen = 2
)

// Fetcher is the part of the API client the controller needs.
type Fetcher interface {
	ListTerms(ctx context.Context, p model.ListParams) (*model.PageResult, error)
	Suggestions(ctx context.Context, search string, limit int) ([]model.Term, error)
}

// Options configures a Controller. Zero values select defaults.
type Options struct {
	Initial         Query
	Debounce        time.Duration
	SuggestDebounce time.Duration
	PerPage         int
	SuggestLimit    int
	SuggestMinLen   int
	// OnChange receives a snapshot after every state change. Calls are
	// serialized. It must not call back into the Controller synchronously.
	OnChange func(Snapshot)
	Logger   *slog.Logger
}

// Snapshot is an immutable copy of the controller state.
type Snapshot struct {
	Query       Query
	SearchText  string // input text, may be ahead of Query.Search while debouncing
	Items       []model.Term
	Page        int
	Pages       int
	Total       int
	Loading     bool
	Err         error
	Suggestions []model.Term
}

// Label renders "Page X of Y" for the current result.
func (s Snapshot) Label() string {
	return PageLabel(s.Page, s.Pages)
}

// Controller owns the search/list state of an interactive view. Input
// changes are debounced, every fetch takes a fresh token, and a response is
// applied only while its token is still current.
type Controller struct {
	fetcher Fetcher
	opts    Options
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	search  *debounce.Debouncer[string]
	suggest *debounce.Debouncer[string]

	notifyMu sync.Mutex

	mu            sync.Mutex
	state         Snapshot
	token         uint64
	cancelFetch   context.CancelFunc
	suggestToken  uint64
	cancelSuggest context.CancelFunc
	closed        bool
}

// NewController creates a controller. Call Start to issue the first fetch.
func NewController(f Fetcher, opts Options) *Controller {
	if opts.Debounce <= 0 {
		opts.Debounce = debounce.DefaultInterval
	}
	if opts.SuggestDebounce <= 0 {
		opts.SuggestDebounce = opts.Debounce
	}
	if opts.PerPage <= 0 {
		opts.PerPage = DefaultPerPage
	}
	if opts.SuggestLimit <= 0 {
		opts.SuggestLimit = DefaultSuggestLimit
	}
	if opts.SuggestMinLen <= 0 {
		opts.SuggestMinLen = DefaultSuggestMinLen
	}
	if opts.Initial == (Query{}) {
		opts.Initial = DefaultQuery()
	}
	if opts.Initial.Page < 1 {
		opts.Initial.Page = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		fetcher: f,
		opts:    opts,
		logger:  opts.Logger,
		ctx:     ctx,
		cancel:  cancel,
		state: Snapshot{
			Query:      opts.Initial,
			SearchText: opts.Initial.Search,
			Page:       opts.Initial.Page,
		},
	}
	c.search = debounce.New(debounce.Config{Interval: opts.Debounce}, c.searchSettled)
	c.suggest = debounce.New(debounce.Config{Interval: opts.SuggestDebounce}, c.fetchSuggestions)
	return c
}

// Start fetches the initial page.
func (c *Controller) Start() {
	c.Refresh()
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	s := c.state
	s.Items = append([]model.Term(nil), c.state.Items...)
	s.Suggestions = append([]model.Term(nil), c.state.Suggestions...)
	return s
}

// SetSearchText records new input text. The main query and the suggestion
// lookup each fire once the text has been stable for their debounce
// interval. Text shorter than the suggestion minimum clears suggestions.
func (c *Controller) SetSearchText(s string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.state.SearchText = s
	c.mu.Unlock()

	c.search.Push(s)
	trimmed := strings.TrimSpace(s)
	if utf8.RuneCountInString(trimmed) >= c.opts.SuggestMinLen {
		c.suggest.Push(trimmed)
	} else {
		c.suggest.Cancel()
		c.clearSuggestions()
	}
	c.notify()
}

func (c *Controller) searchSettled(s string) {
	c.mu.Lock()
	q := c.state.Query.WithSearch(s)
	c.mu.Unlock()
	c.issue(q)
}

// SelectSuggestion adopts term as the search text and queries immediately.
func (c *Controller) SelectSuggestion(term string) {
	c.search.Cancel()
	c.suggest.Cancel()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.state.SearchText = term
	c.dropSuggestionsLocked()
	q := c.state.Query.WithSearch(term)
	c.mu.Unlock()

	c.issue(q)
}

// SetCategory filters by category ("" for all) and returns to page 1.
func (c *Controller) SetCategory(category string) {
	c.apply(func(q Query) Query { return q.WithCategory(category) })
}

// SetSort sorts by field and returns to page 1. Unknown fields are ignored.
func (c *Controller) SetSort(field string) {
	c.apply(func(q Query) Query { return q.WithSort(field) })
}

// ToggleOrder flips the sort order and returns to page 1.
func (c *Controller) ToggleOrder() {
	c.apply(func(q Query) Query { return q.ToggleOrder() })
}

// apply fetches fn(current) when it differs from the current query.
func (c *Controller) apply(fn func(Query) Query) {
	c.mu.Lock()
	cur := c.state.Query
	c.mu.Unlock()
	next := fn(cur)
	if next == cur {
		return
	}
	c.issue(next)
}

// SetPage fetches page p with the current filters. It reports false and
// does nothing when p is outside the known page range.
func (c *Controller) SetPage(p int) bool {
	c.mu.Lock()
	pages := max(c.state.Pages, 1)
	q := c.state.Query
	c.mu.Unlock()
	if p < 1 || p > pages {
		return false
	}
	c.issue(q.WithPage(p))
	return true
}

// NextPage moves forward one page; a no-op on the last page.
func (c *Controller) NextPage() bool {
	return c.SetPage(c.currentPage() + 1)
}

// PrevPage moves back one page; a no-op on the first page.
func (c *Controller) PrevPage() bool {
	return c.SetPage(c.currentPage() - 1)
}

// FirstPage moves to page 1.
func (c *Controller) FirstPage() bool {
	if c.currentPage() == 1 {
		return false
	}
	return c.SetPage(1)
}

// LastPage moves to the last known page.
func (c *Controller) LastPage() bool {
	c.mu.Lock()
	pages := max(c.state.Pages, 1)
	c.mu.Unlock()
	if c.currentPage() == pages {
		return false
	}
	return c.SetPage(pages)
}

// JumpTo validates n against the current page count and fetches it.
// An invalid page returns a validation error and issues no request.
func (c *Controller) JumpTo(n int) error {
	c.mu.Lock()
	pages := c.state.Pages
	c.mu.Unlock()
	if err := ValidateJump(n, pages); err != nil {
		return err
	}
	c.SetPage(n)
	return nil
}

func (c *Controller) currentPage() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Query.Page
}

// Refresh re-fetches the current query.
func (c *Controller) Refresh() {
	c.mu.Lock()
	q := c.state.Query
	c.mu.Unlock()
	c.issue(q)
}

// RefreshAfter re-fetches the current query after d, giving the backend
// time to settle. Close cancels a pending refresh.
func (c *Controller) RefreshAfter(d time.Duration) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
			c.Refresh()
		case <-c.ctx.Done():
		}
	}()
}

// issue starts a fetch for q, superseding any request in flight.
func (c *Controller) issue(q Query) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.token++
	tok := c.token
	if c.cancelFetch != nil {
		c.cancelFetch()
	}
	ctx, cancel := context.WithCancel(c.ctx)
	c.cancelFetch = cancel
	c.state.Query = q
	c.state.Loading = true
	c.wg.Add(1)
	c.mu.Unlock()

	c.notify()
	go c.runFetch(ctx, cancel, tok, q)
}

func (c *Controller) runFetch(ctx context.Context, cancel context.CancelFunc, tok uint64, q Query) {
	defer c.wg.Done()
	defer cancel()

	res, err := c.fetcher.ListTerms(ctx, q.Params(c.opts.PerPage))

	c.mu.Lock()
	if c.closed || tok != c.token {
		c.mu.Unlock()
		c.logger.Debug("discarding stale list response", "token", tok)
		return
	}
	c.state.Loading = false
	if err != nil {
		// Keep page metadata so the pager stays usable; the list is emptied.
		c.state.Err = err
		c.state.Items = nil
	} else {
		c.state.Err = nil
		c.state.Items = res.Items
		c.state.Pages = res.Pages
		c.state.Total = res.Total
		c.state.Page = res.Page
		if c.state.Page < 1 {
			c.state.Page = q.Page
		}
	}
	c.mu.Unlock()

	if err != nil && !errors.Is(err, context.Canceled) {
		c.logger.Warn("term list fetch failed", "error", err, "page", q.Page)
	}
	c.notify()
}

func (c *Controller) fetchSuggestions(s string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.suggestToken++
	tok := c.suggestToken
	if c.cancelSuggest != nil {
		c.cancelSuggest()
	}
	ctx, cancel := context.WithCancel(c.ctx)
	c.cancelSuggest = cancel
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		defer cancel()

		terms, err := c.fetcher.Suggestions(ctx, s, c.opts.SuggestLimit)

		c.mu.Lock()
		if c.closed || tok != c.suggestToken {
			c.mu.Unlock()
			return
		}
		if err != nil {
			c.state.Suggestions = nil
		} else {
			c.state.Suggestions = terms
		}
		c.mu.Unlock()

		if err != nil && !errors.Is(err, context.Canceled) {
			c.logger.Debug("suggestion fetch failed", "error", err)
		}
		c.notify()
	}()
}

// ClearSuggestions closes the suggestion list and drops any lookup in flight.
func (c *Controller) ClearSuggestions() {
	c.suggest.Cancel()
	c.clearSuggestions()
	c.notify()
}

func (c *Controller) clearSuggestions() {
	c.mu.Lock()
	c.dropSuggestionsLocked()
	c.mu.Unlock()
}

func (c *Controller) dropSuggestionsLocked() {
	c.suggestToken++
	if c.cancelSuggest != nil {
		c.cancelSuggest()
		c.cancelSuggest = nil
	}
	c.state.Suggestions = nil
}

func (c *Controller) notify() {
	if c.opts.OnChange == nil {
		return
	}
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	closed := c.closed
	snap := c.snapshotLocked()
	c.mu.Unlock()
	if closed {
		return
	}
	c.opts.OnChange(snap)
}

// Close stops the debouncers, cancels requests in flight and waits for
// background work. No OnChange call happens after Close returns, so
// OnChange must not call Close.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.search.Stop()
	c.suggest.Stop()
	c.cancel()
	c.wg.Wait()

	// Wait out a notify that read closed before it was set.
	c.notifyMu.Lock()
	c.notifyMu.Unlock() //nolint:staticcheck // empty critical section
}
