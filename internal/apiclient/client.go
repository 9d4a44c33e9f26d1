// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package apiclient talks to the glossary REST backend. Every call runs
// under a scoped timeout and maps failures onto a small error taxonomy.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/feddict/feddict/internal/auth"
	"github.com/feddict/feddict/internal/model"
)

// Client defaults
const (
	DefaultBaseURL  = "https://feddict-api.onrender.com"
	DefaultTimeout  = 5 * time.Second
	DefaultPerPage  = 10
	MaxResponseLen  = 8 << 20 // 8MB
	UserAgent       = "FedDict/1.0"
	RequestIDHeader = "X-Request-ID"
)

// Client is a glossary backend client. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		timeout:   DefaultTimeout,
		userAgent: UserAgent,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// ListTerms fetches one page of terms. Empty search and category are omitted.
func (c *Client) ListTerms(ctx context.Context, p model.ListParams) (*model.PageResult, error) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 {
		p.PerPage = DefaultPerPage
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(p.Page))
	q.Set("per_page", strconv.Itoa(p.PerPage))
	if s := strings.TrimSpace(p.Search); s != "" {
		q.Set("search", s)
	}
	if p.Category != "" {
		q.Set("category", p.Category)
	}
	if p.SortField != "" {
		q.Set("sort_field", p.SortField)
	}
	if p.SortOrder != "" {
		q.Set("sort_order", p.SortOrder)
	}

	var res model.PageResult
	if err := c.do(ctx, "list terms", http.MethodGet, "/terms/", q, "", nil, "", &res); err != nil {
		return nil, err
	}
	if res.Page == 0 {
		res.Page = p.Page
	}
	if res.Items == nil {
		res.Items = []model.Term{}
	}
	return &res, nil
}

// Suggestions returns up to limit terms matching the search prefix.
func (c *Client) Suggestions(ctx context.Context, search string, limit int) ([]model.Term, error) {
	q := url.Values{}
	q.Set("search", search)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var terms []model.Term
	if err := c.do(ctx, "suggestions", http.MethodGet, "/terms/suggestions", q, "", nil, "", &terms); err != nil {
		return nil, err
	}
	return terms, nil
}

// Categories returns the distinct category names.
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var cats []string
	if err := c.do(ctx, "categories", http.MethodGet, "/categories/", nil, "", nil, "", &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

// Root returns the backend welcome message; used as a reachability probe.
func (c *Client) Root(ctx context.Context) (string, error) {
	var body struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, "root", http.MethodGet, "/", nil, "", nil, "", &body); err != nil {
		return "", err
	}
	return body.Message, nil
}

// VerifyAuth reports whether the backend accepts cred. A 401 is a plain
// false; other failures are returned as errors.
func (c *Client) VerifyAuth(ctx context.Context, cred auth.Credential) (bool, error) {
	var body struct {
		Status string `json:"status"`
	}
	err := c.do(ctx, "verify auth", http.MethodGet, "/verify-auth/", nil, cred, nil, "", &body)
	if IsUnauthorized(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return body.Status == "authenticated", nil
}

// CreateTerm creates a term.
func (c *Client) CreateTerm(ctx context.Context, cred auth.Credential, in model.TermInput) (*model.Term, error) {
	var t model.Term
	if err := c.doJSON(ctx, "create term", http.MethodPost, "/terms/", cred, in, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTerm replaces the fields of term id.
func (c *Client) UpdateTerm(ctx context.Context, cred auth.Credential, id model.TermID, in model.TermInput) (*model.Term, error) {
	var t model.Term
	if err := c.doJSON(ctx, "update term", http.MethodPut, "/terms/"+url.PathEscape(id.String()), cred, in, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteTerm deletes term id.
func (c *Client) DeleteTerm(ctx context.Context, cred auth.Credential, id model.TermID) error {
	return c.do(ctx, "delete term", http.MethodDelete, "/terms/"+url.PathEscape(id.String()), nil, cred, nil, "", nil)
}

// Upload sends a CSV or JSON file as multipart form data (field "file").
func (c *Client) Upload(ctx context.Context, cred auth.Credential, filename string, r io.Reader) (*model.UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(fw, r); err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart body: %w", err)
	}

	var res model.UploadResult
	if err := c.do(ctx, "upload", http.MethodPost, "/admin/upload", nil, cred, buf.Bytes(), mw.FormDataContentType(), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// CleanupDuplicates asks the backend to remove duplicate terms.
func (c *Client) CleanupDuplicates(ctx context.Context, cred auth.Credential) (*model.ActionResult, error) {
	var res model.ActionResult
	if err := c.do(ctx, "cleanup duplicates", http.MethodPost, "/admin/cleanup-duplicates", nil, cred, nil, "", &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// BulkDelete deletes the given terms.
func (c *Client) BulkDelete(ctx context.Context, cred auth.Credential, ids []model.TermID) (*model.ActionResult, error) {
	payload := struct {
		TermIDs []model.TermID `json:"term_ids"`
	}{TermIDs: ids}
	var res model.ActionResult
	if err := c.doJSON(ctx, "bulk delete", http.MethodPost, "/admin/bulk-delete", cred, payload, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// DeleteAll deletes every term. code is the date-derived confirmation code.
func (c *Client) DeleteAll(ctx context.Context, cred auth.Credential, code string) (*model.ActionResult, error) {
	q := url.Values{}
	q.Set("confirmation", code)
	var res model.ActionResult
	if err := c.do(ctx, "delete all", http.MethodDelete, "/admin/delete-all", q, cred, nil, "", &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Stats returns backend storage statistics.
func (c *Client) Stats(ctx context.Context, cred auth.Credential) (*model.Stats, error) {
	var st model.Stats
	if err := c.do(ctx, "stats", http.MethodGet, "/admin/stats", nil, cred, nil, "", &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, cred auth.Credential, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: encoding request: %w", op, err)
	}
	return c.do(ctx, op, method, path, nil, cred, body, "application/json", out)
}

// do performs one request under the client timeout and decodes a JSON
// response into out when out is non-nil.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, cred auth.Credential, body []byte, contentType string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return fmt.Errorf("%s: creating request: %w", op, err)
	}

	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(RequestIDHeader, reqID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if !cred.IsZero() {
		req.Header.Set("Authorization", cred.Header())
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		cerr := classify(ctx, op, err)
		c.logger.Debug("backend request failed",
			"op", op, "method", method, "path", path,
			"request_id", reqID, "error", cerr)
		return cerr
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseLen))
	if err != nil {
		return classify(ctx, op, err)
	}

	c.logger.Debug("backend request",
		"op", op, "method", method, "path", path,
		"status", resp.StatusCode, "request_id", reqID,
		"duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPError{StatusCode: resp.StatusCode, Detail: parseDetail(data)}
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decoding response: %w", op, err)
	}
	return nil
}

// parseDetail extracts the "detail" field of an error body. It handles a
// plain string and a list of validation items with "msg" fields.
func parseDetail(data []byte) string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(data, &body); err != nil || len(body.Detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(body.Detail, &s); err == nil {
		return s
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(body.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
