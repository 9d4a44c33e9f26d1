package handler

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/feddict/feddict/internal/apiclient"
	"github.com/feddict/feddict/internal/auth"
	"github.com/feddict/feddict/internal/browse"
	"github.com/feddict/feddict/internal/model"
	"github.com/feddict/feddict/internal/render"
	"github.com/feddict/feddict/internal/service"
	"github.com/feddict/feddict/internal/session"
	"github.com/feddict/feddict/internal/store"
	"github.com/feddict/feddict/web"
)

const (
	testUser     = "admin"
	testPassword = "s3cret-pass"
)

var errUnauthorized = &apiclient.HTTPError{StatusCode: http.StatusUnauthorized, Detail: "Invalid credentials"}

// fakeBackend is an in-memory glossary backend.
type fakeBackend struct {
	mu sync.Mutex
	fakeState
}

// fakeState is everything a test may set or inspect. Access it through
// state and set so the server goroutines stay synchronized with the test.
type fakeState struct {
	terms   []model.Term
	nextID  int
	listErr error
	suggErr error
	mutErr  error
	revoked bool // credentials still log in but mutations get 401

	lastParams    model.ListParams
	listCalls     int
	suggestCalls  int
	bulkDeleted   []model.TermID
	deleteAllCode string
	uploadedName  string
	uploadedBody  string
	cleanupCalls  int
}

func (b *fakeBackend) state() fakeState {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.fakeState
	s.terms = append([]model.Term(nil), b.terms...)
	s.bulkDeleted = append([]model.TermID(nil), b.bulkDeleted...)
	return s
}

func (b *fakeBackend) set(fn func(*fakeState)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(&b.fakeState)
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{fakeState: fakeState{nextID: 1}}
}

func (b *fakeBackend) add(term, category, definition string) model.Term {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := model.Term{
		ID:         model.TermID(fmt.Sprint(b.nextID)),
		Term:       term,
		Category:   category,
		Definition: definition,
	}
	b.nextID++
	b.terms = append(b.terms, t)
	return t
}

func (b *fakeBackend) checkCred(cred auth.Credential) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.revoked || cred != auth.NewCredential(testUser, testPassword) {
		return errUnauthorized
	}
	return b.mutErr
}

func (b *fakeBackend) VerifyAuth(_ context.Context, cred auth.Credential) (bool, error) {
	return cred == auth.NewCredential(testUser, testPassword), nil
}

func (b *fakeBackend) ListTerms(_ context.Context, p model.ListParams) (*model.PageResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listCalls++
	b.lastParams = p
	if b.listErr != nil {
		return nil, b.listErr
	}

	var matched []model.Term
	for _, t := range b.terms {
		if p.Search != "" && !strings.Contains(browse.FoldKey(t.Term), browse.FoldKey(p.Search)) {
			continue
		}
		if p.Category != "" && t.Category != p.Category {
			continue
		}
		matched = append(matched, t)
	}

	per := p.PerPage
	if per < 1 {
		per = 10
	}
	pages := max((len(matched)+per-1)/per, 1)
	start := min((p.Page-1)*per, len(matched))
	end := min(start+per, len(matched))
	return &model.PageResult{Items: matched[start:end], Page: p.Page, Pages: pages, Total: len(matched)}, nil
}

func (b *fakeBackend) Suggestions(_ context.Context, search string, limit int) ([]model.Term, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.suggestCalls++
	if b.suggErr != nil {
		return nil, b.suggErr
	}
	var out []model.Term
	for _, t := range b.terms {
		if strings.HasPrefix(browse.FoldKey(t.Term), browse.FoldKey(search)) && len(out) < limit {
			out = append(out, t)
		}
	}
	return out, nil
}

func (b *fakeBackend) CreateTerm(_ context.Context, cred auth.Credential, in model.TermInput) (*model.Term, error) {
	if err := b.checkCred(cred); err != nil {
		return nil, err
	}
	t := b.add(in.Term, in.Category, in.Definition)
	return &t, nil
}

func (b *fakeBackend) UpdateTerm(_ context.Context, cred auth.Credential, id model.TermID, in model.TermInput) (*model.Term, error) {
	if err := b.checkCred(cred); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.terms {
		if b.terms[i].ID == id {
			b.terms[i].Term, b.terms[i].Category, b.terms[i].Definition = in.Term, in.Category, in.Definition
			t := b.terms[i]
			return &t, nil
		}
	}
	return nil, &apiclient.HTTPError{StatusCode: http.StatusNotFound, Detail: "Term not found"}
}

func (b *fakeBackend) DeleteTerm(_ context.Context, cred auth.Credential, id model.TermID) error {
	if err := b.checkCred(cred); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.terms {
		if b.terms[i].ID == id {
			b.terms = append(b.terms[:i], b.terms[i+1:]...)
			return nil
		}
	}
	return &apiclient.HTTPError{StatusCode: http.StatusNotFound, Detail: "Term not found"}
}

func (b *fakeBackend) Upload(_ context.Context, cred auth.Credential, filename string, r io.Reader) (*model.UploadResult, error) {
	if err := b.checkCred(cred); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.uploadedName = filename
	b.uploadedBody = string(data)
	return &model.UploadResult{Message: "Upload complete", Processed: 3, Succeeded: 2, Failed: 1, Errors: []string{"row 3: definition too short"}}, nil
}

func (b *fakeBackend) CleanupDuplicates(_ context.Context, cred auth.Credential) (*model.ActionResult, error) {
	if err := b.checkCred(cred); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cleanupCalls++
	return &model.ActionResult{Message: "Removed 4 duplicate terms", Count: 4}, nil
}

func (b *fakeBackend) BulkDelete(_ context.Context, cred auth.Credential, ids []model.TermID) (*model.ActionResult, error) {
	if err := b.checkCred(cred); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bulkDeleted = append(b.bulkDeleted, ids...)
	return &model.ActionResult{Count: len(ids)}, nil
}

func (b *fakeBackend) DeleteAll(_ context.Context, cred auth.Credential, code string) (*model.ActionResult, error) {
	if err := b.checkCred(cred); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleteAllCode = code
	n := len(b.terms)
	b.terms = nil
	return &model.ActionResult{Count: n}, nil
}

func (b *fakeBackend) Stats(_ context.Context, cred auth.Credential) (*model.Stats, error) {
	if err := b.checkCred(cred); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return &model.Stats{SizeMB: 1.5, StorageLimitMB: 512, UsagePercentage: 0.3, DocumentCount: len(b.terms)}, nil
}

// fakeGlossary serves categories directly and records refreshes.
type fakeGlossary struct {
	backend *fakeBackend

	mu           sync.Mutex
	refreshes    int
	refreshAfter []time.Duration
	rootErr      error
	cachedStats  *model.Stats
}

func (g *fakeGlossary) Categories(context.Context) ([]string, error) {
	return []string{"Networking", "Security"}, nil
}

// Stats serves the last loaded value, like a cache hit.
func (g *fakeGlossary) Stats(ctx context.Context, cred auth.Credential) (*model.Stats, error) {
	g.mu.Lock()
	cached := g.cachedStats
	g.mu.Unlock()
	if cached != nil {
		return cached, nil
	}
	return g.ReloadStats(ctx, cred)
}

func (g *fakeGlossary) ReloadStats(ctx context.Context, cred auth.Credential) (*model.Stats, error) {
	st, err := g.backend.Stats(ctx, cred)
	g.mu.Lock()
	defer g.mu.Unlock()
	if err == nil {
		g.cachedStats = st
	}
	return st, err
}

func (g *fakeGlossary) Root(context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.rootErr != nil {
		return "", g.rootErr
	}
	return "FedDict API is running", nil
}

func (g *fakeGlossary) Refresh() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refreshes++
	g.cachedStats = nil
}

func (g *fakeGlossary) RefreshAfter(d time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refreshAfter = append(g.refreshAfter, d)
}

func (g *fakeGlossary) counts() (int, []time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.refreshes, append([]time.Duration(nil), g.refreshAfter...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testDB creates a temporary test database with migrations applied.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := store.NewDB(filepath.Join(t.TempDir(), "handler-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.Migrate(db))
	return db
}

// testApp is the full web UI served by httptest with a cookie-keeping client.
type testApp struct {
	t        *testing.T
	server   *httptest.Server
	client   *http.Client
	backend  *fakeBackend
	glossary *fakeGlossary
	events   *service.EventService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db := testDB(t)
	sm := session.New(db, true)
	renderer, err := render.New(render.Config{TemplatesFS: web.Templates(), SessionManager: sm, Logger: discardLogger()})
	require.NoError(t, err)

	backend := newFakeBackend()
	glossary := &fakeGlossary{backend: backend}
	events := service.NewEventService(db)

	router := NewRouter(Deps{
		DB:             db,
		API:            backend,
		Verifier:       backend,
		Glossary:       glossary,
		Events:         events,
		Renderer:       renderer,
		SessionManager: sm,
		Static:         web.Static(),
		Logger:         discardLogger(),
		CSRFKey:        []byte("0123456789abcdef0123456789abcdef"),
		IsDev:          true,
		PerPage:        10,
		PublicRPS:      1000,
		PublicBurst:    1000,
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &testApp{t: t, server: server, client: client, backend: backend, glossary: glossary, events: events}
}

type response struct {
	status   int
	location string
	body     string
	header   http.Header
}

func (a *testApp) do(req *http.Request) response {
	a.t.Helper()
	resp, err := a.client.Do(req)
	require.NoError(a.t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	return response{status: resp.StatusCode, location: resp.Header.Get("Location"), body: string(body), header: resp.Header}
}

func (a *testApp) get(path string) response {
	a.t.Helper()
	req, err := http.NewRequest(http.MethodGet, a.server.URL+path, nil)
	require.NoError(a.t, err)
	return a.do(req)
}

func (a *testApp) post(path string, form url.Values) response {
	a.t.Helper()
	req, err := http.NewRequest(http.MethodPost, a.server.URL+path, strings.NewReader(form.Encode()))
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Sec-Fetch-Site", "same-origin")
	return a.do(req)
}

func (a *testApp) upload(path, filename, content string) response {
	a.t.Helper()
	var buf strings.Builder
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(a.t, err)
	_, err = io.WriteString(fw, content)
	require.NoError(a.t, err)
	require.NoError(a.t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, a.server.URL+path, strings.NewReader(buf.String()))
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Sec-Fetch-Site", "same-origin")
	return a.do(req)
}

// follow fetches the redirect target of r.
func (a *testApp) follow(r response) response {
	a.t.Helper()
	require.Equal(a.t, http.StatusSeeOther, r.status, "expected a redirect, body: %s", r.body)
	return a.get(r.location)
}

func (a *testApp) login() {
	a.t.Helper()
	res := a.post("/login", url.Values{"username": {testUser}, "password": {testPassword}})
	require.Equal(a.t, http.StatusSeeOther, res.status, res.body)
	require.Equal(a.t, "/admin", res.location)
}

// seedNetworking adds n "Protocol" terms in Networking plus some noise.
func (a *testApp) seedNetworking(n int) {
	for i := 1; i <= n; i++ {
		a.backend.add(fmt.Sprintf("Protocol %02d", i), "Networking", "A networking protocol definition")
	}
	a.backend.add("Firewall", "Security", "Filters traffic between networks")
	a.backend.add("Protocol audit", "Security", "A security review of a protocol")
}
