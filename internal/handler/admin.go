// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/feddict/feddict/internal/admin"
	"github.com/feddict/feddict/internal/apiclient"
	"github.com/feddict/feddict/internal/browse"
	"github.com/feddict/feddict/internal/middleware"
	"github.com/feddict/feddict/internal/model"
	"github.com/feddict/feddict/internal/render"
	"github.com/feddict/feddict/internal/service"
)

// Form fields of the admin pages.
const (
	fieldIDs     = "ids"
	fieldConfirm = "confirm"
	fieldReturn  = "return"
)

// recentEventsLimit is the number of events shown on the dashboard.
const recentEventsLimit = 5

// AdminHandler serves the term management pages.
type AdminHandler struct {
	api      Backend
	glossary Glossary
	events   *service.EventService
	renderer *render.Renderer
	logger   *slog.Logger
	perPage  int
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(api Backend, glossary Glossary, events *service.EventService, renderer *render.Renderer, logger *slog.Logger, perPage int) *AdminHandler {
	if perPage < 1 {
		perPage = browse.DefaultPerPage
	}
	return &AdminHandler{
		api:      api,
		glossary: glossary,
		events:   events,
		renderer: renderer,
		logger:   logger,
		perPage:  perPage,
	}
}

// service binds the admin flows to the session of r.
func (h *AdminHandler) service(r *http.Request) *admin.Service {
	return admin.NewService(h.api, middleware.GetSession(r),
		admin.WithRefresher(h.glossary),
		admin.WithAuditor(h.events),
		admin.WithLogger(h.logger),
	)
}

// returnURL reads the listing to go back to after an action. Only admin
// paths are accepted.
func returnURL(r *http.Request) string {
	ret := r.FormValue(fieldReturn)
	if !strings.HasPrefix(ret, redirectAdmin) || strings.HasPrefix(ret, "//") {
		return redirectAdmin
	}
	return ret
}

// DashboardData holds data for the dashboard template.
type DashboardData struct {
	ListingView
	Items        []model.Term
	Stats        *model.Stats
	RecentEvents []EventRow
	Return       string
	Error        string
}

// EditURL links to the edit form of id, keeping the listing query so the
// term can be found again.
func (d DashboardData) EditURL(id model.TermID) string {
	u := redirectAdmin + RouteTerms + "/" + url.PathEscape(id.String()) + RouteSuffixEdit
	if v := d.Query.Values(); len(v) > 0 {
		u += "?" + v.Encode()
	}
	return u
}

// DeleteURL is the single-term delete action of id.
func (d DashboardData) DeleteURL(id model.TermID) string {
	return redirectAdmin + RouteTerms + "/" + url.PathEscape(id.String()) + RouteSuffixDel
}

// Dashboard handles GET /admin - the term list with selection, backend
// statistics and recent events.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	q := resolveQuery(r)
	if handleJump(w, r, h.renderer, redirectAdmin, q) {
		return
	}

	ctx := r.Context()
	sess := middleware.GetSession(r)
	cred, _ := sess.Credential()

	var (
		res                        *model.PageResult
		cats                       []string
		stats                      *model.Stats
		recent                     service.Page
		listErr, statsErr, evtsErr error
	)

	var g errgroup.Group
	g.Go(func() error {
		res, listErr = h.api.ListTerms(ctx, q.Params(h.perPage))
		return nil
	})
	g.Go(func() error {
		var err error
		if cats, err = h.glossary.Categories(ctx); err != nil {
			h.logger.Warn("failed to load categories", "error", err)
		}
		return nil
	})
	g.Go(func() error {
		// Uncached, so a revoked credential is noticed here.
		stats, statsErr = h.glossary.ReloadStats(ctx, cred)
		return nil
	})
	g.Go(func() error {
		recent, evtsErr = h.events.ListEvents(ctx, "", "", 1, recentEventsLimit)
		return nil
	})
	_ = g.Wait()

	if apiclient.IsUnauthorized(statsErr) {
		sess.Invalidate(ctx)
		sessionGone(w, r, h.renderer, statsErr)
		return
	}
	if statsErr != nil {
		h.logger.Warn("failed to load stats", "error", statsErr)
	}
	if evtsErr != nil {
		h.logger.Error("failed to load recent events", "error", evtsErr)
	}

	data := DashboardData{
		ListingView: ListingView{
			Action:     redirectAdmin,
			Query:      q,
			Categories: cats,
			SortFields: model.ValidSortFields(),
		},
		Stats:  stats,
		Return: listURL(redirectAdmin, q),
	}
	for _, e := range recent.Events {
		data.RecentEvents = append(data.RecentEvents, EventRow{Event: e, Details: formatMetadata(e.Metadata)})
	}

	if listErr != nil {
		h.logger.Warn("term list fetch failed", "error", listErr, "page", q.Page)
		data.Error = apiclient.UserMessage(listErr, "Could not load terms")
		data.Pagination = browse.RetainedPagination(q, browse.KnownPages(r.URL.Query()), redirectAdmin)
	} else {
		if res.Pages > 0 && q.Page > res.Pages {
			http.Redirect(w, r, listURL(redirectAdmin, q.WithPage(res.Pages)), http.StatusSeeOther)
			return
		}
		data.Items = res.Items
		data.Pagination = browse.BuildPagination(q, res.Pages, res.Total, redirectAdmin)
	}

	renderOrError(w, r, h.renderer, http.StatusOK, tmplDashboard, render.TemplateData{
		Title: "Dashboard",
		Data:  data,
	})
}

// TermFormData holds data for the term form template.
type TermFormData struct {
	ID         model.TermID
	IsUpdate   bool
	Values     model.TermInput
	Errors     *model.ValidationError
	Action     string
	Return     string
	Categories []string
	Error      string
}

func (h *AdminHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, f *admin.Form, ret, errMsg string) {
	action := redirectAdmin + RouteTerms
	title := "New term"
	if f.IsUpdate() {
		action = redirectAdmin + RouteTerms + "/" + url.PathEscape(f.ID().String())
		title = "Edit term"
	}
	cats, err := h.glossary.Categories(r.Context())
	if err != nil {
		h.logger.Warn("failed to load categories", "error", err)
	}
	renderOrError(w, r, h.renderer, status, tmplTermForm, render.TemplateData{
		Title: title,
		Data: TermFormData{
			ID:         f.ID(),
			IsUpdate:   f.IsUpdate(),
			Values:     f.Values(),
			Errors:     f.Errors(),
			Action:     action,
			Return:     ret,
			Categories: cats,
			Error:      errMsg,
		},
	})
}

func formInput(r *http.Request) model.TermInput {
	return model.TermInput{
		Term:       r.FormValue(model.FieldTerm),
		Definition: r.FormValue(model.FieldDefinition),
		Category:   r.FormValue(model.FieldCategory),
	}
}

// NewTerm handles GET /admin/terms/new.
func (h *AdminHandler) NewTerm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, admin.NewForm(), returnURL(r), "")
}

// EditTerm handles GET /admin/terms/{id}/edit. The term is looked up on the
// listing page the edit link was rendered from.
func (h *AdminHandler) EditTerm(w http.ResponseWriter, r *http.Request) {
	id := model.TermID(chi.URLParam(r, "id"))
	q := browse.QueryFromValues(r.URL.Query())

	res, err := h.api.ListTerms(r.Context(), q.Params(h.perPage))
	if err != nil {
		handleActionError(w, r, h.renderer, redirectAdmin, "Could not load term", err)
		return
	}
	for _, t := range res.Items {
		if t.ID == id {
			f := admin.NewForm()
			f.Edit(t)
			h.renderForm(w, r, http.StatusOK, f, listURL(redirectAdmin, q), "")
			return
		}
	}
	flashError(w, r, h.renderer, listURL(redirectAdmin, q), "Term not found")
}

// CreateTerm handles POST /admin/terms.
func (h *AdminHandler) CreateTerm(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, "")
}

// UpdateTerm handles POST /admin/terms/{id}.
func (h *AdminHandler) UpdateTerm(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, model.TermID(chi.URLParam(r, "id")))
}

func (h *AdminHandler) save(w http.ResponseWriter, r *http.Request, id model.TermID) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdmin) {
		return
	}
	ret := returnURL(r)

	f := admin.NewForm()
	f.Load(id, formInput(r))
	t, err := h.service(r).Save(r.Context(), f)

	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		h.renderForm(w, r, http.StatusUnprocessableEntity, f, ret, "")
		return
	case err != nil:
		if sessionGone(w, r, h.renderer, err) {
			return
		}
		h.renderForm(w, r, http.StatusOK, f, ret, apiclient.UserMessage(err, "Could not save term"))
		return
	}

	verb := "created"
	if id != "" {
		verb = "updated"
	}
	flashSuccess(w, r, h.renderer, ret, fmt.Sprintf("Term %q %s", t.Term, verb))
}

// DeleteTerm handles POST /admin/terms/{id}/delete.
func (h *AdminHandler) DeleteTerm(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdmin) {
		return
	}
	ret := returnURL(r)
	id := model.TermID(chi.URLParam(r, "id"))

	if err := h.service(r).Delete(r.Context(), id); err != nil {
		handleActionError(w, r, h.renderer, ret, "Could not delete term", err)
		return
	}
	flashSuccess(w, r, h.renderer, ret, "Term deleted")
}

// ConfirmBulkData holds data for the bulk delete confirmation template.
type ConfirmBulkData struct {
	IDs    []model.TermID
	Return string
}

// BulkDelete handles POST /admin/terms/bulk-delete. The first submission
// from the list asks for confirmation; the confirmed resubmission deletes.
func (h *AdminHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdmin) {
		return
	}
	ret := returnURL(r)

	sel := admin.NewSelection()
	for _, id := range r.PostForm[fieldIDs] {
		sel.Add(model.TermID(strings.TrimSpace(id)))
	}

	var c admin.Confirmation
	if err := c.RequestSelected(sel); err != nil {
		flashError(w, r, h.renderer, ret, "Select at least one term to delete")
		return
	}

	if r.PostForm.Get(fieldConfirm) == "" {
		renderOrError(w, r, h.renderer, http.StatusOK, tmplConfirm, render.TemplateData{
			Title: "Confirm deletion",
			Data:  ConfirmBulkData{IDs: c.IDs(), Return: ret},
		})
		return
	}

	if err := c.ConfirmSelected(); err != nil {
		flashError(w, r, h.renderer, ret, err.Error())
		return
	}
	res, err := h.service(r).BulkDelete(r.Context(), &c, sel)
	if err != nil {
		handleActionError(w, r, h.renderer, ret, "Could not delete terms", err)
		return
	}
	flashSuccess(w, r, h.renderer, ret, resultMessage(res.Message, fmt.Sprintf("Deleted %d terms", res.Count)))
}

// DeleteAllData holds data for the delete all template.
type DeleteAllData struct {
	Phrase string
	Errors *model.ValidationError
	Total  int
}

func (h *AdminHandler) renderDeleteAll(w http.ResponseWriter, r *http.Request, status int, verr *model.ValidationError) {
	data := DeleteAllData{Phrase: admin.DeleteAllPhrase, Errors: verr}
	cred, _ := middleware.GetSession(r).Credential()
	if st, err := h.glossary.Stats(r.Context(), cred); err == nil {
		data.Total = st.DocumentCount
	}
	renderOrError(w, r, h.renderer, status, tmplDeleteAll, render.TemplateData{
		Title: "Delete all terms",
		Data:  data,
	})
}

// DeleteAllForm handles GET /admin/delete-all.
func (h *AdminHandler) DeleteAllForm(w http.ResponseWriter, r *http.Request) {
	h.renderDeleteAll(w, r, http.StatusOK, nil)
}

// DeleteAll handles POST /admin/delete-all. It needs the exact phrase and
// the admin password typed again.
func (h *AdminHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdmin) {
		return
	}

	var c admin.Confirmation
	c.RequestAll()
	err := c.ConfirmAll(r.PostForm.Get(admin.FieldPhrase), r.PostForm.Get(admin.FieldPassword))

	var res *model.ActionResult
	if err == nil {
		res, err = h.service(r).DeleteAll(r.Context(), &c, nil)
	}

	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		h.renderDeleteAll(w, r, http.StatusUnprocessableEntity, verr)
		return
	case err != nil:
		handleActionError(w, r, h.renderer, redirectAdmin+RouteDeleteAll, "Could not delete terms", err)
		return
	}
	flashSuccess(w, r, h.renderer, redirectAdmin, resultMessage(res.Message, fmt.Sprintf("Deleted %d terms", res.Count)))
}

// UploadData holds data for the upload template.
type UploadData struct {
	Result       *model.UploadResult
	Errors       *model.ValidationError
	Error        string
	RefreshDelay time.Duration
	MaxSizeMB    int
}

func (h *AdminHandler) renderUpload(w http.ResponseWriter, r *http.Request, status int, data UploadData) {
	data.RefreshDelay = admin.UploadRefreshDelay
	data.MaxSizeMB = admin.MaxUploadSize >> 20
	renderOrError(w, r, h.renderer, status, tmplUpload, render.TemplateData{
		Title: "Upload terms",
		Data:  data,
	})
}

// UploadForm handles GET /admin/upload.
func (h *AdminHandler) UploadForm(w http.ResponseWriter, r *http.Request) {
	h.renderUpload(w, r, http.StatusOK, UploadData{})
}

// Upload handles POST /admin/upload with a .csv or .json file. The term
// list is refreshed shortly after the backend accepted the file.
func (h *AdminHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, admin.MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(admin.MaxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.renderUpload(w, r, http.StatusRequestEntityTooLarge, UploadData{
				Errors: model.NewValidationError(admin.FieldFile, fmt.Sprintf("File is larger than %d MB", admin.MaxUploadSize>>20)),
			})
			return
		}
		h.renderUpload(w, r, http.StatusUnprocessableEntity, UploadData{
			Errors: model.NewValidationError(admin.FieldFile, "Please choose a file to upload"),
		})
		return
	}

	file, header, err := r.FormFile(admin.FieldFile)
	if err != nil {
		h.renderUpload(w, r, http.StatusUnprocessableEntity, UploadData{
			Errors: model.NewValidationError(admin.FieldFile, "Please choose a file to upload"),
		})
		return
	}
	defer func() { _ = file.Close() }()

	res, err := h.service(r).Upload(r.Context(), header.Filename, file)

	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		h.renderUpload(w, r, http.StatusUnprocessableEntity, UploadData{Errors: verr})
		return
	case err != nil:
		if sessionGone(w, r, h.renderer, err) {
			return
		}
		h.renderUpload(w, r, http.StatusOK, UploadData{Error: apiclient.UserMessage(err, "Upload failed")})
		return
	}
	h.renderUpload(w, r, http.StatusOK, UploadData{Result: res})
}

// Cleanup handles POST /admin/cleanup - duplicate removal.
func (h *AdminHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdmin) {
		return
	}
	ret := returnURL(r)

	res, err := h.service(r).Cleanup(r.Context())
	if err != nil {
		handleActionError(w, r, h.renderer, ret, "Cleanup failed", err)
		return
	}
	flashSuccess(w, r, h.renderer, ret, resultMessage(res.Message, fmt.Sprintf("Removed %d duplicates", res.Count)))
}

func resultMessage(msg, fallback string) string {
	if strings.TrimSpace(msg) != "" {
		return msg
	}
	return fallback
}
