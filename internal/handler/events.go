// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/feddict/feddict/internal/model"
	"github.com/feddict/feddict/internal/render"
	"github.com/feddict/feddict/internal/service"
	"github.com/feddict/feddict/internal/store"
)

// EventsPerPage is the number of events to display per page.
const EventsPerPage = 25

// detailsLengthThreshold is the max chars before details are collapsible
const detailsLengthThreshold = 80

// EventsHandler serves the admin event log.
type EventsHandler struct {
	events   *service.EventService
	renderer *render.Renderer
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(events *service.EventService, renderer *render.Renderer) *EventsHandler {
	return &EventsHandler{events: events, renderer: renderer}
}

// EventRow is an event prepared for display.
type EventRow struct {
	store.Event
	Details     string // formatted metadata
	DetailsLong bool
}

// EventsListData holds data for the events list template.
type EventsListData struct {
	Events      []EventRow
	TotalEvents int64
	Level       string
	Category    string
	Levels      []string
	Categories  []string
	Pagination  AdminPagination
}

// formatMetadata converts JSON metadata to readable text.
// Example: {"term_id":"7","category":"Networking"} -> "category: Networking, term_id: 7"
func formatMetadata(metadata string) string {
	if metadata == "" || metadata == "{}" {
		return ""
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(metadata), &data); err != nil {
		return metadata
	}
	if len(data) == 0 {
		return ""
	}

	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		var strValue string
		switch v := data[key].(type) {
		case string:
			strValue = v
		case float64:
			strValue = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			strValue = strconv.FormatBool(v)
		default:
			if b, err := json.Marshal(v); err == nil {
				strValue = string(b)
			}
		}
		parts = append(parts, key+": "+strValue)
	}
	return strings.Join(parts, ", ")
}

// List handles GET /admin/events - a paginated, filterable event list.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := model.ParseEventFilter(query.Get("level"), query.Get("category"))
	level, category := filter.Level, filter.Category
	page := ParsePageParam(r)

	res, err := h.events.ListEvents(r.Context(), level, category, page, EventsPerPage)
	if err != nil {
		logAndInternalError(w, "failed to list events", "error", err)
		return
	}
	if clamped, _ := NormalizePagination(page, int(res.Total), EventsPerPage); clamped != page {
		page = clamped
		if res, err = h.events.ListEvents(r.Context(), level, category, page, EventsPerPage); err != nil {
			logAndInternalError(w, "failed to list events", "error", err)
			return
		}
	}

	rows := make([]EventRow, 0, len(res.Events))
	for _, e := range res.Events {
		details := formatMetadata(e.Metadata)
		rows = append(rows, EventRow{
			Event:       e,
			Details:     details,
			DetailsLong: len(details) > detailsLengthThreshold,
		})
	}

	renderOrError(w, r, h.renderer, http.StatusOK, tmplEvents, render.TemplateData{
		Title: "Event log",
		Data: EventsListData{
			Events:      rows,
			TotalEvents: res.Total,
			Level:       level,
			Category:    category,
			Levels:      model.EventLevels,
			Categories:  model.EventCategories,
			Pagination:  BuildAdminPagination(page, int(res.Total), EventsPerPage, redirectAdminEvents, query),
		},
	})
}
