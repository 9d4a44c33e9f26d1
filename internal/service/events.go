// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service provides the event log used as the audit trail of admin
// actions and as the sink for warnings and errors.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/feddict/feddict/internal/model"
	"github.com/feddict/feddict/internal/store"
)

// RequestInfo is the client request an event originated from.
type RequestInfo struct {
	IP  string
	URL string
}

type requestInfoKey struct{}

// WithRequestInfo attaches request details that LogEvent records.
func WithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, info)
}

// RequestInfoFromContext returns the details stored by WithRequestInfo.
func RequestInfoFromContext(ctx context.Context) RequestInfo {
	info, _ := ctx.Value(requestInfoKey{}).(RequestInfo)
	return info
}

// EventService provides event logging functionality.
type EventService struct {
	queries *store.Queries
	now     func() time.Time
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB) *EventService {
	return &EventService{
		queries: store.New(db),
		now:     time.Now,
	}
}

// LogEvent creates a new event log entry.
func (s *EventService) LogEvent(ctx context.Context, level, category, message, username string, metadata map[string]any) error {
	metadataJSON := "{}"
	if len(metadata) > 0 {
		if b, err := json.Marshal(metadata); err == nil {
			metadataJSON = string(b)
		}
	}

	info := RequestInfoFromContext(ctx)
	_, err := s.queries.CreateEvent(ctx, store.CreateEventParams{
		Level:      level,
		Category:   category,
		Message:    message,
		Username:   username,
		Metadata:   metadataJSON,
		IpAddress:  info.IP,
		RequestUrl: info.URL,
		CreatedAt:  s.now(),
	})
	if err != nil {
		return fmt.Errorf("logging event: %w", err)
	}
	return nil
}

// Record logs an admin action. Failures are reported through slog only,
// so an audit problem never fails the action itself.
func (s *EventService) Record(ctx context.Context, level, category, message, username string, metadata map[string]any) {
	// The action already happened; record it even if the request was cancelled.
	ctx = context.WithoutCancel(ctx)
	if err := s.LogEvent(ctx, level, category, message, username, metadata); err != nil {
		slog.Error("failed to record event", "error", err, "message", message)
	}
}

// LogAuthEvent logs an authentication-related event.
func (s *EventService) LogAuthEvent(ctx context.Context, level, message, username string, metadata map[string]any) error {
	return s.LogEvent(ctx, level, model.EventCategoryAuth, message, username, metadata)
}

// LogSystemEvent logs a system-related event.
func (s *EventService) LogSystemEvent(ctx context.Context, level, message string, metadata map[string]any) error {
	return s.LogEvent(ctx, level, model.EventCategorySystem, message, "", metadata)
}

// Page is one page of the event list.
type Page struct {
	Events []store.Event
	Total  int64
}

// ListEvents returns a page of events, newest first, filtered by level and
// category when non-empty.
func (s *EventService) ListEvents(ctx context.Context, level, category string, page, perPage int) (Page, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 25
	}
	params := store.ListEventsParams{
		Level:    level,
		Category: category,
		Limit:    int64(perPage),
		Offset:   int64((page - 1) * perPage),
	}
	events, err := s.queries.ListEvents(ctx, params)
	if err != nil {
		return Page{}, err
	}
	total, err := s.queries.CountEvents(ctx, params)
	if err != nil {
		return Page{}, err
	}
	return Page{Events: events, Total: total}, nil
}

// DeleteOldEvents removes events older than the specified duration.
func (s *EventService) DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error) {
	return s.queries.DeleteEventsBefore(ctx, s.now().Add(-olderThan))
}
