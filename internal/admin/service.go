// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package admin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/feddict/feddict/internal/apiclient"
	"github.com/feddict/feddict/internal/auth"
	"github.com/feddict/feddict/internal/model"
)

// ErrNotAuthenticated is returned when a mutation is attempted without a
// verified session.
var ErrNotAuthenticated = errors.New("not logged in")

// Backend is the part of the API client used by admin flows.
type Backend interface {
	CreateTerm(ctx context.Context, cred auth.Credential, in model.TermInput) (*model.Term, error)
	UpdateTerm(ctx context.Context, cred auth.Credential, id model.TermID, in model.TermInput) (*model.Term, error)
	DeleteTerm(ctx context.Context, cred auth.Credential, id model.TermID) error
	Upload(ctx context.Context, cred auth.Credential, filename string, r io.Reader) (*model.UploadResult, error)
	CleanupDuplicates(ctx context.Context, cred auth.Credential) (*model.ActionResult, error)
	BulkDelete(ctx context.Context, cred auth.Credential, ids []model.TermID) (*model.ActionResult, error)
	DeleteAll(ctx context.Context, cred auth.Credential, code string) (*model.ActionResult, error)
	Stats(ctx context.Context, cred auth.Credential) (*model.Stats, error)
}

// Refresher re-reads listing data after a mutation.
type Refresher interface {
	Refresh()
	RefreshAfter(d time.Duration)
}

// Auditor records admin actions.
type Auditor interface {
	Record(ctx context.Context, level, category, message, username string, metadata map[string]any)
}

// Service sends admin mutations for one session and triggers refreshes.
type Service struct {
	api       Backend
	session   *auth.Session
	refresher Refresher
	auditor   Auditor
	logger    *slog.Logger
	now       func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithRefresher sets the refresher notified after mutations.
func WithRefresher(r Refresher) ServiceOption {
	return func(s *Service) {
		if r != nil {
			s.refresher = r
		}
	}
}

// WithAuditor sets the audit sink.
func WithAuditor(a Auditor) ServiceOption {
	return func(s *Service) {
		if a != nil {
			s.auditor = a
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the clock used for the delete-all confirmation code.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService creates an admin service.
func NewService(api Backend, session *auth.Session, opts ...ServiceOption) *Service {
	s := &Service{
		api:       api,
		session:   session,
		refresher: noopRefresher{},
		auditor:   noopAuditor{},
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) credential() (auth.Credential, error) {
	if s.session == nil {
		return "", ErrNotAuthenticated
	}
	cred, ok := s.session.Credential()
	if !ok {
		return "", ErrNotAuthenticated
	}
	return cred, nil
}

// check logs the session out when the backend rejected the credential.
func (s *Service) check(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	if apiclient.IsUnauthorized(err) && s.session != nil {
		s.session.Invalidate(ctx)
	}
	s.logger.Error("admin action failed", "op", op, "error", err)
	return err
}

func (s *Service) username() string {
	if s.session == nil {
		return ""
	}
	return s.session.Username()
}

// Save validates the form and creates or updates the term. Validation
// failures return without a request. The form is cleared on success and
// keeps its values on failure.
func (s *Service) Save(ctx context.Context, f *Form) (*model.Term, error) {
	payload, err := f.Begin()
	if err != nil {
		return nil, err
	}
	cred, err := s.credential()
	if err != nil {
		f.Finish(err)
		return nil, err
	}

	var t *model.Term
	op := "create term"
	if f.IsUpdate() {
		op = "update term"
		t, err = s.api.UpdateTerm(ctx, cred, f.ID(), payload)
	} else {
		t, err = s.api.CreateTerm(ctx, cred, payload)
	}
	f.Finish(err)
	if err := s.check(ctx, op, err); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, model.EventLevelInfo, model.EventCategoryTerm,
		fmt.Sprintf("%s: %s", op, payload.Term), s.username(),
		map[string]any{"term_id": t.ID.String(), "category": payload.Category})
	s.refresher.Refresh()
	return t, nil
}

// Delete removes a single term.
func (s *Service) Delete(ctx context.Context, id model.TermID) error {
	cred, err := s.credential()
	if err != nil {
		return err
	}
	if err := s.check(ctx, "delete term", s.api.DeleteTerm(ctx, cred, id)); err != nil {
		return err
	}
	s.auditor.Record(ctx, model.EventLevelInfo, model.EventCategoryTerm,
		"delete term", s.username(), map[string]any{"term_id": id.String()})
	s.refresher.Refresh()
	return nil
}

// BulkDelete deletes the terms captured by a confirmed selected-terms
// confirmation. The selection is cleared and the confirmation closed
// whatever the outcome.
func (s *Service) BulkDelete(ctx context.Context, c *Confirmation, sel *Selection) (*model.ActionResult, error) {
	defer closeBulk(c, sel)
	if c.State() != ConfirmConfirmed {
		return nil, ErrNotConfirmed
	}
	if c.All() {
		return nil, ErrWrongTargetMode
	}
	ids := c.IDs()
	if len(ids) == 0 {
		return nil, ErrEmptySelection
	}
	cred, err := s.credential()
	if err != nil {
		return nil, err
	}

	res, err := s.api.BulkDelete(ctx, cred, ids)
	if err := s.check(ctx, "bulk delete", err); err != nil {
		return nil, err
	}
	if res.Count == 0 {
		res.Count = len(ids)
	}
	s.auditor.Record(ctx, model.EventLevelWarning, model.EventCategoryTerm,
		fmt.Sprintf("bulk deleted %d terms", res.Count), s.username(),
		map[string]any{"term_ids": ids})
	s.refresher.Refresh()
	return res, nil
}

// DeleteAll deletes every term after a confirmed delete-all confirmation.
// It sends a fresh credential built from the session user name and the
// re-entered password, plus the date-derived confirmation code. The
// selection is cleared and the confirmation closed whatever the outcome.
func (s *Service) DeleteAll(ctx context.Context, c *Confirmation, sel *Selection) (*model.ActionResult, error) {
	defer closeBulk(c, sel)
	if c.State() != ConfirmConfirmed {
		return nil, ErrNotConfirmed
	}
	if !c.All() {
		return nil, ErrWrongTargetMode
	}
	if _, err := s.credential(); err != nil {
		return nil, err
	}

	user := s.username()
	fresh := auth.NewCredential(user, c.Password())
	code := ConfirmationCode(s.now())

	res, err := s.api.DeleteAll(ctx, fresh, code)
	if err != nil {
		// A wrong re-entered password is not a reason to end the session.
		if apiclient.IsUnauthorized(err) {
			s.logger.Warn("delete all rejected", "username", user)
			return nil, model.NewValidationError(FieldPassword, "Password was not accepted")
		}
		return nil, s.check(ctx, "delete all", err)
	}
	s.auditor.Record(ctx, model.EventLevelWarning, model.EventCategoryTerm,
		"deleted all terms", user, map[string]any{"count": res.Count})
	s.refresher.Refresh()
	return res, nil
}

func closeBulk(c *Confirmation, sel *Selection) {
	if sel != nil {
		sel.Clear()
	}
	if c != nil {
		c.Close()
	}
}

// Upload checks the file name, sends the file and schedules a delayed
// refresh so backend processing can settle first.
func (s *Service) Upload(ctx context.Context, filename string, r io.Reader) (*model.UploadResult, error) {
	if err := CheckUploadFile(filename); err != nil {
		return nil, err
	}
	cred, err := s.credential()
	if err != nil {
		return nil, err
	}

	res, err := s.api.Upload(ctx, cred, filename, r)
	if err := s.check(ctx, "upload", err); err != nil {
		return nil, err
	}
	level := model.EventLevelInfo
	if res.Failed > 0 {
		level = model.EventLevelWarning
	}
	s.auditor.Record(ctx, level, model.EventCategoryUpload,
		fmt.Sprintf("uploaded %s: %d processed, %d succeeded, %d failed", filename, res.Processed, res.Succeeded, res.Failed),
		s.username(), map[string]any{"errors": res.Errors})
	s.refresher.RefreshAfter(UploadRefreshDelay)
	return res, nil
}

// Cleanup asks the backend to remove duplicates and refreshes.
func (s *Service) Cleanup(ctx context.Context) (*model.ActionResult, error) {
	cred, err := s.credential()
	if err != nil {
		return nil, err
	}
	res, err := s.api.CleanupDuplicates(ctx, cred)
	if err := s.check(ctx, "cleanup duplicates", err); err != nil {
		return nil, err
	}
	s.auditor.Record(ctx, model.EventLevelInfo, model.EventCategoryTerm,
		"cleanup duplicates: "+res.Message, s.username(), nil)
	s.refresher.Refresh()
	return res, nil
}

// Stats returns backend storage statistics.
func (s *Service) Stats(ctx context.Context) (*model.Stats, error) {
	cred, err := s.credential()
	if err != nil {
		return nil, err
	}
	st, err := s.api.Stats(ctx, cred)
	if err := s.check(ctx, "stats", err); err != nil {
		return nil, err
	}
	return st, nil
}

type noopRefresher struct{}

func (noopRefresher) Refresh()                   {}
func (noopRefresher) RefreshAfter(time.Duration) {}

type noopAuditor struct{}

func (noopAuditor) Record(context.Context, string, string, string, string, map[string]any) {}
