// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package admin

import (
	"errors"
	"fmt"
	"time"

	"github.com/feddict/feddict/internal/model"
)

// DeleteAllPhrase must be typed exactly to confirm deleting every term.
const DeleteAllPhrase = "DELETE ALL TERMS"

// Confirmation field names used in validation errors.
const (
	FieldPhrase   = "phrase"
	FieldPassword = "password"
)

// ConfirmState is the state of a destructive-action confirmation.
type ConfirmState int

// Confirmation states.
const (
	ConfirmNone ConfirmState = iota
	ConfirmPendingSelected
	ConfirmPendingAll
	ConfirmConfirmed
	ConfirmCancelled
)

func (s ConfirmState) String() string {
	switch s {
	case ConfirmNone:
		return "none"
	case ConfirmPendingSelected:
		return "pending-selected"
	case ConfirmPendingAll:
		return "pending-all"
	case ConfirmConfirmed:
		return "confirmed"
	case ConfirmCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Confirmation errors
var (
	ErrEmptySelection  = errors.New("no terms selected")
	ErrNotPending      = errors.New("no confirmation pending")
	ErrNotConfirmed    = errors.New("action has not been confirmed")
	ErrWrongTargetMode = errors.New("confirmation is for a different action")
)

// Confirmation gates bulk deletion:
// none → pendingSelected|pendingAll → confirmed|cancelled.
// It only records the user's decision; the deletion itself is sent by Service.
type Confirmation struct {
	state    ConfirmState
	all      bool
	ids      []model.TermID
	password string
}

// State returns the current state.
func (c *Confirmation) State() ConfirmState { return c.state }

// Pending reports whether the dialog is open.
func (c *Confirmation) Pending() bool {
	return c.state == ConfirmPendingSelected || c.state == ConfirmPendingAll
}

// All reports whether the confirmation targets every term.
func (c *Confirmation) All() bool { return c.all }

// IDs returns the ids captured by RequestSelected.
func (c *Confirmation) IDs() []model.TermID {
	return append([]model.TermID(nil), c.ids...)
}

// Password returns the password re-entered for delete all.
func (c *Confirmation) Password() string { return c.password }

// RequestSelected opens a confirmation for the selected terms.
func (c *Confirmation) RequestSelected(sel *Selection) error {
	if sel == nil || sel.Len() == 0 {
		return ErrEmptySelection
	}
	*c = Confirmation{state: ConfirmPendingSelected, ids: sel.IDs()}
	return nil
}

// RequestAll opens a confirmation for deleting every term.
func (c *Confirmation) RequestAll() {
	*c = Confirmation{state: ConfirmPendingAll, all: true}
}

// ConfirmSelected accepts a pending selected-terms confirmation.
func (c *Confirmation) ConfirmSelected() error {
	if c.state != ConfirmPendingSelected {
		if c.state == ConfirmPendingAll {
			return ErrWrongTargetMode
		}
		return ErrNotPending
	}
	c.state = ConfirmConfirmed
	return nil
}

// ConfirmAll accepts a pending delete-all confirmation when phrase matches
// DeleteAllPhrase exactly and password is non-empty. Otherwise the dialog
// stays pending and a *model.ValidationError is returned.
func (c *Confirmation) ConfirmAll(phrase, password string) error {
	if c.state != ConfirmPendingAll {
		if c.state == ConfirmPendingSelected {
			return ErrWrongTargetMode
		}
		return ErrNotPending
	}
	verr := &model.ValidationError{}
	if phrase != DeleteAllPhrase {
		verr.Add(FieldPhrase, fmt.Sprintf("Type %q exactly to confirm", DeleteAllPhrase))
	}
	if password == "" {
		verr.Add(FieldPassword, "Password is required")
	}
	if verr.HasErrors() {
		return verr
	}
	c.password = password
	c.state = ConfirmConfirmed
	return nil
}

// Cancel abandons a pending confirmation.
func (c *Confirmation) Cancel() {
	*c = Confirmation{state: ConfirmCancelled}
}

// Close returns the machine to none once the action has run.
func (c *Confirmation) Close() {
	*c = Confirmation{}
}

// ConfirmationCode is the date-derived code the backend requires for
// delete all: "DELETE-ALL-" followed by the UTC date as YYYYMMDD.
func ConfirmationCode(t time.Time) string {
	return "DELETE-ALL-" + t.UTC().Format("20060102")
}
