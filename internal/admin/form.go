// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package admin implements the term mutation flows: the create/edit form,
// the selection set, the confirmation state machine for destructive
// actions, and the Service that sends mutations to the backend.
package admin

import (
	"errors"

	"github.com/feddict/feddict/internal/model"
)

// FormState is the lifecycle state of a term form.
type FormState int

// Form states.
const (
	FormIdle FormState = iota
	FormEditing
	FormSubmitting
)

func (s FormState) String() string {
	switch s {
	case FormIdle:
		return "idle"
	case FormEditing:
		return "editing"
	case FormSubmitting:
		return "submitting"
	default:
		return "unknown"
	}
}

// ErrFormBusy is returned by Begin while a submission is in flight.
var ErrFormBusy = errors.New("form is already submitting")

// Form holds the values of a create or edit form: idle → editing →
// submitting → idle. A failed submission returns to editing with the
// entered values intact. Form is owned by a single UI goroutine.
type Form struct {
	state  FormState
	id     model.TermID
	values model.TermInput
	errs   *model.ValidationError
}

// NewForm returns an idle, empty form for creating a term.
func NewForm() *Form {
	return &Form{}
}

// State returns the current state.
func (f *Form) State() FormState { return f.state }

// Edit loads t into the form for updating.
func (f *Form) Edit(t model.Term) {
	f.state = FormEditing
	f.id = t.ID
	f.values = t.Input()
	f.errs = nil
}

// Load fills the form with submitted values. id is empty for a new term.
func (f *Form) Load(id model.TermID, in model.TermInput) {
	f.state = FormEditing
	f.id = id
	f.values = in
	f.errs = nil
}

// Set changes one field. Unknown fields are ignored.
func (f *Form) Set(field, value string) {
	switch field {
	case model.FieldTerm:
		f.values.Term = value
	case model.FieldDefinition:
		f.values.Definition = value
	case model.FieldCategory:
		f.values.Category = value
	default:
		return
	}
	if f.state == FormIdle {
		f.state = FormEditing
	}
}

// Reset clears the form and returns it to idle (cancel).
func (f *Form) Reset() {
	*f = Form{}
}

// Values returns the raw entered values.
func (f *Form) Values() model.TermInput { return f.values }

// ID returns the id of the term being edited, or "" for a new term.
func (f *Form) ID() model.TermID { return f.id }

// IsUpdate reports whether the form edits an existing term.
func (f *Form) IsUpdate() bool { return f.id != "" }

// Errors returns the validation errors of the last Begin or Finish.
func (f *Form) Errors() *model.ValidationError { return f.errs }

// Begin validates the trimmed values. On success the form moves to
// submitting and the payload to send is returned. On failure the form
// stays in editing and the *model.ValidationError is returned.
func (f *Form) Begin() (model.TermInput, error) {
	if f.state == FormSubmitting {
		return model.TermInput{}, ErrFormBusy
	}
	payload := f.values.Normalize()
	if err := payload.Validate(); err != nil {
		f.state = FormEditing
		f.errs, _ = err.(*model.ValidationError)
		return model.TermInput{}, err
	}
	f.errs = nil
	f.state = FormSubmitting
	return payload, nil
}

// Finish completes a submission. Success clears the form; failure keeps
// the entered values for correction.
func (f *Form) Finish(err error) {
	if err == nil {
		f.Reset()
		return
	}
	f.state = FormEditing
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		f.errs = verr
	}
}
