// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package admin

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feddict/feddict/internal/model"
)

func TestFormLifecycle(t *testing.T) {
	f := NewForm()
	assert.Equal(t, FormIdle, f.State())

	f.Set(model.FieldTerm, "  Proto ")
	assert.Equal(t, FormEditing, f.State())
	f.Set(model.FieldDefinition, "012345678")
	f.Set(model.FieldCategory, "Networking")
	f.Set("unknown", "ignored")

	_, err := f.Begin()
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.NotEmpty(t, verr.Field(model.FieldDefinition))
	assert.Equal(t, FormEditing, f.State())
	assert.Same(t, verr, f.Errors())

	f.Set(model.FieldDefinition, "0123456789")
	payload, err := f.Begin()
	require.NoError(t, err)
	assert.Equal(t, FormSubmitting, f.State())
	assert.Equal(t, "Proto", payload.Term, "values are trimmed before sending")
	assert.Nil(t, f.Errors())

	_, err = f.Begin()
	assert.ErrorIs(t, err, ErrFormBusy)

	f.Finish(assert.AnError)
	assert.Equal(t, FormEditing, f.State())
	assert.Equal(t, "  Proto ", f.Values().Term, "failure keeps entered values")

	_, err = f.Begin()
	require.NoError(t, err)
	f.Finish(nil)
	assert.Equal(t, FormIdle, f.State())
	assert.Equal(t, model.TermInput{}, f.Values())
}

func TestFormEditAndReset(t *testing.T) {
	f := NewForm()
	f.Edit(model.Term{ID: "12", Term: "TLS", Definition: "Transport Layer Security", Category: "Security"})

	assert.True(t, f.IsUpdate())
	assert.Equal(t, model.TermID("12"), f.ID())
	assert.Equal(t, "TLS", f.Values().Term)

	f.Reset()
	assert.Equal(t, FormIdle, f.State())
	assert.False(t, f.IsUpdate())
}

func TestFormFinishWithBackendValidation(t *testing.T) {
	f := NewForm()
	f.Load("", model.TermInput{Term: "A", Definition: "0123456789", Category: "C"})
	_, err := f.Begin()
	require.NoError(t, err)

	f.Finish(model.NewValidationError(model.FieldTerm, "Term already exists"))
	assert.Equal(t, "Term already exists", f.Errors().Field(model.FieldTerm))
}

func TestSelection(t *testing.T) {
	s := NewSelection("3", "1")
	assert.Equal(t, 2, s.Len())

	assert.True(t, s.Toggle("2"))
	assert.False(t, s.Toggle("3"))
	s.Add("")
	assert.Equal(t, []model.TermID{"1", "2"}, s.IDs())
	assert.True(t, s.Has("1"))

	s.Remove("1")
	assert.False(t, s.Has("1"))

	s.Clear()
	assert.Zero(t, s.Len())
	assert.Empty(t, s.IDs())

	var zero Selection
	zero.Add("9")
	assert.True(t, zero.Has("9"))
}

func TestConfirmationSelected(t *testing.T) {
	var c Confirmation
	assert.Equal(t, ConfirmNone, c.State())

	assert.ErrorIs(t, c.RequestSelected(NewSelection()), ErrEmptySelection)
	assert.Equal(t, ConfirmNone, c.State())
	assert.ErrorIs(t, c.ConfirmSelected(), ErrNotPending)

	require.NoError(t, c.RequestSelected(NewSelection("b", "a")))
	assert.True(t, c.Pending())
	assert.Equal(t, ConfirmPendingSelected, c.State())
	assert.Equal(t, []model.TermID{"a", "b"}, c.IDs())
	assert.ErrorIs(t, c.ConfirmAll(DeleteAllPhrase, "pw"), ErrWrongTargetMode)

	require.NoError(t, c.ConfirmSelected())
	assert.Equal(t, ConfirmConfirmed, c.State())

	c.Close()
	assert.Equal(t, ConfirmNone, c.State())
}

func TestConfirmationAllGating(t *testing.T) {
	tests := []struct {
		name       string
		phrase     string
		password   string
		wantFields []string
	}{
		{"exact phrase and password", "DELETE ALL TERMS", "pw", nil},
		{"lowercase phrase", "delete all terms", "pw", []string{FieldPhrase}},
		{"trailing space", "DELETE ALL TERMS ", "pw", []string{FieldPhrase}},
		{"missing password", "DELETE ALL TERMS", "", []string{FieldPassword}},
		{"nothing", "", "", []string{FieldPhrase, FieldPassword}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Confirmation
			c.RequestAll()
			assert.Equal(t, ConfirmPendingAll, c.State())

			err := c.ConfirmAll(tt.phrase, tt.password)
			if tt.wantFields == nil {
				require.NoError(t, err)
				assert.Equal(t, ConfirmConfirmed, c.State())
				assert.Equal(t, tt.password, c.Password())
				return
			}
			var verr *model.ValidationError
			require.ErrorAs(t, err, &verr)
			for _, f := range tt.wantFields {
				assert.NotEmpty(t, verr.Field(f))
			}
			assert.Equal(t, ConfirmPendingAll, c.State(), "rejected input keeps the dialog open")
		})
	}
}

func TestConfirmationCancel(t *testing.T) {
	var c Confirmation
	c.RequestAll()
	c.Cancel()
	assert.Equal(t, ConfirmCancelled, c.State())
	assert.False(t, c.Pending())
	assert.ErrorIs(t, c.ConfirmAll(DeleteAllPhrase, "pw"), ErrNotPending)
}

func TestConfirmationCode(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	// 2025-01-02 05:00 at UTC+10 is still 2025-01-01 in UTC.
	ts := time.Date(2025, 1, 2, 5, 0, 0, 0, loc)
	assert.Equal(t, "DELETE-ALL-20250101", ConfirmationCode(ts))
	assert.Equal(t, "DELETE-ALL-20251231", ConfirmationCode(time.Date(2025, 12, 31, 23, 59, 0, 0, time.UTC)))
}

func TestCheckUploadFile(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		wantErr bool
	}{
		{"csv", "terms.csv", false},
		{"json", "terms.json", false},
		{"uppercase", "TERMS.CSV", false},
		{"mixed case json", "export.Json", false},
		{"txt", "terms.txt", true},
		{"no extension", "terms", true},
		{"double extension", "terms.csv.exe", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckUploadFile(tt.file)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var verr *model.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.NotEmpty(t, verr.Field(FieldFile))
		})
	}
}
