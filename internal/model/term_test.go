// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTermIDUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want TermID
	}{
		{"number", `{"id": 42}`, "42"},
		{"string", `{"id": "65f1a2b3c4"}`, "65f1a2b3c4"},
		{"null", `{"id": null}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var term Term
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &term))
			assert.Equal(t, tt.want, term.ID)
		})
	}
}

func TestTermIDUnmarshalInvalid(t *testing.T) {
	var term Term
	err := json.Unmarshal([]byte(`{"id": [1]}`), &term)
	assert.Error(t, err)
}

func TestTermInputValidate(t *testing.T) {
	tests := []struct {
		name       string
		input      TermInput
		wantFields []string
	}{
		{
			name:  "valid",
			input: TermInput{Term: "Proto", Definition: "0123456789", Category: "Networking"},
		},
		{
			name:       "definition nine characters",
			input:      TermInput{Term: "Proto", Definition: "012345678", Category: "Networking"},
			wantFields: []string{FieldDefinition},
		},
		{
			name:       "whitespace only term",
			input:      TermInput{Term: "   ", Definition: "a valid definition", Category: "Networking"},
			wantFields: []string{FieldTerm},
		},
		{
			name:       "padding does not count toward length",
			input:      TermInput{Term: "Proto", Definition: "  short   ", Category: "Networking"},
			wantFields: []string{FieldDefinition},
		},
		{
			name:       "multibyte definition counts runes",
			input:      TermInput{Term: "Über", Definition: "ääääääääää", Category: "Misc"},
			wantFields: nil,
		},
		{
			name:       "everything missing",
			input:      TermInput{},
			wantFields: []string{FieldTerm, FieldDefinition, FieldCategory},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.Validate()
			if len(tt.wantFields) == 0 {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "expected *ValidationError, got %v", err)
			assert.Len(t, verr.Fields, len(tt.wantFields))
			for _, f := range tt.wantFields {
				assert.NotEmpty(t, verr.Field(f), "missing message for %s", f)
			}
		})
	}
}

func TestTermInputNormalize(t *testing.T) {
	in := TermInput{Term: " Proto ", Definition: "\tA protocol definition\n", Category: " Networking"}
	got := in.Normalize()
	assert.Equal(t, TermInput{Term: "Proto", Definition: "A protocol definition", Category: "Networking"}, got)
}

func TestValidationErrorMessage(t *testing.T) {
	v := NewValidationError(FieldTerm, "Term is required")
	v.Add(FieldCategory, "Category is required")
	v.Add(FieldTerm, "ignored")

	assert.Equal(t, "Term is required; Category is required", v.Error())
	assert.True(t, strings.Contains(v.Error(), "Category"))
}

func TestIsValidSortField(t *testing.T) {
	for _, f := range ValidSortFields() {
		assert.True(t, IsValidSortField(f), f)
	}
	assert.False(t, IsValidSortField("id"))
	assert.False(t, IsValidSortField(""))
}
