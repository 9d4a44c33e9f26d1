// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model contains the glossary domain types shared by the API client,
// the controllers and the front-ends.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Field names used in validation messages and form handling.
const (
	FieldTerm       = "term"
	FieldDefinition = "definition"
	FieldCategory   = "category"
)

// MinDefinitionLength is the minimum definition length in characters.
const MinDefinitionLength = 10

// TermID identifies a term on the backend. The backend may send it as a
// number or a string; it is always handled as a string here.
type TermID string

// UnmarshalJSON accepts both JSON numbers and JSON strings.
func (id *TermID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decoding term id: %w", err)
		}
		*id = TermID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decoding term id: %w", err)
	}
	*id = TermID(n.String())
	return nil
}

// MarshalJSON writes purely numeric ids as JSON numbers so they round-trip
// to backends with integer keys.
func (id TermID) MarshalJSON() ([]byte, error) {
	if isDigits(string(id)) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func isDigits(s string) bool {
	if s == "" || len(s) > 18 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// String returns the id as a string.
func (id TermID) String() string { return string(id) }

// Term is a glossary entry owned by the backend.
type Term struct {
	ID         TermID     `json:"id"`
	Term       string     `json:"term"`
	Definition string     `json:"definition"`
	Category   string     `json:"category"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

// Input returns the editable fields of the term.
func (t Term) Input() TermInput {
	return TermInput{Term: t.Term, Definition: t.Definition, Category: t.Category}
}

// TermInput is the create/update payload.
type TermInput struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
	Category   string `json:"category"`
}

// Normalize returns a copy with surrounding whitespace removed from every field.
func (in TermInput) Normalize() TermInput {
	return TermInput{
		Term:       strings.TrimSpace(in.Term),
		Definition: strings.TrimSpace(in.Definition),
		Category:   strings.TrimSpace(in.Category),
	}
}

// Validate checks the normalized input and returns a *ValidationError
// listing every failing field, or nil.
func (in TermInput) Validate() error {
	n := in.Normalize()
	verr := &ValidationError{}
	if n.Term == "" {
		verr.Add(FieldTerm, "Term is required")
	}
	if utf8.RuneCountInString(n.Definition) < MinDefinitionLength {
		verr.Add(FieldDefinition, fmt.Sprintf("Definition must be at least %d characters", MinDefinitionLength))
	}
	if n.Category == "" {
		verr.Add(FieldCategory, "Category is required")
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}

// PageResult is one page of terms together with pagination metadata.
type PageResult struct {
	Items []Term `json:"items"`
	Page  int    `json:"page,omitempty"`
	Pages int    `json:"pages"`
	Total int    `json:"total"`
}

// Sort fields accepted by the backend.
const (
	SortByTerm       = "term"
	SortByCategory   = "category"
	SortByDefinition = "definition"
	SortByCreated    = "created"
)

// Sort orders.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// ValidSortFields returns every accepted sort field.
func ValidSortFields() []string {
	return []string{SortByTerm, SortByCategory, SortByDefinition, SortByCreated}
}

// IsValidSortField reports whether field is an accepted sort field.
func IsValidSortField(field string) bool {
	for _, f := range ValidSortFields() {
		if f == field {
			return true
		}
	}
	return false
}

// ListParams describes a term listing request.
type ListParams struct {
	Page      int
	PerPage   int
	Search    string
	Category  string
	SortField string
	SortOrder string
}

// Stats is the backend storage report.
type Stats struct {
	SizeMB          float64 `json:"size_mb"`
	StorageLimitMB  float64 `json:"storage_limit_mb"`
	UsagePercentage float64 `json:"usage_percentage"`
	DocumentCount   int     `json:"document_count"`
}

// UploadResult summarizes a bulk upload.
type UploadResult struct {
	Message   string   `json:"message"`
	Processed int      `json:"processed"`
	Succeeded int      `json:"successful"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
}

// ActionResult is returned by cleanup, bulk delete and delete all.
type ActionResult struct {
	Message string `json:"message"`
	Count   int    `json:"count,omitempty"`
}
