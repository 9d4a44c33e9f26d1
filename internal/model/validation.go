// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "strings"

// ValidationError is a client-side input error raised before any network call.
type ValidationError struct {
	Fields map[string]string
	order  []string
}

// NewValidationError returns a ValidationError with a single field message.
func NewValidationError(field, msg string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, msg)
	return v
}

// Add records msg for field. The first message for a field wins.
func (v *ValidationError) Add(field, msg string) {
	if v.Fields == nil {
		v.Fields = make(map[string]string)
	}
	if _, ok := v.Fields[field]; ok {
		return
	}
	v.Fields[field] = msg
	v.order = append(v.order, field)
}

// HasErrors reports whether any field failed.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.Fields) > 0
}

// Field returns the message for field, or "".
func (v *ValidationError) Field(field string) string {
	if v == nil {
		return ""
	}
	return v.Fields[field]
}

func (v *ValidationError) Error() string {
	msgs := make([]string, 0, len(v.order))
	for _, f := range v.order {
		msgs = append(msgs, v.Fields[f])
	}
	return strings.Join(msgs, "; ")
}
