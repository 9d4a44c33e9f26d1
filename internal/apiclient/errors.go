// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/feddict/feddict/internal/model"
)

// ErrTimeout is returned when a request exceeds the client timeout.
var ErrTimeout = errors.New("request timed out")

// ErrUnauthorized matches any HTTPError with status 401 via errors.Is.
var ErrUnauthorized = errors.New("unauthorized")

// NetworkError is a transport failure: DNS, refused connection, reset.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError is a non-2xx response from the backend.
type HTTPError struct {
	StatusCode int
	Detail     string
}

func (e *HTTPError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("backend returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Is makes errors.Is(err, ErrUnauthorized) true for 401 responses.
func (e *HTTPError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// IsTimeout reports whether err is a client timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsUnauthorized reports whether err is a 401 from the backend.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// UserMessage renders err for display. Validation messages and backend
// details are shown as-is; anything else falls back to fallback.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}
	if errors.Is(err, ErrTimeout) {
		return "Request timed out"
	}
	if errors.Is(err, ErrUnauthorized) {
		return "Session expired. Please log in again."
	}
	var herr *HTTPError
	if errors.As(err, &herr) && herr.Detail != "" {
		return herr.Detail
	}
	var nerr *NetworkError
	if errors.As(err, &nerr) {
		return "Could not reach the glossary service"
	}
	return fallback
}

// classify maps a transport error from http.Client.Do.
func classify(ctx context.Context, op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, ErrTimeout)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%s: %w", op, ErrTimeout)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, context.Canceled)
	}
	return &NetworkError{Op: op, Err: err}
}
