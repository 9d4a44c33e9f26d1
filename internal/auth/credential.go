// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package auth holds the admin authentication session: the basic-auth
// credential, its persistence and its verification against the backend.
package auth

import (
	"encoding/base64"
	"strings"
)

// Credential is the base64 encoding of "username:password".
// It is opaque outside this package.
type Credential string

// NewCredential encodes username and password for basic auth.
func NewCredential(username, password string) Credential {
	return Credential(base64.StdEncoding.EncodeToString([]byte(username + ":" + password)))
}

// Header returns the Authorization header value.
func (c Credential) Header() string {
	return "Basic " + string(c)
}

// Username decodes the username part, or "" if the credential is malformed.
func (c Credential) Username() string {
	raw, err := base64.StdEncoding.DecodeString(string(c))
	if err != nil {
		return ""
	}
	user, _, ok := strings.Cut(string(raw), ":")
	if !ok {
		return ""
	}
	return user
}

// IsZero reports whether the credential is empty.
func (c Credential) IsZero() bool { return c == "" }

// String never reveals the encoded secret.
func (c Credential) String() string {
	if c == "" {
		return ""
	}
	return "Basic [redacted]"
}
