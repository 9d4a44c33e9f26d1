// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feddict/feddict/internal/model"
)

type fakeVerifier struct {
	valid Credential
	err   error
	calls int
}

func (f *fakeVerifier) VerifyAuth(_ context.Context, cred Credential) (bool, error) {
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	return cred == f.valid, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCredential(t *testing.T) {
	cred := NewCredential("admin", "s3cret:with:colons")

	assert.Equal(t, Credential("YWRtaW46czNjcmV0OndpdGg6Y29sb25z"), cred)
	assert.Equal(t, "Basic YWRtaW46czNjcmV0OndpdGg6Y29sb25z", cred.Header())
	assert.Equal(t, "admin", cred.Username())
	assert.NotContains(t, cred.String(), "YWRt")
	assert.Equal(t, "", Credential("!!!").Username())
}

func TestLoginSuccess(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	v := &fakeVerifier{valid: NewCredential("admin", "pw")}
	s := NewSession(store, v, testLogger())

	require.NoError(t, s.Login(ctx, "admin", "pw"))

	assert.True(t, s.Authenticated())
	assert.Equal(t, "admin", s.Username())
	cred, ok := s.Credential()
	assert.True(t, ok)
	assert.Equal(t, v.valid, cred)

	rec, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, rec.Authenticated)
	assert.Equal(t, v.valid, rec.Credential)
}

func TestLoginWrongPasswordStaysLoggedOut(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	v := &fakeVerifier{valid: NewCredential("admin", "right")}
	s := NewSession(store, v, testLogger())

	err := s.Login(ctx, "admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.False(t, s.Authenticated())
	_, ok := s.Credential()
	assert.False(t, ok)

	rec, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, Record{}, rec, "rejected credential must not stay persisted")
}

func TestLoginNetworkFailure(t *testing.T) {
	ctx := context.Background()
	v := &fakeVerifier{err: errors.New("connection refused")}
	s := NewSession(NewMemoryStore(), v, testLogger())

	err := s.Login(ctx, "admin", "pw")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
	assert.False(t, s.Authenticated())
}

func TestLoginValidation(t *testing.T) {
	v := &fakeVerifier{}
	s := NewSession(nil, v, testLogger())

	err := s.Login(context.Background(), "  ", "")
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.NotEmpty(t, verr.Field("username"))
	assert.NotEmpty(t, verr.Field("password"))
	assert.Zero(t, v.calls, "validation failure must not reach the backend")
}

func TestVerify(t *testing.T) {
	ctx := context.Background()
	good := NewCredential("admin", "pw")

	tests := []struct {
		name     string
		stored   Record
		verifier *fakeVerifier
		want     bool
	}{
		{"no credential", Record{}, &fakeVerifier{valid: good}, false},
		{"accepted", Record{Credential: good}, &fakeVerifier{valid: good}, true},
		{"rejected", Record{Credential: NewCredential("admin", "old"), Authenticated: true}, &fakeVerifier{valid: good}, false},
		{"network error", Record{Credential: good, Authenticated: true}, &fakeVerifier{err: errors.New("dial tcp: refused")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemoryStore()
			require.NoError(t, store.Save(ctx, tt.stored))
			s := NewSession(store, tt.verifier, testLogger())
			require.NoError(t, s.Restore(ctx))

			assert.Equal(t, tt.want, s.Verify(ctx))
			assert.Equal(t, tt.want, s.Authenticated())
			if !tt.want {
				rec, _ := store.Load(ctx)
				assert.True(t, rec.Credential.IsZero())
			}
		})
	}
}

func TestLogoutAndInvalidate(t *testing.T) {
	ctx := context.Background()
	good := NewCredential("admin", "pw")

	for _, name := range []string{"logout", "invalidate"} {
		t.Run(name, func(t *testing.T) {
			store := NewMemoryStore()
			s := NewSession(store, &fakeVerifier{valid: good}, testLogger())
			require.NoError(t, s.Login(ctx, "admin", "pw"))

			if name == "logout" {
				require.NoError(t, s.Logout(ctx))
			} else {
				s.Invalidate(ctx)
			}

			assert.False(t, s.Authenticated())
			assert.Equal(t, "", s.Username())
			rec, _ := store.Load(ctx)
			assert.Equal(t, Record{}, rec)
		})
	}
}

func TestSessionContext(t *testing.T) {
	s := NewSession(nil, &fakeVerifier{}, testLogger())
	ctx := WithSession(context.Background(), s)

	assert.Same(t, s, FromContext(ctx))
	assert.Nil(t, FromContext(context.Background()))
}
