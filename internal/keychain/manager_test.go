// Copyright (c) 2025 nsctl contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package keychain

import (
	"errors"
	"testing"
	"time"

	"github.com/99designs/keyring"
)

func newTestManager() *Manager {
	return NewWithRing(keyring.NewArrayKeyring(nil))
}

func TestTokenRoundTrip(t *testing.T) {
	m := newTestManager()
	expire := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

	if err := m.SaveToken("tok", expire); err != nil {
		t.Fatalf("SaveToken() error = %v", err)
	}
	tok, exp, err := m.LoadToken()
	if err != nil {
		t.Fatalf("LoadToken() error = %v", err)
	}
	if tok != "tok" || !exp.Equal(expire) {
		t.Errorf("LoadToken() = %q, %v", tok, exp)
	}
}

func TestSaveTokenWithoutExpiry(t *testing.T) {
	m := newTestManager()
	if err := m.SaveToken("first", time.Now().Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := m.SaveToken("second", time.Time{}); err != nil {
		t.Fatal(err)
	}
	tok, exp, err := m.LoadToken()
	if err != nil {
		t.Fatal(err)
	}
	if tok != "second" || !exp.IsZero() {
		t.Errorf("LoadToken() = %q, %v; stale expiry should be dropped", tok, exp)
	}
}

func TestSaveTokenRejectsEmpty(t *testing.T) {
	if err := newTestManager().SaveToken("", time.Time{}); err == nil {
		t.Errorf("expected error for empty token")
	}
}

func TestLoadTokenMissing(t *testing.T) {
	_, _, err := newTestManager().LoadToken()
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadToken() error = %v, want ErrNotFound", err)
	}
}

func TestSessionState(t *testing.T) {
	m := newTestManager()

	data, err := m.LoadSessionState()
	if err != nil || data != nil {
		t.Fatalf("LoadSessionState() on empty ring = %q, %v", data, err)
	}

	if err := m.SaveSessionState([]byte(`{"username":"admin"}`)); err != nil {
		t.Fatal(err)
	}
	data, err = m.LoadSessionState()
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"username":"admin"}` {
		t.Errorf("LoadSessionState() = %q", data)
	}
}

func TestClearAuth(t *testing.T) {
	m := newTestManager()
	_ = m.SaveToken("tok", time.Now())
	_ = m.SaveSessionState([]byte("{}"))

	if err := m.ClearAuth(); err != nil {
		t.Fatalf("ClearAuth() error = %v", err)
	}
	if _, _, err := m.LoadToken(); !errors.Is(err, ErrNotFound) {
		t.Errorf("token survived ClearAuth: %v", err)
	}
	if data, _ := m.LoadSessionState(); data != nil {
		t.Errorf("session state survived ClearAuth")
	}
	// Clearing twice is fine.
	if err := m.ClearAuth(); err != nil {
		t.Errorf("second ClearAuth() error = %v", err)
	}
}

func TestAllowedBackendsEndWithFile(t *testing.T) {
	b := allowedBackends()
	if len(b) == 0 || b[len(b)-1] != keyring.FileBackend {
		t.Errorf("allowedBackends() = %v, want file backend last", b)
	}
}
