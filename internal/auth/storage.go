// Copyright (c) 2025 nsctl contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package auth implements the login/logout flow against the controller and
// keeps the in-memory session state and the OS keychain in step.
//
// This file stores the serialized session snapshot via a SecretStore.
package auth

import (
	"encoding/json"
	"errors"
	"time"

	"nsctl/cli/internal/keychain"
	"nsctl/cli/internal/session"
)

// SecretStore is the subset of keychain.Manager the auth flow needs.
type SecretStore interface {
	SaveToken(token string, expire time.Time) error
	LoadToken() (string, time.Time, error)
	ClearAuth() error
	SaveSessionState(data []byte) error
	LoadSessionState() ([]byte, error)
}

var _ SecretStore = (*keychain.Manager)(nil)

// Load reads the persisted snapshot. Missing state yields the zero value.
func Load(store SecretStore) (session.Snapshot, error) {
	var s session.Snapshot
	data, err := store.LoadSessionState()
	if err != nil {
		if errors.Is(err, keychain.ErrNotFound) {
			return s, nil
		}
		return s, err
	}
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return session.Snapshot{}, err
	}
	return s, nil
}

// Save writes the snapshot to the store.
func Save(store SecretStore, s session.Snapshot) error {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return store.SaveSessionState(b)
}
