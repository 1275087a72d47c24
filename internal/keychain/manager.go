// Copyright (c) 2025 nsctl contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package keychain provides centralized, thread-safe keychain operations for nsctl.
// It manages all interactions with the OS keychain/credential store: the
// controller bearer token, its expiry, and the persisted login snapshot.
//
// Native backends are preferred (macOS Keychain, Windows Credential Manager,
// Secret Service, KWallet, pass). When none is available the encrypted file
// backend is used, unlocked with NSCTL_KEYRING_PASSWORD.
package keychain

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"nsctl/cli/internal/xdg"

	"github.com/99designs/keyring"
)

// Global keychain manager instance
var (
	globalManager *Manager
	globalError   error
	mu            sync.Mutex
)

// Manager provides centralized, thread-safe operations for the OS keychain.
type Manager struct {
	mu   sync.RWMutex
	ring keyring.Keyring
}

// ServiceName identifies our keychain/credential store namespace.
const ServiceName = "nsctl"

// PasswordEnv unlocks the encrypted file backend.
const PasswordEnv = "NSCTL_KEYRING_PASSWORD"

// Keys used for storing secrets in the OS keychain.
const (
	KeyAccessToken  = "auth_access_token"
	KeyTokenExpire  = "auth_expire"
	KeySessionState = "session_state"
)

// ErrNotFound is returned when a key has never been stored.
var ErrNotFound = errors.New("key not found")

// NewManager creates a new keychain manager with the OS keyring initialized.
func NewManager() (*Manager, error) {
	ring, err := openRing()
	if err != nil {
		return nil, err
	}
	return &Manager{ring: ring}, nil
}

// NewWithRing wraps an already opened keyring, e.g. keyring.NewArrayKeyring in tests.
func NewWithRing(ring keyring.Keyring) *Manager {
	return &Manager{ring: ring}
}

// GetManager returns the global keychain manager instance.
// If not initialized, it will be created on first call.
// If initialization fails, it will retry on subsequent calls.
func GetManager() (*Manager, error) {
	mu.Lock()
	defer mu.Unlock()

	if globalManager != nil {
		return globalManager, nil
	}

	globalManager, globalError = NewManager()
	if globalError != nil {
		return nil, globalError
	}

	return globalManager, nil
}

// allowedBackends returns the native backends to try for the current OS,
// always ending with the encrypted file store.
func allowedBackends() []keyring.BackendType {
	var backends []keyring.BackendType
	switch runtime.GOOS {
	case "darwin":
		backends = []keyring.BackendType{keyring.KeychainBackend, keyring.PassBackend}
	case "windows":
		backends = []keyring.BackendType{keyring.WinCredBackend}
	default:
		backends = []keyring.BackendType{
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
			keyring.PassBackend,
		}
	}
	return append(backends, keyring.FileBackend)
}

// openRing opens the OS keyring, falling back to the encrypted file store.
func openRing() (keyring.Keyring, error) {
	dir, err := xdg.StateDir()
	if err != nil {
		return nil, err
	}

	cfg := keyring.Config{
		ServiceName:              ServiceName,
		AllowedBackends:          allowedBackends(),
		PassPrefix:               ServiceName,
		WinCredPrefix:            ServiceName,
		KeychainTrustApplication: true,
		LibSecretCollectionName:  "login",
		KWalletAppID:             ServiceName,
		KWalletFolder:            ServiceName,
		FileDir:                  dir,
		FilePasswordFunc:         filePassword,
	}

	ring, err := keyring.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	return ring, nil
}

// filePassword reads the file backend password from the environment.
// Prompting is left to the caller so non-interactive runs fail fast.
func filePassword(string) (string, error) {
	if p := os.Getenv(PasswordEnv); p != "" {
		return p, nil
	}
	return "", fmt.Errorf("no OS keychain available; set %s to use the encrypted file store", PasswordEnv)
}

func (m *Manager) get(key string) ([]byte, error) {
	it, err := m.ring.Get(key)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return it.Data, nil
}

func (m *Manager) remove(key string) error {
	if err := m.ring.Remove(key); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return err
	}
	return nil
}

// SaveToken stores the bearer token and its expiry in the OS keychain.
// A zero expire is stored as unknown.
// This method is thread-safe.
func (m *Manager) SaveToken(token string, expire time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if token == "" {
		return errors.New("empty access token")
	}
	if err := m.ring.Set(keyring.Item{Key: KeyAccessToken, Label: ServiceName + " access token", Data: []byte(token)}); err != nil {
		return err
	}
	if expire.IsZero() {
		return m.remove(KeyTokenExpire)
	}
	return m.ring.Set(keyring.Item{Key: KeyTokenExpire, Data: []byte(expire.UTC().Format(time.RFC3339))})
}

// LoadToken retrieves the bearer token and its expiry from the keychain.
// The expiry is zero when unknown.
// This method is thread-safe.
func (m *Manager) LoadToken() (string, time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, err := m.get(KeyAccessToken)
	if err != nil {
		return "", time.Time{}, err
	}
	if len(data) == 0 {
		return "", time.Time{}, errors.New("empty access token")
	}

	var expire time.Time
	if raw, err := m.get(KeyTokenExpire); err == nil {
		if t, perr := time.Parse(time.RFC3339, string(raw)); perr == nil {
			expire = t
		}
	}
	return string(data), expire, nil
}

// ClearAuth removes all auth-related secrets from the keychain.
// This method is thread-safe.
func (m *Manager) ClearAuth() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for _, k := range []string{KeyAccessToken, KeyTokenExpire, KeySessionState} {
		if err := m.remove(k); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SaveSessionState stores the serialized login snapshot in the keychain.
// This method is thread-safe.
func (m *Manager) SaveSessionState(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.ring.Set(keyring.Item{Key: KeySessionState, Data: data})
}

// LoadSessionState retrieves the serialized login snapshot.
// A snapshot that was never saved yields nil data and no error.
// This method is thread-safe.
func (m *Manager) LoadSessionState() ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, err := m.get(KeySessionState)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return data, err
}
