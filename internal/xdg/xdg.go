// Package xdg provides helpers to resolve XDG Base Directory paths for nsctl.
// It falls back to the traditional ~/.config and ~/.local/state locations
// when the XDG environment variables are not set and creates the
// directories with private permissions.
package xdg

import (
	"os"
	"path/filepath"
)

// AppName is the directory name used under every XDG base.
const AppName = "nsctl"

// ConfigDir returns the XDG config directory for nsctl.
// The directory is created with private permissions (0700) if missing.
// It falls back to ~/.config/nsctl when XDG_CONFIG_HOME is unset.
func ConfigDir() (string, error) {
	return resolve("XDG_CONFIG_HOME", ".config")
}

// StateDir returns the XDG state directory for nsctl.
// The directory is created with private permissions (0700) if missing.
// It falls back to ~/.local/state/nsctl when XDG_STATE_HOME is unset.
// The encrypted file keyring lives here when no OS keychain is available.
func StateDir() (string, error) {
	return resolve("XDG_STATE_HOME", filepath.Join(".local", "state"))
}

func resolve(env, homeRel string) (string, error) {
	base := os.Getenv(env)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, homeRel)
	}
	dir := filepath.Join(base, AppName)
	if err := os.MkdirAll(dir, 0o700); err != nil { // private dir
		return "", err
	}
	return dir, nil
}
