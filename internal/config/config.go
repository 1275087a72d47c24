// Package config loads and stores CLI configuration in the XDG config dir.
// Only non-secret settings are kept here; secrets go to OS keychain.
//
// Precedence, lowest first: defaults, config.yaml, NSCTL_* environment,
// command-line flags (applied by the caller).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"nsctl/cli/internal/backend"
	"nsctl/cli/internal/xdg"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override (NSCTL_SERVER, ...).
const EnvPrefix = "NSCTL"

// Config holds non-sensitive CLI settings.
type Config struct {
	Server   string        `mapstructure:"server" yaml:"server"`
	LogLevel string        `mapstructure:"log_level" yaml:"log_level"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Insecure bool          `mapstructure:"insecure" yaml:"insecure"`
	// Endpoints overrides API paths for controllers behind a rewriting proxy.
	Endpoints backend.Endpoints `mapstructure:"endpoints" yaml:"endpoints"`
}

// path returns the path to the config file.
func path() (string, error) {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("timeout", 10*time.Second)
	v.SetDefault("insecure", false)

	// Nested keys need a default to be visible to AutomaticEnv
	// (NSCTL_ENDPOINTS_LOGIN, ...).
	d := backend.DefaultEndpoints()
	v.SetDefault("endpoints.login", d.Login)
	v.SetDefault("endpoints.logout", d.Logout)
	v.SetDefault("endpoints.refresh", d.Refresh)
	v.SetDefault("endpoints.units", d.Units)
	v.SetDefault("endpoints.accounts", d.Accounts)
	return v
}

// readFile loads p into v; a missing file is not an error.
func readFile(v *viper.Viper, p string) error {
	v.SetConfigFile(p)
	err := v.ReadInConfig()
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return nil
	}
	return fmt.Errorf("read config %s: %w", p, err)
}

// Load reads configuration; a missing file yields defaults plus any
// environment overrides.
func Load() (Config, error) {
	p, err := path()
	if err != nil {
		return Config{}, err
	}
	return loadFrom(p)
}

func loadFrom(p string) (Config, error) {
	v := newViper()
	if err := readFile(v, p); err != nil {
		return Config{}, err
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	c.Server = strings.TrimRight(strings.TrimSpace(c.Server), "/")
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	return c, nil
}

// SaveServer remembers the controller URL. Other keys already in the file
// are kept as they are; environment overrides and flags are never written.
func SaveServer(server string) error {
	p, err := path()
	if err != nil {
		return err
	}
	return saveServerTo(p, server)
}

func saveServerTo(p, server string) error {
	v := viper.New()
	if err := readFile(v, p); err != nil {
		return err
	}
	v.Set("server", server)
	if err := v.WriteConfigAs(p); err != nil {
		return err
	}
	return os.Chmod(p, 0o600)
}
