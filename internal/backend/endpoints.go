// Copyright (c) 2025 nsctl contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"net/url"
	"strings"
)

// Endpoints contains REST API endpoint paths relative to the controller base URL.
type Endpoints struct {
	Login    string `mapstructure:"login"`    // e.g., "/login"
	Logout   string `mapstructure:"logout"`   // e.g., "/logout"
	Refresh  string `mapstructure:"refresh"`  // e.g., "/refresh"
	Units    string `mapstructure:"units"`    // e.g., "/units"
	Accounts string `mapstructure:"accounts"` // e.g., "/accounts"
}

// DefaultEndpoints returns the paths served by the controller API.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Login:    "/login",
		Logout:   "/logout",
		Refresh:  "/refresh",
		Units:    "/units",
		Accounts: "/accounts",
	}
}

// withDefaults fills empty paths from DefaultEndpoints.
func (e Endpoints) withDefaults() Endpoints {
	d := DefaultEndpoints()
	if e.Login == "" {
		e.Login = d.Login
	}
	if e.Logout == "" {
		e.Logout = d.Logout
	}
	if e.Refresh == "" {
		e.Refresh = d.Refresh
	}
	if e.Units == "" {
		e.Units = d.Units
	}
	if e.Accounts == "" {
		e.Accounts = d.Accounts
	}
	return e
}

// join appends escaped id segments to an endpoint path.
func join(base string, segments ...string) string {
	p := strings.TrimRight(base, "/")
	for _, seg := range segments {
		p += "/" + url.PathEscape(seg)
	}
	return p
}

// NormalizeBaseURL turns user input into a base URL: https is assumed when
// the scheme is missing and trailing slashes are dropped.
// It returns "" when the input cannot be parsed or has no host.
func NormalizeBaseURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	base := u.Scheme + "://" + u.Host + u.Path
	return strings.TrimRight(base, "/")
}
