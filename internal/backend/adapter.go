// Copyright (c) 2025 nsctl contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package backend provides interfaces and implementations for communicating with
// the NethSecurity controller API. It defines the API contract for
// authentication and unit inventory, plus an HTTP implementation.
package backend

import (
	"context"
	"time"
)

// API defines controller operations the CLI depends on.
// Implementations may call real HTTP endpoints or provide fakes for tests.
type API interface {
	// Login exchanges username and password for a bearer token.
	Login(ctx context.Context, username, password string) (Token, error)
	// Logout invalidates the given token on the controller.
	Logout(ctx context.Context, accessToken string) error
	// Refresh exchanges a still valid token for a fresh one.
	Refresh(ctx context.Context, accessToken string) (Token, error)
	// ListUnits returns the units registered on the controller.
	ListUnits(ctx context.Context, accessToken string) ([]Unit, error)
	// GetUnit returns a single unit by its identifier.
	GetUnit(ctx context.Context, accessToken, unitID string) (Unit, error)
	// AddUnit reserves a unit id and returns the join code the firewall
	// uses to register itself.
	AddUnit(ctx context.Context, accessToken, unitID string) (UnitJoin, error)
	// RemoveUnit deletes a unit and its VPN configuration.
	RemoveUnit(ctx context.Context, accessToken, unitID string) error
	// UnitToken returns a token for the unit's own API, proxied by the controller.
	UnitToken(ctx context.Context, accessToken, unitID string) (Token, error)

	// ChangePassword changes the password of the logged-in account.
	ChangePassword(ctx context.Context, accessToken, oldPassword, newPassword string) error
	// ListAccounts returns the controller accounts.
	ListAccounts(ctx context.Context, accessToken string) ([]Account, error)
	// AddAccount creates an account.
	AddAccount(ctx context.Context, accessToken string, a NewAccount) error
	// RemoveAccount deletes an account by id.
	RemoveAccount(ctx context.Context, accessToken, accountID string) error
}

// Token is a controller-issued bearer token with its expiry.
type Token struct {
	Value  string
	Expire time.Time
}

// Unit is a NethSecurity firewall registered on the controller.
type Unit struct {
	ID               string    `json:"unit_id"`
	Name             string    `json:"unit_name"`
	Version          string    `json:"version"`
	SubscriptionType string    `json:"subscription_type"`
	SystemID         string    `json:"system_id"`
	Created          time.Time `json:"created"`
}

// UnitJoin is returned when a unit is added.
type UnitJoin struct {
	JoinCode string `json:"join_code"`
}

// Account is a controller user.
type Account struct {
	ID          int       `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Created     time.Time `json:"created"`
}

// NewAccount is the body of POST /accounts.
type NewAccount struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}
