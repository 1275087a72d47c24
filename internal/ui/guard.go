// Copyright (c) 2025 nsctl contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package ui

import (
	clierrors "nsctl/cli/internal/errors"
	"nsctl/cli/internal/session"

	"github.com/spf13/cobra"
)

// AuthAnnotation marks a cobra command that needs a logged-in session.
const AuthAnnotation = "nsctl/auth"

// RequireLogin returns annotations that make Guard protect a command.
func RequireLogin() map[string]string {
	return map[string]string{AuthAnnotation: "required"}
}

// Guard refuses protected commands while the session is logged out.
type Guard struct {
	state *session.State
}

// NewGuard returns a Guard reading st.
func NewGuard(st *session.State) *Guard {
	return &Guard{state: st}
}

// Require returns a NotLoggedIn error unless the login flag is set.
func (g *Guard) Require() error {
	if g.state.IsLoggedIn() {
		return nil
	}
	return clierrors.New(clierrors.NotLoggedIn, "run 'nsctl login' first")
}

// Check applies Require to commands annotated with RequireLogin, including
// subcommands of an annotated parent.
func (g *Guard) Check(cmd *cobra.Command) error {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[AuthAnnotation] == "required" {
			return g.Require()
		}
	}
	return nil
}
