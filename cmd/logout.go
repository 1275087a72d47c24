// Copyright (c) 2025 nsctl contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"nsctl/cli/internal/session"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// logoutCmd represents the logout command for clearing authentication state.
// It revokes the token on the controller (best-effort) and removes every
// stored credential.
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the saved session and token",
	Long: `The logout command clears all authentication state from the local system,
including the access token and the session snapshot in the OS keychain. It also
attempts to notify the controller to invalidate the current token (best-effort).`,

	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}

		wasLoggedIn := a.state.IsLoggedIn()
		a.state.SubscribeField(session.FieldLoggedIn, func(c session.Change) {
			a.log.WithField("username", c.Old.Username).Debug("session closed")
		})

		// Remote logout never fails the command; local cleanup does.
		if err := a.auth.Logout(cmd.Context()); err != nil {
			return err
		}

		if !wasLoggedIn {
			pterm.Info.Println("No active session; local credentials cleared")
			return nil
		}
		pterm.Success.Println("Session and token have been removed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
