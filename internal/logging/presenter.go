// Copyright (c) 2025 nsctl contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"errors"
	"fmt"
	"strings"

	clierrors "nsctl/cli/internal/errors"

	"github.com/pterm/pterm"
)

// PresentError formats an error for user display with masking.
func PresentError(context string, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", context, Mask(err.Error()))
}

// FormatAuthError renders an authentication failure in a user-friendly way.
// The explanation depends on the error kind; the technical cause is shown
// masked at the bottom.
func FormatAuthError(err error) string {
	if err == nil {
		return ""
	}

	var builder strings.Builder

	switch {
	case clierrors.Is(err, clierrors.InvalidCredentials):
		builder.WriteString(pterm.NewStyle(pterm.FgRed, pterm.Bold).Sprint("Login Failed"))
		builder.WriteString("\n\n")
		builder.WriteString("The controller rejected the username or password.\n")
		builder.WriteString(pterm.NewStyle(pterm.FgYellow).Sprint("→ Check your credentials and run 'nsctl login' again"))

	case clierrors.Is(err, clierrors.SessionExpired):
		builder.WriteString(pterm.NewStyle(pterm.FgRed, pterm.Bold).Sprint("Session Expired"))
		builder.WriteString("\n\n")
		builder.WriteString("Your session expired and could not be refreshed.\n")
		builder.WriteString(pterm.NewStyle(pterm.FgYellow).Sprint("→ Please run 'nsctl login' and try again"))

	case clierrors.Is(err, clierrors.NotLoggedIn):
		builder.WriteString(pterm.NewStyle(pterm.FgYellow, pterm.Bold).Sprint("Not Logged In"))
		builder.WriteString("\n\n")
		builder.WriteString("This command needs an authenticated session.\n")
		builder.WriteString(pterm.NewStyle(pterm.FgYellow).Sprint("→ Run 'nsctl login' to get started"))

	case clierrors.Is(err, clierrors.SecureStorage):
		builder.WriteString(pterm.NewStyle(pterm.FgRed, pterm.Bold).Sprint("Secure Storage Unavailable"))
		builder.WriteString("\n\n")
		builder.WriteString("The OS keychain could not be opened.\n")
		builder.WriteString("  • On Linux, make sure a Secret Service (gnome-keyring, KWallet) is running\n")
		builder.WriteString("  • Or set NSCTL_KEYRING_PASSWORD to use the encrypted file store\n")

	case clierrors.Is(err, clierrors.ServerRejected):
		builder.WriteString(pterm.NewStyle(pterm.FgRed, pterm.Bold).Sprint("Request Rejected"))
		builder.WriteString("\n\n")
		var typed *clierrors.E
		if errors.As(err, &typed) && typed.Message != "" {
			builder.WriteString("The controller answered: " + Mask(typed.Message) + "\n")
		} else {
			builder.WriteString("The controller did not accept the request.\n")
		}

	default:
		builder.WriteString(pterm.NewStyle(pterm.FgRed, pterm.Bold).Sprint("Request Failed"))
		builder.WriteString("\n\n")
		builder.WriteString("The controller did not accept the request.\n")
	}

	builder.WriteString("\n\n")
	builder.WriteString(pterm.NewStyle(pterm.FgGray).Sprint("Technical details: " + Mask(err.Error())))

	return builder.String()
}

// PresentAuthError displays a formatted authentication error.
func PresentAuthError(err error) {
	fmt.Println()
	fmt.Println(FormatAuthError(err))
	fmt.Println()
}
