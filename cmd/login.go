// Copyright (c) 2025 nsctl contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"nsctl/cli/internal/backend"
	"nsctl/cli/internal/config"
	"nsctl/cli/internal/httperrors"
	"nsctl/cli/internal/terminal"
	"nsctl/cli/internal/ui"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	loginUsername      string
	loginPasswordStdin bool
	loginForce         bool
)

// promptFactory is swapped in tests.
var promptFactory = terminal.NewPrompter

// loginCmd represents the login command.
// It asks for the controller credentials, exchanges them for a token and
// keeps the session in the OS keychain.
var loginCmd = &cobra.Command{
	Use:     "login",
	Aliases: []string{"auth"},
	Short:   "Log in to the controller",
	Long: `The login command authenticates against the NethSecurity controller with a
username and password. The returned token is stored in the OS keychain and the
controller address is remembered in the config file for later commands. Other
settings such as --insecure are not saved.

If already logged in, the command does nothing unless --force is given.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}
		p := promptFactory()

		if a.state.IsLoggedIn() && !loginForce && !cmd.Flags().Changed("server") {
			pterm.Info.Printf("Already logged in as %s\n", a.state.Username())
			return nil
		}

		server := a.cfg.Server
		if server == "" {
			raw, err := p.Line("Controller URL: ")
			if err != nil {
				return err
			}
			server = backend.NormalizeBaseURL(raw)
		}
		if err := requireServer(server); err != nil {
			return err
		}
		if server != a.cfg.Server {
			a.useServer(server)
		}

		username := strings.TrimSpace(loginUsername)
		if username == "" {
			prompt := "Username: "
			// A restored username without a live session is offered as the default.
			if last := a.state.Username(); last != "" {
				prompt = fmt.Sprintf("Username [%s]: ", last)
			}
			username, err = p.Line(prompt)
			if err != nil {
				return err
			}
			if username == "" {
				username = a.state.Username()
			}
		}

		password, err := readPassword(p, loginPasswordStdin, os.Stdin)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.Timeout)
		defer cancel()

		if err := loginWithHeader(ctx, a, p.Interactive(), username, password); err != nil {
			return explainFailure(err, "logging in", server)
		}

		// The prompts have served their purpose; the success line replaces them.
		p.Tidy()
		if err := config.SaveServer(server); err != nil {
			a.log.WithError(err).Warn("could not remember controller address")
		}

		pterm.Success.Printf("Logged in to %s as %s\n", httperrors.ExtractHostFromURL(server), a.state.Username())
		return nil
	},
}

// loginWithHeader runs the login while a live header follows the session
// state, so the line flips from "not logged in" to the user on success.
func loginWithHeader(ctx context.Context, a *app, interactive bool, username, password string) error {
	if !interactive {
		return a.auth.Login(ctx, username, password)
	}
	header, err := ui.StartHeader(a.state, httperrors.ExtractHostFromURL(a.cfg.Server))
	if err != nil {
		return a.auth.Login(ctx, username, password)
	}
	defer header.Close()
	return a.auth.Login(ctx, username, password)
}

// readPassword takes the password from stdin when asked to, otherwise
// prompts without echo.
func readPassword(p *terminal.Prompter, fromStdin bool, stdin io.Reader) (string, error) {
	if fromStdin {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", err
		}
		return strings.TrimRight(string(b), "\r\n"), nil
	}
	return p.Password("Password: ")
}

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Controller username")
	loginCmd.Flags().BoolVar(&loginPasswordStdin, "password-stdin", false, "Read the password from stdin")
	loginCmd.Flags().BoolVar(&loginForce, "force", false, "Log in again even when a session exists")
}
