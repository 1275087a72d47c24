package cmd

import (
	"context"
	"errors"

	"nsctl/cli/internal/backend"
	"nsctl/cli/internal/terminal"
	"nsctl/cli/internal/ui"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// passwdCmd changes the password of the logged-in account.
var passwdCmd = &cobra.Command{
	Use:         "passwd",
	Short:       "Change your controller password",
	Long:        `Changes the password of the account you are logged in with. The current session stays valid.`,
	Annotations: ui.RequireLogin(),

	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}
		p := promptFactory()

		current, err := p.Password("Current password: ")
		if err != nil {
			return err
		}
		next, err := newPassword(p, "New password")
		if err != nil {
			return err
		}
		if next == current {
			return errors.New("the new password matches the current one")
		}

		err = remote(cmd, a, "Changing password", func(ctx context.Context, be backend.API, token string) error {
			return be.ChangePassword(ctx, token, current, next)
		})
		if err != nil {
			return explainFailure(err, "changing the password", a.cfg.Server)
		}
		p.Tidy()
		pterm.Success.Printf("Password changed for %s\n", a.state.Username())
		return nil
	},
}

// newPassword asks for a password twice.
func newPassword(p *terminal.Prompter, label string) (string, error) {
	first, err := p.Password(label + ": ")
	if err != nil {
		return "", err
	}
	if first == "" {
		return "", errors.New("password must not be empty")
	}
	again, err := p.Password("Repeat " + lowerFirst(label) + ": ")
	if err != nil {
		return "", err
	}
	if first != again {
		return "", errors.New("passwords do not match")
	}
	return first, nil
}

func lowerFirst(s string) string {
	if s == "" || s[0] < 'A' || s[0] > 'Z' {
		return s
	}
	return string(s[0]+'a'-'A') + s[1:]
}

func init() {
	rootCmd.AddCommand(passwdCmd)
}
