package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"nsctl/cli/internal/backend"
	"nsctl/cli/internal/ui"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	accountDisplayName string
	accountRemoveYes   bool
)

// accountsCmd lists controller accounts.
var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "List controller accounts",

	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}

		var accounts []backend.Account
		err = remote(cmd, a, "Fetching accounts", func(ctx context.Context, be backend.API, token string) error {
			var lerr error
			accounts, lerr = be.ListAccounts(ctx, token)
			return lerr
		})
		if err != nil {
			return explainFailure(err, "listing accounts", a.cfg.Server)
		}

		data := pterm.TableData{{"ID", "Username", "Display name", "Created"}}
		for _, acc := range accounts {
			name := acc.Username
			if name == a.state.Username() {
				name += " (you)"
			}
			data = append(data, []string{strconv.Itoa(acc.ID), name, valueOr(acc.DisplayName, "-"), formatCreated(acc.Created)})
		}
		table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), table)
		return nil
	},
}

var accountsAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Create a controller account",
	Args:  cobra.ExactArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}
		password, err := newPassword(promptFactory(), "Password for "+args[0])
		if err != nil {
			return err
		}

		acc := backend.NewAccount{Username: args[0], Password: password, DisplayName: accountDisplayName}
		err = remote(cmd, a, "Creating account", func(ctx context.Context, be backend.API, token string) error {
			return be.AddAccount(ctx, token, acc)
		})
		if err != nil {
			return explainFailure(err, "creating the account", a.cfg.Server)
		}
		pterm.Success.Printf("Account %s created\n", args[0])
		return nil
	},
}

var accountsRemoveCmd = &cobra.Command{
	Use:     "remove <account-id>",
	Aliases: []string{"rm"},
	Short:   "Delete a controller account",
	Args:    cobra.ExactArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}
		if _, err := strconv.Atoi(args[0]); err != nil {
			return errors.New("account id must be a number; see 'nsctl accounts'")
		}
		ok, err := confirm(fmt.Sprintf("Delete account %s?", args[0]), accountRemoveYes)
		if err != nil {
			return err
		}
		if !ok {
			pterm.Info.Println("Nothing deleted")
			return nil
		}

		err = remote(cmd, a, "Deleting account", func(ctx context.Context, be backend.API, token string) error {
			return be.RemoveAccount(ctx, token, args[0])
		})
		if err != nil {
			return explainFailure(err, "deleting the account", a.cfg.Server)
		}
		pterm.Success.Printf("Account %s deleted\n", args[0])
		return nil
	},
}

func init() {
	accountsCmd.Annotations = ui.RequireLogin()
	accountsAddCmd.Flags().StringVar(&accountDisplayName, "display-name", "", "Name shown in the controller UI")
	accountsRemoveCmd.Flags().BoolVarP(&accountRemoveYes, "yes", "y", false, "Do not ask for confirmation")
	accountsCmd.AddCommand(accountsAddCmd, accountsRemoveCmd)
	rootCmd.AddCommand(accountsCmd)
}
