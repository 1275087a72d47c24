// Copyright (c) 2025 nsctl contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"nsctl/cli/internal/backend"
	"nsctl/cli/internal/ui"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var unitsRemoveYes bool

// unitsCmd lists the units registered on the controller.
var unitsCmd = &cobra.Command{
	Use:   "units",
	Short: "List units managed by the controller",

	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}

		var units []backend.Unit
		err = remote(cmd, a, "Fetching units", func(ctx context.Context, be backend.API, token string) error {
			var lerr error
			units, lerr = be.ListUnits(ctx, token)
			return lerr
		})
		if err != nil {
			return explainFailure(err, "listing units", a.cfg.Server)
		}

		if len(units) == 0 {
			pterm.Info.Println("No units registered yet; add one with 'nsctl units add <unit-id>'")
			return nil
		}
		table, err := pterm.DefaultTable.WithHasHeader().WithData(unitTable(units)).Srender()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), table)
		return nil
	},
}

// unitsShowCmd prints the details of one unit.
var unitsShowCmd = &cobra.Command{
	Use:   "show <unit-id>",
	Short: "Show one unit",
	Args:  cobra.ExactArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}

		var u backend.Unit
		err = remote(cmd, a, "Fetching unit", func(ctx context.Context, be backend.API, token string) error {
			var gerr error
			u, gerr = be.GetUnit(ctx, token, args[0])
			return gerr
		})
		if err != nil {
			return explainFailure(err, "fetching the unit", a.cfg.Server)
		}

		fmt.Fprintln(cmd.OutOrStdout(), pterm.DefaultBox.WithTitle(valueOr(u.Name, u.ID)).WithPadding(1).Sprint(unitDetails(u)))
		return nil
	},
}

// unitsAddCmd reserves a unit on the controller and prints its join code.
var unitsAddCmd = &cobra.Command{
	Use:   "add <unit-id>",
	Short: "Add a unit and print its join code",
	Long: `Adds a unit to the controller. The printed join code is entered on the
firewall, which then registers itself and opens its VPN tunnel.`,
	Args: cobra.ExactArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}

		var join backend.UnitJoin
		err = remote(cmd, a, "Adding unit", func(ctx context.Context, be backend.API, token string) error {
			var aerr error
			join, aerr = be.AddUnit(ctx, token, args[0])
			return aerr
		})
		if err != nil {
			return explainFailure(err, "adding the unit", a.cfg.Server)
		}

		pterm.Success.Printf("Unit %s added\n", args[0])
		if join.JoinCode != "" {
			fmt.Fprintln(cmd.OutOrStdout(), pterm.DefaultBox.WithTitle("Join code").WithPadding(1).Sprint(join.JoinCode))
		}
		return nil
	},
}

// unitsRemoveCmd deletes a unit.
var unitsRemoveCmd = &cobra.Command{
	Use:     "remove <unit-id>",
	Aliases: []string{"rm"},
	Short:   "Remove a unit from the controller",
	Args:    cobra.ExactArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}
		ok, err := confirm(fmt.Sprintf("Remove unit %s?", args[0]), unitsRemoveYes)
		if err != nil {
			return err
		}
		if !ok {
			pterm.Info.Println("Nothing removed")
			return nil
		}

		err = remote(cmd, a, "Removing unit", func(ctx context.Context, be backend.API, token string) error {
			return be.RemoveUnit(ctx, token, args[0])
		})
		if err != nil {
			return explainFailure(err, "removing the unit", a.cfg.Server)
		}
		pterm.Success.Printf("Unit %s removed\n", args[0])
		return nil
	},
}

// unitsTokenCmd prints a token for the unit's own API. Only the token goes
// to stdout so it can be captured by scripts.
var unitsTokenCmd = &cobra.Command{
	Use:   "token <unit-id>",
	Short: "Print an API token for a unit",
	Args:  cobra.ExactArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}

		var tok backend.Token
		err = remote(cmd, a, "Requesting unit token", func(ctx context.Context, be backend.API, token string) error {
			var terr error
			tok, terr = be.UnitToken(ctx, token, args[0])
			return terr
		})
		if err != nil {
			return explainFailure(err, "requesting the unit token", a.cfg.Server)
		}

		fmt.Fprintln(cmd.OutOrStdout(), tok.Value)
		if !tok.Expire.IsZero() {
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", tok.Expire.Local().Format(time.RFC1123))
		}
		return nil
	},
}

// unitTable renders units as table rows, sorted by name, header first.
func unitTable(units []backend.Unit) pterm.TableData {
	sorted := append([]backend.Unit(nil), units...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i].Name) < strings.ToLower(sorted[j].Name)
	})

	data := pterm.TableData{{"ID", "Name", "Version", "Subscription", "Created"}}
	for _, u := range sorted {
		data = append(data, []string{
			u.ID,
			valueOr(u.Name, "-"),
			valueOr(u.Version, "-"),
			valueOr(u.SubscriptionType, "-"),
			formatCreated(u.Created),
		})
	}
	return data
}

func unitDetails(u backend.Unit) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ID:           %s\n", u.ID)
	fmt.Fprintf(&b, "Version:      %s\n", valueOr(u.Version, "-"))
	fmt.Fprintf(&b, "Subscription: %s\n", valueOr(u.SubscriptionType, "-"))
	fmt.Fprintf(&b, "System ID:    %s\n", valueOr(u.SystemID, "-"))
	fmt.Fprintf(&b, "Created:      %s", formatCreated(u.Created))
	return b.String()
}

func formatCreated(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func valueOr(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func init() {
	unitsCmd.Annotations = ui.RequireLogin()
	unitsRemoveCmd.Flags().BoolVarP(&unitsRemoveYes, "yes", "y", false, "Do not ask for confirmation")
	unitsCmd.AddCommand(unitsShowCmd, unitsAddCmd, unitsRemoveCmd, unitsTokenCmd)
	rootCmd.AddCommand(unitsCmd)
}
