package cmd

import (
	"fmt"
	"time"

	"nsctl/cli/internal/httperrors"
	"nsctl/cli/internal/ui"

	"github.com/spf13/cobra"
)

// whoamiCmd shows the current session from local state only; it never
// contacts the controller, except for the refresh attempted at startup.
var whoamiCmd = &cobra.Command{
	Use:     "whoami",
	Aliases: []string{"me"},
	Short:   "Show current authenticated account",
	Long: `The whoami command displays the account of the current session and when its
token expires. It reads the local session and works offline.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		id, ok := a.auth.WhoAmI()
		if !ok {
			fmt.Fprintln(out, ui.HeaderText(a.state.Snapshot(), ""))
			fmt.Fprintln(out, "   Run 'nsctl login' to get started.")
			return nil
		}

		fmt.Fprintln(out, ui.HeaderText(a.state.Snapshot(), httperrors.ExtractHostFromURL(a.cfg.Server)))
		if id.Subject != "" && id.Subject != id.Username {
			fmt.Fprintf(out, "   Token identity: %s\n", id.Subject)
		}
		if !id.Expire.IsZero() {
			fmt.Fprintf(out, "   Token %s\n", describeExpiry(id.Expire, time.Now()))
		}
		return nil
	},
}

// describeExpiry renders expire relative to now.
func describeExpiry(expire, now time.Time) string {
	left := expire.Sub(now).Round(time.Second)
	at := expire.Local().Format(time.RFC1123)
	if left <= 0 {
		return fmt.Sprintf("expired %s", at)
	}
	return fmt.Sprintf("expires %s (in %s)", at, left)
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}
