// Copyright (c) 2025 nsctl contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the command-line interface for nsctl, a client for the
// NethSecurity controller API. It implements subcommands for authentication
// and unit inventory using the Cobra CLI framework, with pterm for output.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	clierrors "nsctl/cli/internal/errors"
	"nsctl/cli/internal/logging"

	"github.com/spf13/cobra"
)

var (
	showVersion bool
	serverFlag  string
	verbose     bool
	insecure    bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:           "nsctl",
	Short:         "Command-line client for the NethSecurity controller",
	Long:          `nsctl talks to a NethSecurity controller: it logs you in, keeps the session in the OS keychain and lists the managed units.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Root alone only prints help or the version.
		if cmd == cmd.Root() {
			return nil
		}
		a, err := newApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		cmd.SetContext(withApp(cmd.Context(), a))
		return a.guard.Check(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if a, err := appFrom(cmd); err == nil {
			a.close()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			fmt.Printf("nsctl %s\n", Version)
			return nil
		}
		// If no flag is set, show help
		return cmd.Help()
	},
}

// Execute runs the CLI application.
// It executes the root command and handles any errors that occur during execution.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		reportError(err)
		os.Exit(1)
	}
}

// reportError prints err for the user. Typed auth errors get the long
// explanation; everything else a masked one-liner.
func reportError(err error) {
	var typed *clierrors.E
	if errors.As(err, &typed) {
		logging.PresentAuthError(err)
		return
	}
	fmt.Fprintln(os.Stderr, logging.PresentError("error", err))
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Show CLI version information")
	rootCmd.PersistentFlags().StringVar(&serverFlag, "server", "", "Controller base URL (e.g. https://controller.example.com/api)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose debug output")
	rootCmd.PersistentFlags().BoolVar(&insecure, "insecure", false, "Skip TLS certificate verification")
}
