// Package main is the entry point for the nsctl CLI application.
// It provides login, session and unit inventory commands for a
// NethSecurity controller.
package main

import (
	"nsctl/cli/cmd"
)

// main is the entry point for the nsctl CLI application.
// It initializes and executes the command-line interface.
func main() {
	cmd.Execute()
}
