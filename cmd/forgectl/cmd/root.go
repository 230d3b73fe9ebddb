// Package cmd contains the CLI commands for taskforge.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Used for flags
	verbose bool
	output  string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "forgectl",
	Short: "TaskForge - Team Task Management",
	Long: `TaskForge is a team task and project management backend
built in Go with role-based project access control.

These commands operate directly on the database file and are intended
for administrators. Day-to-day task and project work goes through the
REST API served by taskforge-server.

Examples:
  # List all users
  forgectl user list

  # Create an admin user
  forgectl user create --username admin --email admin@example.com --role admin

  # List all projects
  forgectl project list

  # Show task statistics for a project
  forgectl project stats --id 550e8400-e29b-41d4-a716-446655440000`,
	// Run when no subcommand is specified
	Run: func(cmd *cobra.Command, args []string) {
		// Show help by default
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "output format (table, json, plain)")
}

// IsVerbose returns whether verbose mode is enabled.
func IsVerbose() bool {
	return verbose
}

// GetOutput returns the output format.
func GetOutput() string {
	return output
}

// PrintError prints an error message and exits if fatal is true.
func PrintError(msg string, fatal bool) {
	fmt.Fprintln(os.Stderr, "Error:", msg)
	if fatal {
		os.Exit(1)
	}
}

// PrintVerbose prints a message only if verbose mode is enabled.
func PrintVerbose(format string, args ...interface{}) {
	if verbose {
		fmt.Printf(format+"\n", args...)
	}
}
