// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
)

var buildVersion = "dev"

var rootCmd = &cobra.Command{
	Use:   "ghcount",
	Short: "A CLI tool to count production and test lines across GitHub repositories.",
	Long: `ghcount classifies the source files of GitHub repositories as production or
test code, counts their lines per language and sums the counts per repository,
per team and for the whole organization.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(version string) {
	if version != "" {
		buildVersion = version
	}
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// newLogger discards all logs unless the persistent verbose flag is set.
func newLogger(cmd *cobra.Command) *log.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	logger := log.New(io.Discard, "", log.LstdFlags)
	if verbose {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

func init() {
	// Add a persistent flag for verbose output, available to all commands.
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
}
