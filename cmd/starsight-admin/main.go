package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := NewRootCommand()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func NewRootCommand() *cobra.Command {
	var envFiles []string

	rootCmd := &cobra.Command{
		Use:   "starsight-admin",
		Short: "Starsight content administration",
		Long: `Administration tool for the Starsight content API.

Reads the same environment as the server (DATABASE_URL, STORAGE_URL, ...);
run "starsight-server -env-help" for the full list.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "env files to load before reading the environment (default .env when present)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")

	rootCmd.AddCommand(NewMigrateCommand())
	rootCmd.AddCommand(NewStatusCommand())
	rootCmd.AddCommand(NewSeedCommand())
	rootCmd.AddCommand(NewSlugCommand())

	return rootCmd
}
