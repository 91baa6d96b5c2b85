package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var dbFlag string
	var settingsFlag string
	var logLevel string

	ctx := newCommandContext(&dbFlag, &settingsFlag, &logLevel)

	rootCmd := &cobra.Command{
		Use:           "showctl",
		Short:         "Inspect the show index and queue tier moves",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dbFlag, "db", "", "Database path (defaults to SHOWMOVER_DB_PATH)")
	rootCmd.PersistentFlags().StringVar(&settingsFlag, "settings", "", "Settings file path (defaults to SHOWMOVER_SETTINGS_PATH)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(newShowsCommand(ctx))
	rootCmd.AddCommand(newJobsCommand(ctx))
	rootCmd.AddCommand(newJobCommand(ctx))
	rootCmd.AddCommand(newMoveCommand(ctx))
	rootCmd.AddCommand(newScanCommand(ctx))
	rootCmd.AddCommand(newPoolsCommand(ctx))

	return rootCmd
}
