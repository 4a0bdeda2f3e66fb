package commands

import (
	"github.com/spf13/cobra"

	"github.com/cleared-dev/receipts/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	g := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:     "receipts",
		Short:   "Itemize bank and credit card statements into categorized expenses",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&g.dir, "dir", ".", "project directory")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn, error, critical")
	rootCmd.PersistentFlags().StringVar(&g.logFormat, "log-format", "", "log format: console or json")

	rootCmd.AddCommand(
		newInitCommand(),
		newMigrateCommand(g),
		newLoadCommand(g),
		newItemizeCommand(g),
		newExportCommand(g),
		newServeCommand(g),
		newWatchCommand(g),
	)

	return rootCmd
}
