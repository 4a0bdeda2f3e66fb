package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/receipts/internal/store/postgres"
)

func newMigrateCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(g)
			if err != nil {
				return err
			}
			if p.cfg.Database.URL == "" {
				return errNoDatabase
			}

			version, dirty, err := postgres.Migrate(p.cfg.Database.URL)
			if err != nil {
				return err
			}
			if dirty {
				p.log.Warn().Uint("version", version).Msg("database is dirty: a migration failed part way")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Database at migration version %d\n", version)
			return nil
		},
	}
}
