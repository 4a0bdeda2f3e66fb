package commands

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/receipts/internal/itemize"
	"github.com/cleared-dev/receipts/internal/watch"
)

func newWatchCommand(g *globalFlags) *cobra.Command {
	var fixturesDir string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Itemize statement files as they arrive in the import directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(g)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(p.context(cmd.Context()), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st, err := p.openStore(ctx, fixturesDir)
			if err != nil {
				return err
			}
			defer st.Close()

			w := &watch.Watcher{
				Dir: p.cfg.Import.Dir,
				Run: func(ctx context.Context) error {
					_, err := runItemize(ctx, p, st, nil, itemizeOptions{})
					if errors.Is(err, itemize.ErrFailures) {
						p.log.Warn().Msg("files left in import directory until their vendors are configured")
					}
					return err
				},
				Log: p.log,
			}
			p.log.Info().Str("dir", w.Dir).Msg("watching for statements")
			return w.Watch(ctx)
		},
	}

	cmd.Flags().StringVar(&fixturesDir, "fixtures", "", "use an in-memory store loaded from this fixtures directory")

	return cmd
}
