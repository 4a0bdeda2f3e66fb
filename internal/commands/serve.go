package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/receipts/internal/server"
)

func newServeCommand(g *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only report API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(g)
			if err != nil {
				return err
			}
			if addr != "" {
				p.cfg.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(p.context(cmd.Context()), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st, err := p.openStore(ctx, "")
			if err != nil {
				return err
			}
			defer st.Close()

			return server.New(st, p.cfg.Server, p.log).Run(ctx, p.cfg.Server.Addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")

	return cmd
}
