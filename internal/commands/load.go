package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/receipts/internal/fixtures"
)

func newLoadCommand(g *globalFlags) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "load <payment-methods|vendors> <file>",
		Short: "Load payment methods or vendors from a YAML fixture",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := fixtures.ParseKind(args[0])
			if err != nil {
				return err
			}
			p, err := loadProject(g)
			if err != nil {
				return err
			}
			ctx := p.context(cmd.Context())

			st, err := p.openStore(ctx, "")
			if err != nil {
				return err
			}
			defer st.Close()

			tx, err := st.Begin(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = tx.Rollback(ctx) }()

			s, err := fixtures.LoadFile(ctx, tx, kind, args[1])
			if err != nil {
				return err
			}
			printSummary(cmd, s)

			if dryRun {
				fmt.Fprintln(cmd.OutOrStdout(), "Dry run: nothing saved")
				return nil
			}
			return tx.Commit(ctx)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate and roll back")

	return cmd
}

func printSummary(cmd *cobra.Command, s fixtures.Summary) {
	out := cmd.OutOrStdout()
	for _, c := range []struct {
		label string
		n     int
	}{
		{"payment methods", s.PaymentMethods},
		{"assets", s.Assets},
		{"vendors", s.Vendors},
		{"aliases", s.Aliases},
		{"periodic payments", s.PeriodicPayments},
		{"exclusions", s.Exclusions},
	} {
		if c.n > 0 {
			fmt.Fprintf(out, "Loaded %d %s\n", c.n, c.label)
		}
	}
}

