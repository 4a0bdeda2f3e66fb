package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/receipts/internal/config"
	"github.com/cleared-dev/receipts/internal/report"
)

func newExportCommand(g *globalFlags) *cobra.Command {
	var withHeader bool

	cmd := &cobra.Command{
		Use:   "export <start> <end> [output]",
		Short: "Export itemized transactions dated between start and end (YYYY-MM-DD, inclusive)",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := time.Parse(config.DateLayout, args[0])
			if err != nil {
				return fmt.Errorf("start date: %w", err)
			}
			end, err := time.Parse(config.DateLayout, args[1])
			if err != nil {
				return fmt.Errorf("end date: %w", err)
			}
			if end.Before(start) {
				return fmt.Errorf("end date %s is before start date %s", args[1], args[0])
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

			txns, err := st.ListClassifiedTransactions(ctx, start, end)
			if err != nil {
				return err
			}
			rows := make([]report.Row, 0, len(txns))
			for _, t := range txns {
				rows = append(rows, report.FromReported(t))
			}
			report.Sort(rows)

			if len(args) == 3 {
				if err := writeRows(args[2], rows, withHeader); err != nil {
					return err
				}
				p.log.Info().Int("rows", len(rows)).Str("file", args[2]).Msg("exported transactions")
				return nil
			}
			return report.Write(cmd.OutOrStdout(), rows, withHeader)
		},
	}

	cmd.Flags().BoolVar(&withHeader, "with-header", false, "write a header row")

	return cmd
}
