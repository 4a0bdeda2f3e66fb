package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/receipts/internal/importer"
	"github.com/cleared-dev/receipts/internal/itemize"
	"github.com/cleared-dev/receipts/internal/report"
	"github.com/cleared-dev/receipts/internal/runlog"
	"github.com/cleared-dev/receipts/internal/store"
)

type itemizeOptions struct {
	dryRun      bool
	csvOutput   string
	fixturesDir string
	keepFiles   bool
}

func newItemizeCommand(g *globalFlags) *cobra.Command {
	var opts itemizeOptions

	cmd := &cobra.Command{
		Use:   "itemize [file...]",
		Short: "Classify statement files and save the results",
		Long: `Classify statement files and save the results in one transaction.

Without arguments every CSV file in the import directory is itemized and,
after a successful commit, moved to the processed directory. The run is
rolled back when any row cannot be matched to a vendor.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(g)
			if err != nil {
				return err
			}
			ctx := p.context(cmd.Context())

			st, err := p.openStore(ctx, opts.fixturesDir)
			if err != nil {
				return err
			}
			defer st.Close()

			res, err := runItemize(ctx, p, st, args, opts)
			if res.RunID != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Run %s: %s (%d files, %d failures)\n",
					res.RunID, res.Outcome, len(res.Files), res.Failures)
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "itemize without saving")
	cmd.Flags().StringVar(&opts.csvOutput, "csv-output", "", "write itemized rows to this CSV file")
	cmd.Flags().StringVar(&opts.fixturesDir, "fixtures", "", "use an in-memory store loaded from this fixtures directory")
	cmd.Flags().BoolVar(&opts.keepFiles, "keep", false, "leave scanned files in the import directory")

	return cmd
}

// runItemize itemizes paths, or the import directory when paths is empty.
func runItemize(ctx context.Context, p *project, st store.Store, paths []string, opts itemizeOptions) (itemize.Result, error) {
	scanned := len(paths) == 0
	if scanned {
		files, err := importer.Scan(p.cfg.Import.Dir)
		if err != nil {
			return itemize.Result{}, err
		}
		for _, f := range files {
			paths = append(paths, f.Path)
		}
		if len(paths) == 0 {
			p.log.Info().Str("dir", p.cfg.Import.Dir).Msg("no statement files to itemize")
			return itemize.Result{}, nil
		}
	}

	var rows report.Collector
	b := &itemize.Batch{
		Store:            st,
		Registry:         importer.DefaultRegistry(),
		Filters:          p.cfg.ExclusionFilters,
		CustomExclusions: p.cfg.CustomExclusions,
		DryRun:           opts.dryRun,
		Sink:             rows.Add,
		RunLog:           p.cfg.Import.RunLog,
	}
	res, runErr := b.Run(ctx, paths)

	if opts.csvOutput != "" && (runErr == nil || errors.Is(runErr, itemize.ErrFailures)) {
		if err := writeRows(opts.csvOutput, rows.Rows(), true); err != nil {
			return res, errors.Join(runErr, err)
		}
	}
	if runErr != nil {
		return res, runErr
	}

	if scanned && !opts.keepFiles && res.Outcome == runlog.OutcomeCommitted {
		return res, markProcessed(p, paths)
	}
	return res, nil
}

// markProcessed moves every committed file, logging the ones left behind.
func markProcessed(p *project, paths []string) error {
	var errs []error
	for _, path := range paths {
		if err := importer.MarkProcessed(path, p.cfg.Import.ProcessedDir); err != nil {
			p.log.Error().Err(err).Str("file", path).Msg("file left in import dir")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func writeRows(path string, rows []report.Row, withHeader bool) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := report.Write(f, rows, withHeader); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
