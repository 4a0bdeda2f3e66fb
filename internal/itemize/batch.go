package itemize

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/cleared-dev/receipts/internal/config"
	"github.com/cleared-dev/receipts/internal/exclusion"
	"github.com/cleared-dev/receipts/internal/importer"
	"github.com/cleared-dev/receipts/internal/logging"
	"github.com/cleared-dev/receipts/internal/report"
	"github.com/cleared-dev/receipts/internal/runlog"
	"github.com/cleared-dev/receipts/internal/store"
)

// Batch itemizes a set of files inside one store transaction.
type Batch struct {
	Store            store.Store
	Registry         *importer.Registry
	Filters          []string
	CustomExclusions []config.CustomExclusion
	DryRun           bool
	CacheSize        int
	Sink             func(report.Row)
	RunLog           string // CSV audit log path; empty disables it

	now func() time.Time
}

// FileResult is the outcome for one input file.
type FileResult struct {
	Path  string
	Stats Stats
}

// Result summarizes a run.
type Result struct {
	RunID    string
	Files    []FileResult
	Failures int
	Outcome  runlog.Outcome
}

// Run parses and itemizes paths in order. The transaction is committed only
// when every row was classified and DryRun is unset. ErrFailures is returned
// after rolling back a run with unclassified rows.
func (b *Batch) Run(ctx context.Context, paths []string) (res Result, err error) {
	res.RunID = uuid.NewString()
	log := logging.FromContext(ctx).With().Str("run_id", res.RunID).Logger()
	ctx = logging.WithContext(ctx, log)

	defer func() {
		if err != nil && !errors.Is(err, ErrFailures) {
			res.Outcome = runlog.OutcomeError
		}
		if logErr := b.appendRunLog(res, err); logErr != nil {
			log.Error().Err(logErr).Msg("writing run log")
		}
	}()

	tx, err := b.Store.Begin(ctx)
	if err != nil {
		return res, err
	}
	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, store.ErrTxDone) {
				log.Error().Err(rbErr).Msg("rolling back")
			}
		}
	}()

	table, err := tx.DispatchTable(ctx)
	if err != nil {
		return res, err
	}
	dispatcher, err := importer.NewDispatcher(table, b.Registry)
	if err != nil {
		return res, err
	}
	chain, err := exclusion.Build(b.Filters, b.CustomExclusions, tx)
	if err != nil {
		return res, err
	}
	cache := store.NewPaymentMethodCache(b.CacheSize)

	for _, path := range paths {
		parser, _, err := dispatcher.ParserFor(path)
		if err != nil {
			return res, err
		}
		txns, err := importer.ParseFile(ctx, path, parser)
		if err != nil {
			return res, err
		}

		name := filepath.Base(path)
		it := New(tx, chain, cache, WithFile(name), WithSink(b.Sink))
		if err := it.Process(ctx, txns); err != nil {
			return res, fmt.Errorf("itemizing %s: %w", name, err)
		}

		stats := it.Stats()
		res.Files = append(res.Files, FileResult{Path: path, Stats: stats})
		res.Failures += stats.Failures
		log.Info().
			Str("file", name).
			Int("rows", stats.Rows).
			Int("excluded", stats.Excluded).
			Int("failures", stats.Failures).
			Msg("itemized file")
	}

	switch {
	case res.Failures > 0:
		res.Outcome = runlog.OutcomeRolledBack
		log.Error().Int("failures", res.Failures).Msg("rolling back: unmatched transactions")
		return res, fmt.Errorf("%w: %d", ErrFailures, res.Failures)
	case b.DryRun:
		res.Outcome = runlog.OutcomeDryRun
		log.Info().Msg("dry run: rolling back")
		return res, nil
	}

	if err := tx.Commit(ctx); err != nil {
		return res, err
	}
	committed = true
	res.Outcome = runlog.OutcomeCommitted
	return res, nil
}

func (b *Batch) appendRunLog(res Result, runErr error) error {
	if b.RunLog == "" {
		return nil
	}
	now := time.Now
	if b.now != nil {
		now = b.now
	}
	ts := now().UTC()

	details := ""
	if runErr != nil {
		details = runErr.Error()
	}
	var entries []runlog.Entry
	for _, f := range res.Files {
		entries = append(entries, runlog.Entry{
			Timestamp: ts,
			RunID:     res.RunID,
			File:      filepath.Base(f.Path),
			Rows:      f.Stats.Rows,
			Excluded:  f.Stats.Excluded,
			Failures:  f.Stats.Failures,
			Outcome:   res.Outcome,
			Details:   details,
		})
	}
	if len(entries) == 0 {
		entries = append(entries, runlog.Entry{Timestamp: ts, RunID: res.RunID, Outcome: res.Outcome, Details: details})
	}
	return runlog.Append(b.RunLog, entries)
}
