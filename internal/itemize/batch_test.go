package itemize

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/receipts/internal/config"
	"github.com/cleared-dev/receipts/internal/importer"
	"github.com/cleared-dev/receipts/internal/model"
	"github.com/cleared-dev/receipts/internal/report"
	"github.com/cleared-dev/receipts/internal/runlog"
	"github.com/cleared-dev/receipts/internal/store"
)

func newBatch(t *testing.T, s store.Store) *Batch {
	t.Helper()
	return &Batch{
		Store:    s,
		Registry: importer.DefaultRegistry(),
		Filters:  config.Default().ExclusionFilters,
		RunLog:   filepath.Join(t.TempDir(), "logs", "itemize-log.csv"),
		now:      func() time.Time { return time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC) },
	}
}

func listAll(t *testing.T, s store.Reports) int {
	t.Helper()
	txns, err := s.ListClassifiedTransactions(context.Background(),
		time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return len(txns)
}

func TestBatch_Commit(t *testing.T) {
	s := seededStore(t)
	b := newBatch(t, s)
	var rows []report.Row
	b.Sink = func(r report.Row) { rows = append(rows, r) }

	res, err := b.Run(context.Background(), []string{
		"testdata/bmo_savings_2024.csv",
		"testdata/bmo_mastercard_2024.csv",
	})
	require.NoError(t, err)
	assert.Equal(t, runlog.OutcomeCommitted, res.Outcome)
	assert.Zero(t, res.Failures)
	assert.NotEmpty(t, res.RunID)
	require.Len(t, res.Files, 2)
	assert.Equal(t, Stats{Rows: 10, Excluded: 4, Persisted: 6}, res.Files[0].Stats)
	assert.Equal(t, Stats{Rows: 2, Excluded: 1, Persisted: 1}, res.Files[1].Stats)

	assert.Equal(t, 7, listAll(t, s))
	require.Len(t, rows, 7)
	assert.Equal(t, "BMO Mastercard", rows[6].PaymentMethod)
	assert.Equal(t, "-42.10", rows[6].Amount)

	entries, err := runlog.Read(b.RunLog)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "bmo_savings_2024.csv", entries[0].File)
	assert.Equal(t, res.RunID, entries[0].RunID)
	assert.Equal(t, 10, entries[0].Rows)
	assert.Equal(t, 4, entries[0].Excluded)
	assert.Equal(t, runlog.OutcomeCommitted, entries[1].Outcome)
}

func TestBatch_RollsBackOnFailures(t *testing.T) {
	s := seededStore(t)
	b := newBatch(t, s)

	res, err := b.Run(context.Background(), []string{
		"testdata/bmo_savings_2024.csv",
		"testdata/bmo_mastercard_unknown.csv",
	})
	require.ErrorIs(t, err, ErrFailures)
	assert.Equal(t, runlog.OutcomeRolledBack, res.Outcome)
	assert.Equal(t, 1, res.Failures)
	assert.Zero(t, listAll(t, s), "nothing committed")

	entries, err := runlog.Read(b.RunLog)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 1, entries[1].Failures)
	assert.Equal(t, runlog.OutcomeRolledBack, entries[1].Outcome)
	assert.Contains(t, entries[1].Details, "unmatched transactions")
}

func TestBatch_DryRun(t *testing.T) {
	s := seededStore(t)
	b := newBatch(t, s)
	b.DryRun = true

	res, err := b.Run(context.Background(), []string{"testdata/bmo_savings_2024.csv"})
	require.NoError(t, err)
	assert.Equal(t, runlog.OutcomeDryRun, res.Outcome)
	assert.Equal(t, 6, res.Files[0].Stats.Persisted)
	assert.Zero(t, listAll(t, s))
}

func TestBatch_NoParser(t *testing.T) {
	s := seededStore(t)
	b := newBatch(t, s)
	path := filepath.Join(t.TempDir(), "statement.csv")
	require.NoError(t, os.WriteFile(path, []byte("x\n"), 0o644))

	res, err := b.Run(context.Background(), []string{path})
	require.ErrorIs(t, err, importer.ErrNoParser)
	assert.Equal(t, runlog.OutcomeError, res.Outcome)

	entries, err := runlog.Read(b.RunLog)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, runlog.OutcomeError, entries[0].Outcome)
	assert.Empty(t, entries[0].File)
}

func TestBatch_ParseErrorAbortsRun(t *testing.T) {
	s := seededStore(t)
	b := newBatch(t, s)
	b.RunLog = ""
	dir := t.TempDir()
	bad := filepath.Join(dir, "bmo_savings_bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte(
		"First Bank Card,Transaction Type,Date Posted, Transaction Amount,Description\n"+
			"'500766******1234',DEBIT,20240102,abc,'[DS]SHOP'\n"), 0o644))

	_, err := b.Run(context.Background(), []string{"testdata/bmo_savings_2024.csv", bad})
	var perr *importer.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 2, perr.Line)
	assert.Zero(t, listAll(t, s))
}

func TestBatch_EmptyRun(t *testing.T) {
	s := seededStore(t)
	b := newBatch(t, s)
	b.RunLog = ""

	res, err := b.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, runlog.OutcomeCommitted, res.Outcome)
	assert.Empty(t, res.Files)
}

// suffixStore serves FindPaymentMethodBySuffix from a shared, mutable method
// so a test can change what a suffix resolves to between runs.
type suffixStore struct {
	*store.Memory
	method *model.PaymentMethod
}

func (s suffixStore) Begin(ctx context.Context) (store.Tx, error) {
	tx, err := s.Memory.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return suffixTx{Tx: tx, method: s.method}, nil
}

type suffixTx struct {
	store.Tx
	method *model.PaymentMethod
}

func (t suffixTx) FindPaymentMethodBySuffix(ctx context.Context, suffix string) (model.PaymentMethod, bool, error) {
	if suffix == t.method.SafeNumericID {
		return *t.method, true, nil
	}
	return t.Tx.FindPaymentMethodBySuffix(ctx, suffix)
}

func TestBatch_CacheIsPerRun(t *testing.T) {
	mem := seededStore(t)
	method := &model.PaymentMethod{
		ID:            "pm-a",
		Name:          "BMO Savings",
		MethodType:    model.MethodCash,
		SafeNumericID: "1234",
		Currency:      model.CurrencyCAD,
	}
	s := suffixStore{Memory: mem, method: method}
	b := newBatch(t, s)
	b.RunLog = ""

	countByMethod := func() map[string]int {
		txns, err := mem.ListClassifiedTransactions(context.Background(),
			time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		counts := map[string]int{}
		for _, txn := range txns {
			counts[txn.PaymentMethod.ID]++
		}
		return counts
	}

	res, err := b.Run(context.Background(), []string{"testdata/bmo_savings_2024.csv"})
	require.NoError(t, err)
	require.Equal(t, runlog.OutcomeCommitted, res.Outcome)
	assert.Equal(t, map[string]int{"pm-a": 6}, countByMethod())

	// Re-point the suffix at another account. The name is unchanged so the
	// same rows are excluded.
	method.ID = "pm-b"
	method.Description = "BMO joint savings"

	res, err = b.Run(context.Background(), []string{"testdata/bmo_savings_2024.csv"})
	require.NoError(t, err)
	require.Equal(t, runlog.OutcomeCommitted, res.Outcome)
	assert.Equal(t, map[string]int{"pm-a": 6, "pm-b": 6}, countByMethod())
}
