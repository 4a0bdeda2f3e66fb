// Package itemize classifies raw transactions and persists the results.
package itemize

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cleared-dev/receipts/internal/exclusion"
	"github.com/cleared-dev/receipts/internal/logging"
	"github.com/cleared-dev/receipts/internal/model"
	"github.com/cleared-dev/receipts/internal/money"
	"github.com/cleared-dev/receipts/internal/report"
	"github.com/cleared-dev/receipts/internal/resolver"
	"github.com/cleared-dev/receipts/internal/store"
	"github.com/cleared-dev/receipts/internal/tax"
)

var (
	// ErrPaymentMethodNotFound means a row's card suffix is unknown, or the
	// row has neither a suffix nor a fixed payment method.
	ErrPaymentMethodNotFound = errors.New("payment method not found")
	// ErrFailures means at least one row could not be classified.
	ErrFailures = errors.New("unmatched transactions")
)

// Stats counts what happened to the rows of one file.
type Stats struct {
	Rows      int
	Excluded  int
	Persisted int
	Failures  int
}

// Itemizer classifies the rows of one file.
type Itemizer struct {
	q        store.Querier
	chain    exclusion.Chain
	resolver *resolver.Resolver
	cache    *store.PaymentMethodCache
	sink     func(report.Row)
	file     string
	stats    Stats
}

// Option configures an Itemizer.
type Option func(*Itemizer)

// WithSink receives an itemized row for every persisted transaction.
func WithSink(sink func(report.Row)) Option {
	return func(it *Itemizer) { it.sink = sink }
}

// WithFile names the source file in log output.
func WithFile(name string) Option {
	return func(it *Itemizer) { it.file = name }
}

// New creates an Itemizer writing through q. cache must belong to the
// current run.
func New(q store.Querier, chain exclusion.Chain, cache *store.PaymentMethodCache, opts ...Option) *Itemizer {
	it := &Itemizer{
		q:        q,
		chain:    chain,
		resolver: resolver.New(q),
		cache:    cache,
	}
	for _, opt := range opts {
		opt(it)
	}
	return it
}

// Failures returns the number of rows that could not be classified.
func (it *Itemizer) Failures() int { return it.stats.Failures }

// Stats returns the row counters so far.
func (it *Itemizer) Stats() Stats { return it.stats }

// Process itemizes txns in order. Unclassified rows are persisted and
// counted; any other error stops processing.
func (it *Itemizer) Process(ctx context.Context, txns []model.RawTransaction) error {
	log := logging.FromContext(ctx)
	if it.file != "" {
		log = log.With().Str("file", it.file).Logger()
	}
	for _, txn := range txns {
		if err := it.processOne(ctx, log, txn); err != nil {
			return fmt.Errorf("line %d: %w", txn.LineNumber, err)
		}
	}
	return nil
}

func (it *Itemizer) processOne(ctx context.Context, log zerolog.Logger, txn model.RawTransaction) error {
	it.stats.Rows++

	pm, err := it.paymentMethod(ctx, txn)
	if err != nil {
		return err
	}
	txn.PaymentMethod = &pm

	filter, excluded, err := it.chain.Match(ctx, txn)
	if err != nil {
		return err
	}
	if excluded {
		it.stats.Excluded++
		log.Warn().
			Str("filter", filter).
			Str("description", txn.Description).
			Str("amount", money.FormatMinorUnits(txn.Amount)).
			Msg("Skipping transaction")
		return nil
	}

	match, ok, err := it.resolver.Resolve(ctx, txn)
	if err != nil {
		return err
	}

	ct := model.ClassifiedTransaction{
		TransactionDate: txn.TransactionDate,
		PaymentMethod:   pm,
		TotalAmount:     txn.Amount,
		Currency:        txn.Currency,
		Description:     txn.Description,
	}
	if !ok {
		it.stats.Failures++
		ev := log.Error().Int("line", txn.LineNumber)
		if resolver.IsPeriodicPayment(txn) {
			ev.Str("amount", money.FormatMinorUnits(txn.Amount)).Msg("Pattern not found for amount")
		} else {
			ev.Str("description", txn.Description).Msg("Pattern not found")
		}
	} else {
		vendor := match.Vendor
		ct.Vendor = &vendor
		ct.Asset = match.Asset
		ct.Category = match.Category
		ct.Description = vendor.Name
		if vendor.FixedAmount != nil {
			ct.TotalAmount = *vendor.FixedAmount
			log.Info().
				Str("vendor", vendor.Name).
				Str("amount", money.FormatMinorUnits(ct.TotalAmount)).
				Msg("Using fixed amount")
		}
	}

	id, err := it.q.SaveClassifiedTransaction(ctx, ct)
	if err != nil {
		return err
	}
	ct.ID = id
	it.stats.Persisted++

	var hst *int64
	if ct.Vendor != nil && ct.Vendor.TaxAdjustmentType != nil {
		adj, err := tax.Adjustment(*ct.Vendor.TaxAdjustmentType, ct)
		if err != nil {
			return err
		}
		if _, err := it.q.SaveTaxAdjustment(ctx, adj); err != nil {
			return err
		}
		hst = &adj.Amount
	}

	if it.sink != nil {
		it.sink(report.FromTransaction(ct, hst))
	}
	return nil
}

// paymentMethod prefers the card suffix on the row over the file's fixed method.
func (it *Itemizer) paymentMethod(ctx context.Context, txn model.RawTransaction) (model.PaymentMethod, error) {
	if suffix := strings.TrimSpace(txn.MiscValue(model.MiscLast4Digits)); suffix != "" {
		pm, found, err := it.cache.Get(ctx, it.q, suffix)
		if err != nil {
			return model.PaymentMethod{}, err
		}
		if !found {
			return model.PaymentMethod{}, fmt.Errorf("%w: card ending %s", ErrPaymentMethodNotFound, suffix)
		}
		return pm, nil
	}
	if txn.PaymentMethod != nil {
		return *txn.PaymentMethod, nil
	}
	return model.PaymentMethod{}, ErrPaymentMethodNotFound
}
