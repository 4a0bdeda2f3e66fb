// Package store defines the persistence contract used by the itemizer and
// provides an in-memory implementation.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/cleared-dev/receipts/internal/model"
)

var (
	// ErrAmbiguousAlias means more than one alias pattern matched a description.
	ErrAmbiguousAlias = errors.New("ambiguous vendor alias configuration")
	// ErrDuplicatePeriodicPayment means two periodic payments share (currency, amount).
	ErrDuplicatePeriodicPayment = errors.New("duplicate periodic payment")
	// ErrDuplicate means a unique name or pattern already exists.
	ErrDuplicate = errors.New("duplicate record")
	// ErrNotFound means a referenced record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrTxDone means Commit or Rollback was already called.
	ErrTxDone = errors.New("transaction already finished")
)

// Lookups are the point reads the itemizer performs per row. Each returns
// found=false instead of an error when nothing matches.
type Lookups interface {
	FindPaymentMethodBySuffix(ctx context.Context, suffix string) (model.PaymentMethod, bool, error)
	FindPaymentMethodByName(ctx context.Context, name string) (model.PaymentMethod, bool, error)
	// FindVendorAlias matches EQUAL patterns by equality and LIKE patterns
	// with SQL LIKE semantics against an upper-cased description.
	FindVendorAlias(ctx context.Context, upperDescription string) (model.VendorAlias, bool, error)
	FindPeriodicPayment(ctx context.Context, currency model.Currency, amount int64) (model.PeriodicPayment, bool, error)
	ExclusionExists(ctx context.Context, upperDescription string, on time.Time, amount int64) (bool, error)
	DispatchTable(ctx context.Context) ([]model.DispatchEntry, error)
}

// Writer persists itemization results and fixture data. Create methods
// assign IDs and return the stored record.
type Writer interface {
	SaveClassifiedTransaction(ctx context.Context, txn model.ClassifiedTransaction) (string, error)
	SaveTaxAdjustment(ctx context.Context, adj model.TaxAdjustment) (string, error)

	CreatePaymentMethod(ctx context.Context, pm model.PaymentMethod) (model.PaymentMethod, error)
	CreateAsset(ctx context.Context, asset model.FinancialAsset) (model.FinancialAsset, error)
	CreateVendor(ctx context.Context, vendor model.Vendor) (model.Vendor, error)
	CreateVendorAlias(ctx context.Context, alias model.VendorAlias) (model.VendorAlias, error)
	CreatePeriodicPayment(ctx context.Context, pp model.PeriodicPayment) (model.PeriodicPayment, error)
	CreateExclusion(ctx context.Context, cond model.ExclusionCondition) (model.ExclusionCondition, error)
}

// Reports are the read paths used by export and the report API.
type Reports interface {
	// ListClassifiedTransactions returns transactions dated within [start, end]
	// ordered by date, description and amount.
	ListClassifiedTransactions(ctx context.Context, start, end time.Time) ([]model.ReportedTransaction, error)
	ListVendors(ctx context.Context) ([]model.Vendor, error)
	ListVendorAliases(ctx context.Context) ([]model.VendorAlias, error)
	ListPeriodicPayments(ctx context.Context) ([]model.PeriodicPayment, error)
}

// Querier is everything available inside a transaction.
type Querier interface {
	Lookups
	Writer
	Reports
}

// Tx is a unit of work; nothing written through it is visible outside until Commit.
type Tx interface {
	Querier
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Store opens transactions against a backend.
type Store interface {
	Reports
	Begin(ctx context.Context) (Tx, error)
	Close()
}

// WithTx runs fn in a transaction, committing when fn returns nil.
func WithTx(ctx context.Context, s Store, fn func(q Querier) error) (err error) {
	tx, err := s.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
