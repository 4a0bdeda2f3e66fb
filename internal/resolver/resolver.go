// Package resolver finds the vendor, expense category and asset for a raw
// transaction.
package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/cleared-dev/receipts/internal/model"
	"github.com/cleared-dev/receipts/internal/store"
)

// Match is a resolved classification.
type Match struct {
	Vendor   model.Vendor
	Category *model.ExpenseCategory
	Asset    *model.FinancialAsset
	Periodic bool // matched by amount rather than description
}

// Resolver looks vendors up through store lookups.
type Resolver struct {
	q store.Lookups
}

// New creates a resolver reading from q.
func New(q store.Lookups) *Resolver {
	return &Resolver{q: q}
}

// IsPeriodicPayment reports whether txn carries no description to match and
// must be identified by its amount: a CAD cheque deposit with an empty
// description.
func IsPeriodicPayment(txn model.RawTransaction) bool {
	return txn.MiscValue(model.MiscTransactionCode) == "CD" &&
		txn.Description == "" &&
		txn.Currency == model.CurrencyCAD
}

// Resolve classifies txn. ok is false when nothing matched; lookup errors,
// including ambiguous configuration, are returned.
func (r *Resolver) Resolve(ctx context.Context, txn model.RawTransaction) (Match, bool, error) {
	if IsPeriodicPayment(txn) {
		pp, found, err := r.q.FindPeriodicPayment(ctx, txn.Currency, txn.Amount)
		if err != nil || !found {
			return Match{}, false, wrap(err, "periodic payment")
		}
		return Match{
			Vendor:   pp.Vendor,
			Category: pp.Vendor.DefaultCategory,
			Asset:    pp.Vendor.DefaultAsset,
			Periodic: true,
		}, true, nil
	}

	alias, found, err := r.q.FindVendorAlias(ctx, strings.ToUpper(txn.Description))
	if err != nil || !found {
		return Match{}, false, wrap(err, "vendor alias")
	}
	m := Match{
		Vendor:   alias.Vendor,
		Category: alias.Vendor.DefaultCategory,
		Asset:    alias.Vendor.DefaultAsset,
	}
	if alias.DefaultCategory != nil {
		m.Category = alias.DefaultCategory
	}
	if alias.DefaultAsset != nil {
		m.Asset = alias.DefaultAsset
	}
	return m, true, nil
}

func wrap(err error, what string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("resolving %s: %w", what, err)
}
