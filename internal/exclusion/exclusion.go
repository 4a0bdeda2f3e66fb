// Package exclusion decides which raw transactions are noise (transfers,
// card payments, cheques) and must not be itemized.
package exclusion

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/cleared-dev/receipts/internal/config"
	"github.com/cleared-dev/receipts/internal/model"
	"github.com/cleared-dev/receipts/internal/store"
)

// ErrUnknownFilter means the configuration names a filter that is not registered.
var ErrUnknownFilter = errors.New("unknown exclusion filter")

// Filter excludes transactions. Filters never modify the transaction.
type Filter interface {
	Name() string
	IsExclusion(ctx context.Context, txn model.RawTransaction) (bool, error)
}

// Chain excludes a transaction when any of its filters does.
type Chain []Filter

// IsExclusion reports whether any filter excludes txn.
func (c Chain) IsExclusion(ctx context.Context, txn model.RawTransaction) (bool, error) {
	_, excluded, err := c.Match(ctx, txn)
	return excluded, err
}

// Match returns the name of the first filter that excludes txn.
func (c Chain) Match(ctx context.Context, txn model.RawTransaction) (string, bool, error) {
	for _, f := range c {
		excluded, err := f.IsExclusion(ctx, txn)
		if err != nil {
			return "", false, fmt.Errorf("exclusion filter %s: %w", f.Name(), err)
		}
		if excluded {
			return f.Name(), true, nil
		}
	}
	return "", false, nil
}

// Constructor builds a filter reading from q.
type Constructor func(q store.Lookups) Filter

var registry = map[string]Constructor{
	"exclusion_conditions":       newConditionFilter,
	"bmo_transaction_codes":      func(store.Lookups) Filter { return bmoTransactionCodes{} },
	"credit_payments":            func(store.Lookups) Filter { return creditPayments{} },
	"cra_payments":               func(store.Lookups) Filter { return craPayments{} },
	"wellsfargo_online_payments": func(store.Lookups) Filter { return wellsFargoOnlinePayments{} },
	"checks":                     func(store.Lookups) Filter { return checks{} },
}

// Names lists the registered filter identifiers.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build resolves filter names in order and appends the custom filters.
func Build(names []string, custom []config.CustomExclusion, q store.Lookups) (Chain, error) {
	chain := make(Chain, 0, len(names)+len(custom))
	for _, name := range names {
		c, ok := registry[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownFilter, name)
		}
		chain = append(chain, c(q))
	}
	for _, ce := range custom {
		f, err := NewCustom(ce)
		if err != nil {
			return nil, err
		}
		chain = append(chain, f)
	}
	return chain, nil
}
