package exclusion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cleared-dev/receipts/internal/config"
	"github.com/cleared-dev/receipts/internal/model"
	"github.com/cleared-dev/receipts/internal/money"
)

// custom is a time-boxed rule from configuration. Every set criterion must
// hold for a transaction to be excluded.
type custom struct {
	name           string
	start, end     time.Time
	contains       string
	prefix         string
	amount         *int64
	paymentMethods map[string]bool
	except         map[string]bool
}

// NewCustom builds a filter from a configured custom exclusion.
func NewCustom(ce config.CustomExclusion) (Filter, error) {
	start, err := time.Parse(config.DateLayout, ce.Start)
	if err != nil {
		return nil, fmt.Errorf("custom exclusion %s: start: %w", ce.Name, err)
	}
	end, err := time.Parse(config.DateLayout, ce.End)
	if err != nil {
		return nil, fmt.Errorf("custom exclusion %s: end: %w", ce.Name, err)
	}

	f := &custom{
		name:     ce.Name,
		start:    start,
		end:      end,
		contains: strings.ToUpper(ce.DescriptionContains),
		prefix:   strings.ToUpper(ce.DescriptionPrefix),
	}
	if ce.Amount != "" {
		a, err := money.ParseAmount(ce.Amount)
		if err != nil {
			return nil, fmt.Errorf("custom exclusion %s: amount: %w", ce.Name, err)
		}
		f.amount = &a
	}
	if len(ce.PaymentMethods) > 0 {
		f.paymentMethods = make(map[string]bool, len(ce.PaymentMethods))
		for _, pm := range ce.PaymentMethods {
			f.paymentMethods[pm] = true
		}
	}
	if len(ce.ExceptDescriptions) > 0 {
		f.except = make(map[string]bool, len(ce.ExceptDescriptions))
		for _, d := range ce.ExceptDescriptions {
			f.except[strings.ToUpper(d)] = true
		}
	}
	return f, nil
}

func (f *custom) Name() string { return "custom:" + f.name }

func (f *custom) IsExclusion(_ context.Context, txn model.RawTransaction) (bool, error) {
	on := txn.TransactionDate
	if !model.SameDay(on, f.start) && on.Before(f.start) {
		return false, nil
	}
	if !model.SameDay(on, f.end) && on.After(f.end) {
		return false, nil
	}

	desc := strings.ToUpper(txn.Description)
	switch {
	case f.except[desc]:
		return false, nil
	case f.contains != "" && !strings.Contains(desc, f.contains):
		return false, nil
	case f.prefix != "" && !strings.HasPrefix(desc, f.prefix):
		return false, nil
	case f.amount != nil && *f.amount != txn.Amount:
		return false, nil
	case f.paymentMethods != nil && (txn.PaymentMethod == nil || !f.paymentMethods[txn.PaymentMethod.Name]):
		return false, nil
	}
	return true, nil
}
