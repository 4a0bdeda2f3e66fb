// Package tax derives embedded tax components from tax-inclusive totals.
package tax

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/receipts/internal/model"
)

// ErrUnsupportedTaxType is returned for a tax type with no calculation rule.
var ErrUnsupportedTaxType = errors.New("unsupported tax type")

// hstRate is the Ontario HST rate; the embedded share of a total is rate/(1+rate).
var hstRate = decimal.RequireFromString("0.13")

// Compute returns the tax component embedded in total (minor units). The
// result carries the sign of total and is rounded to the nearest minor unit.
func Compute(taxType model.TaxType, total int64) (int64, error) {
	switch taxType {
	case model.TaxTypeHST:
		return embedded(total, hstRate), nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedTaxType, taxType)
	}
}

// embedded computes round(total * rate / (1 + rate)) exactly. DivRound rounds
// half away from zero, which keeps the result symmetric in sign.
func embedded(total int64, rate decimal.Decimal) int64 {
	numerator := decimal.NewFromInt(total).Mul(rate)
	return numerator.DivRound(decimal.NewFromInt(1).Add(rate), 0).IntPart()
}

// Adjustment builds the TaxAdjustment for a persisted transaction.
func Adjustment(taxType model.TaxType, txn model.ClassifiedTransaction) (model.TaxAdjustment, error) {
	amount, err := Compute(taxType, txn.TotalAmount)
	if err != nil {
		return model.TaxAdjustment{}, err
	}
	return model.TaxAdjustment{
		TransactionID: txn.ID,
		TaxType:       taxType,
		Amount:        amount,
	}, nil
}
