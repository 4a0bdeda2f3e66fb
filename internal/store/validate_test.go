package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/receipts/internal/model"
)

func alias(vendor, pattern string, op model.MatchOperation) model.VendorAlias {
	return model.VendorAlias{Vendor: model.Vendor{Name: vendor}, Pattern: pattern, MatchOperation: op}
}

func TestValidatePattern(t *testing.T) {
	assert.NoError(t, ValidatePattern("AMAZON%"))
	assert.Error(t, ValidatePattern(""))
	assert.Error(t, ValidatePattern("   "))
	err := ValidatePattern("Amazon")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be uppercase")
}

func TestValidateAliases(t *testing.T) {
	tests := []struct {
		name      string
		aliases   []model.VendorAlias
		ambiguous bool
		wantErr   bool
	}{
		{
			name: "disjoint",
			aliases: []model.VendorAlias{
				alias("Amazon", "AMAZON%", model.MatchLike),
				alias("Hydro", "TORONTO HYDRO", model.MatchEqual),
			},
		},
		{
			name: "duplicate pattern",
			aliases: []model.VendorAlias{
				alias("A", "SHOP", model.MatchEqual),
				alias("B", "SHOP", model.MatchEqual),
			},
			ambiguous: true,
		},
		{
			name: "equal covered by like",
			aliases: []model.VendorAlias{
				alias("A", "AMAZON PRIME", model.MatchEqual),
				alias("B", "AMAZON%", model.MatchLike),
			},
			ambiguous: true,
		},
		{
			name: "literal like covered by like",
			aliases: []model.VendorAlias{
				alias("A", `COSTCO\_GAS`, model.MatchLike),
				alias("B", "COSTCO%", model.MatchLike),
			},
			ambiguous: true,
		},
		{
			name: "two wildcard likes are left to lookup",
			aliases: []model.VendorAlias{
				alias("A", "AMAZON%", model.MatchLike),
				alias("B", "%PRIME", model.MatchLike),
			},
		},
		{
			name:    "lowercase pattern",
			aliases: []model.VendorAlias{alias("A", "shop", model.MatchEqual)},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAliases(tt.aliases)
			switch {
			case tt.ambiguous:
				assert.ErrorIs(t, err, ErrAmbiguousAlias)
			case tt.wantErr:
				assert.Error(t, err)
				assert.NotErrorIs(t, err, ErrAmbiguousAlias)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePeriodicPayments(t *testing.T) {
	pp := func(vendor string, c model.Currency, amount int64) model.PeriodicPayment {
		return model.PeriodicPayment{Vendor: model.Vendor{Name: vendor}, Currency: c, Amount: amount}
	}

	assert.NoError(t, ValidatePeriodicPayments([]model.PeriodicPayment{
		pp("Rent", model.CurrencyCAD, -200000),
		pp("Condo", model.CurrencyCAD, -55000),
		pp("Gym", model.CurrencyUSD, -200000),
	}))

	err := ValidatePeriodicPayments([]model.PeriodicPayment{
		pp("Rent", model.CurrencyCAD, -200000),
		pp("Other", model.CurrencyCAD, -200000),
	})
	assert.ErrorIs(t, err, ErrDuplicatePeriodicPayment)

	err = ValidatePeriodicPayments([]model.PeriodicPayment{
		pp("Rent", model.CurrencyCAD, -200000),
		pp("Rent", model.CurrencyCAD, -210000),
	})
	assert.ErrorIs(t, err, ErrDuplicatePeriodicPayment)
}
