package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/receipts/internal/model"
	"github.com/cleared-dev/receipts/internal/store"
)

func ptr[T any](v T) *T { return &v }

// fixture seeds a store with one vendor reachable by alias and one by
// periodic payment, returning an open transaction.
func fixture(t *testing.T) store.Tx {
	t.Helper()
	ctx := context.Background()
	tx, err := store.NewMemory().Begin(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tx.Rollback(ctx) })

	house, err := tx.CreateAsset(ctx, model.FinancialAsset{Name: "House", AssetType: model.AssetRental})
	require.NoError(t, err)
	cottage, err := tx.CreateAsset(ctx, model.FinancialAsset{Name: "Cottage", AssetType: model.AssetRental})
	require.NoError(t, err)

	hardware, err := tx.CreateVendor(ctx, model.Vendor{
		Name:            "Home Depot",
		DefaultCategory: ptr(model.CategoryMaintenance),
		DefaultAsset:    &house,
	})
	require.NoError(t, err)
	_, err = tx.CreateVendorAlias(ctx, model.VendorAlias{Vendor: hardware, Pattern: "HOME DEPOT%", MatchOperation: model.MatchLike})
	require.NoError(t, err)
	_, err = tx.CreateVendorAlias(ctx, model.VendorAlias{
		Vendor:          hardware,
		Pattern:         "HD SUPPLY OFFICE",
		MatchOperation:  model.MatchEqual,
		DefaultCategory: ptr(model.CategorySupplies),
		DefaultAsset:    &cottage,
	})
	require.NoError(t, err)

	tenant, err := tx.CreateVendor(ctx, model.Vendor{Name: "Tenant", DefaultCategory: ptr(model.CategoryRent), DefaultAsset: &house})
	require.NoError(t, err)
	_, err = tx.CreatePeriodicPayment(ctx, model.PeriodicPayment{Name: "rent", Vendor: tenant, Currency: model.CurrencyCAD, Amount: 200000})
	require.NoError(t, err)
	return tx
}

func TestResolve_Alias(t *testing.T) {
	r := New(fixture(t))

	m, ok, err := r.Resolve(context.Background(), model.RawTransaction{Description: "Home Depot #7001", Currency: model.CurrencyCAD})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Home Depot", m.Vendor.Name)
	assert.Equal(t, model.CategoryMaintenance, *m.Category)
	assert.Equal(t, "House", m.Asset.Name)
	assert.False(t, m.Periodic)
}

func TestResolve_AliasOverridesVendorDefaults(t *testing.T) {
	r := New(fixture(t))

	m, ok, err := r.Resolve(context.Background(), model.RawTransaction{Description: "HD SUPPLY OFFICE", Currency: model.CurrencyCAD})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.CategorySupplies, *m.Category)
	assert.Equal(t, "Cottage", m.Asset.Name)
}

func TestResolve_PeriodicPayment(t *testing.T) {
	r := New(fixture(t))
	txn := model.RawTransaction{
		Amount:   200000,
		Currency: model.CurrencyCAD,
		Misc:     map[string]string{model.MiscTransactionCode: "CD"},
	}

	m, ok, err := r.Resolve(context.Background(), txn)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Tenant", m.Vendor.Name)
	assert.Equal(t, model.CategoryRent, *m.Category)
	assert.True(t, m.Periodic)

	txn.Amount = 200001
	_, ok, err = r.Resolve(context.Background(), txn)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIsPeriodicPayment(t *testing.T) {
	cd := map[string]string{model.MiscTransactionCode: "CD"}
	assert.True(t, IsPeriodicPayment(model.RawTransaction{Currency: model.CurrencyCAD, Misc: cd}))
	assert.False(t, IsPeriodicPayment(model.RawTransaction{Currency: model.CurrencyUSD, Misc: cd}))
	assert.False(t, IsPeriodicPayment(model.RawTransaction{Currency: model.CurrencyCAD, Misc: cd, Description: "X"}))
	assert.False(t, IsPeriodicPayment(model.RawTransaction{Currency: model.CurrencyCAD}))
}

func TestResolve_Miss(t *testing.T) {
	r := New(fixture(t))
	_, ok, err := r.Resolve(context.Background(), model.RawTransaction{Description: "UNKNOWN SHOP"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolve_AmbiguousPropagates(t *testing.T) {
	ctx := context.Background()
	tx := fixture(t)
	v, err := tx.CreateVendor(ctx, model.Vendor{Name: "Depot Rentals"})
	require.NoError(t, err)
	_, err = tx.CreateVendorAlias(ctx, model.VendorAlias{Vendor: v, Pattern: "%RENTALS", MatchOperation: model.MatchLike})
	require.NoError(t, err)

	_, _, err = New(tx).Resolve(ctx, model.RawTransaction{Description: "HOME DEPOT RENTALS"})
	assert.ErrorIs(t, err, store.ErrAmbiguousAlias)
}
