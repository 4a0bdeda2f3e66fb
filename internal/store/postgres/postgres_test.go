package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/receipts/internal/model"
	"github.com/cleared-dev/receipts/internal/store"
)

// openTestStore connects to RECEIPTS_TEST_DATABASE_URL, migrates it and
// returns a transaction that is rolled back when the test ends.
func openTestStore(t *testing.T) store.Tx {
	t.Helper()
	url := os.Getenv("RECEIPTS_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("RECEIPTS_TEST_DATABASE_URL not set")
	}
	_, dirty, err := Migrate(url)
	require.NoError(t, err)
	require.False(t, dirty)

	ctx := context.Background()
	s, err := Open(ctx, url)
	require.NoError(t, err)
	t.Cleanup(s.Close)

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tx.Rollback(ctx) })
	return tx
}

func TestStore_AliasLookup(t *testing.T) {
	tx := openTestStore(t)
	ctx := context.Background()

	asset, err := tx.CreateAsset(ctx, model.FinancialAsset{Name: "Main St", AssetType: model.AssetRental})
	require.NoError(t, err)
	category := model.CategoryUtility
	hst := model.TaxTypeHST
	hydro, err := tx.CreateVendor(ctx, model.Vendor{Name: "Toronto Hydro", DefaultCategory: &category, DefaultAsset: &asset, TaxAdjustmentType: &hst})
	require.NoError(t, err)
	_, err = tx.CreateVendorAlias(ctx, model.VendorAlias{Vendor: hydro, Pattern: "TORONTO HYDRO%", MatchOperation: model.MatchLike})
	require.NoError(t, err)

	a, found, err := tx.FindVendorAlias(ctx, "TORONTO HYDRO ELECTRIC")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Toronto Hydro", a.Vendor.Name)
	require.NotNil(t, a.Vendor.DefaultAsset)
	assert.Equal(t, "Main St", a.Vendor.DefaultAsset.Name)
	require.NotNil(t, a.Vendor.TaxAdjustmentType)
	assert.Nil(t, a.DefaultCategory)

	_, found, err = tx.FindVendorAlias(ctx, "ENBRIDGE")
	require.NoError(t, err)
	assert.False(t, found)

	_, err = tx.CreateVendorAlias(ctx, model.VendorAlias{Vendor: hydro, Pattern: "TORONTO HYDRO BILL", MatchOperation: model.MatchEqual})
	assert.ErrorIs(t, err, store.ErrAmbiguousAlias)
}

func TestStore_TransactionsAndReport(t *testing.T) {
	tx := openTestStore(t)
	ctx := context.Background()

	pm, err := tx.CreatePaymentMethod(ctx, model.PaymentMethod{
		Name: "Test Visa", MethodType: model.MethodCreditCard, SafeNumericID: "4242",
		Currency: model.CurrencyCAD, FilePrefix: "testvisa", ParserClass: "bmo_credit",
	})
	require.NoError(t, err)

	found, ok, err := tx.FindPaymentMethodBySuffix(ctx, "4242")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, pm.ID, found.ID)

	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	id, err := tx.SaveClassifiedTransaction(ctx, model.ClassifiedTransaction{
		TransactionDate: day, PaymentMethod: pm, TotalAmount: -22599,
		Currency: model.CurrencyCAD, Description: "SOMETHING",
	})
	require.NoError(t, err)
	_, err = tx.SaveTaxAdjustment(ctx, model.TaxAdjustment{TransactionID: id, TaxType: model.TaxTypeHST, Amount: -2600})
	require.NoError(t, err)

	rows, err := tx.ListClassifiedTransactions(ctx, day, day)
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	var got *model.ReportedTransaction
	for i := range rows {
		if rows[i].ID == id {
			got = &rows[i]
		}
	}
	require.NotNil(t, got)
	assert.Nil(t, got.Vendor)
	assert.Equal(t, "Test Visa", got.PaymentMethod.Name)
	require.NotNil(t, got.HSTAmount)
	assert.Equal(t, int64(-2600), *got.HSTAmount)

	prefix := "TESTPREFIX"
	_, err = tx.CreateExclusion(ctx, model.ExclusionCondition{Prefix: &prefix})
	require.NoError(t, err)
	excluded, err := tx.ExclusionExists(ctx, "TESTPREFIX AND MORE", day, 1)
	require.NoError(t, err)
	assert.True(t, excluded)
}

func TestVendorRow_Null(t *testing.T) {
	var r vendorRow
	assert.Nil(t, r.vendor())

	id, name := "v1", "Hydro"
	cat := "utility"
	r = vendorRow{id: &id, name: &name, category: &cat}
	v := r.vendor()
	require.NotNil(t, v)
	assert.Equal(t, model.CategoryUtility, *v.DefaultCategory)
	assert.Nil(t, v.DefaultAsset)
	assert.Nil(t, v.TaxAdjustmentType)
}
