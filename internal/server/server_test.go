package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/receipts/internal/config"
	"github.com/cleared-dev/receipts/internal/fixtures"
	"github.com/cleared-dev/receipts/internal/model"
	"github.com/cleared-dev/receipts/internal/report"
	"github.com/cleared-dev/receipts/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func seeded(t *testing.T) *store.Memory {
	t.Helper()
	ctx := context.Background()
	s := store.NewMemory()
	require.NoError(t, store.WithTx(ctx, s, func(q store.Querier) error {
		if _, err := fixtures.LoadDir(ctx, q, "../fixtures/testdata"); err != nil {
			return err
		}
		alias, _, err := q.FindVendorAlias(ctx, "YRCC994 FEE")
		if err != nil {
			return err
		}
		pm, _, err := q.FindPaymentMethodByName(ctx, "BMO Savings")
		if err != nil {
			return err
		}
		v := alias.Vendor
		id, err := q.SaveClassifiedTransaction(ctx, model.ClassifiedTransaction{
			Vendor:          &v,
			Asset:           v.DefaultAsset,
			Category:        v.DefaultCategory,
			TransactionDate: time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC),
			PaymentMethod:   pm,
			TotalAmount:     -200839,
			Currency:        model.CurrencyCAD,
			Description:     v.Name,
		})
		if err != nil {
			return err
		}
		if _, err := q.SaveTaxAdjustment(ctx, model.TaxAdjustment{TransactionID: id, TaxType: model.TaxTypeHST, Amount: -23105}); err != nil {
			return err
		}
		_, err = q.SaveClassifiedTransaction(ctx, model.ClassifiedTransaction{
			TransactionDate: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
			PaymentMethod:   pm,
			TotalAmount:     -1999,
			Currency:        model.CurrencyCAD,
			Description:     "CORNER STORE 12",
		})
		return err
	}))
	return s
}

func do(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func newServer(reports store.Reports) http.Handler {
	return New(reports, config.ServerConfig{}, zerolog.Nop()).Handler()
}

func TestHealthz(t *testing.T) {
	rec := do(t, newServer(store.NewMemory()), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestGetTransactions(t *testing.T) {
	h := newServer(seeded(t))

	rec := do(t, h, "/api/transactions?start=2024-01-01&end=2024-01-31")
	require.Equal(t, http.StatusOK, rec.Code)

	var rows []report.Row
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "CORNER STORE 12", rows[0].Party)
	assert.Equal(t, report.Unknown, rows[0].Category)
	assert.Equal(t, "YRCC 994", rows[1].Party)
	assert.Equal(t, "-2008.39", rows[1].Amount)
	assert.Equal(t, "-231.05", rows[1].HSTAmount)
	assert.Equal(t, "25 Wellesley", rows[1].Asset)
	assert.Equal(t, "BMO Savings", rows[1].PaymentMethod)
}

func TestGetTransactions_RangeIsInclusive(t *testing.T) {
	h := newServer(seeded(t))

	rec := do(t, h, "/api/transactions?start=2024-01-08&end=2024-01-08")
	require.Equal(t, http.StatusOK, rec.Code)
	var rows []report.Row
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "YRCC 994", rows[0].Party)

	rec = do(t, h, "/api/transactions?start=2023-01-01&end=2023-12-31")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestGetTransactions_CSV(t *testing.T) {
	rec := do(t, newServer(seeded(t)), "/api/transactions?start=2024-01-01&end=2024-01-31&format=csv")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, report.Header, lines[0])
	assert.Equal(t, "2024-01-08,25 Wellesley,CAD,-2008.39,YRCC 994,-231.05,Management and Administrative,BMO Savings,", lines[2])
}

func TestGetTransactions_BadRequest(t *testing.T) {
	h := newServer(store.NewMemory())
	tests := []struct {
		name   string
		target string
		want   string
	}{
		{"missing start", "/api/transactions?end=2024-01-31", "start must be YYYY-MM-DD"},
		{"bad end", "/api/transactions?start=2024-01-01&end=31/01/2024", "end must be YYYY-MM-DD"},
		{"reversed", "/api/transactions?start=2024-02-01&end=2024-01-01", "end is before start"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.target)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
}

func TestGetVendors(t *testing.T) {
	rec := do(t, newServer(seeded(t)), "/api/vendors")
	require.Equal(t, http.StatusOK, rec.Code)

	var vendors []vendorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &vendors))
	require.Len(t, vendors, 7)

	byName := map[string]vendorResponse{}
	for _, v := range vendors {
		byName[v.Name] = v
	}
	xoom := byName["Xoom"]
	require.NotNil(t, xoom.FixedAmount)
	assert.Equal(t, int64(-499), *xoom.FixedAmount)
	assert.Nil(t, xoom.DefaultAsset)

	yrcc := byName["YRCC 994"]
	require.NotNil(t, yrcc.TaxAdjustmentType)
	assert.Equal(t, "hst", *yrcc.TaxAdjustmentType)
	require.NotNil(t, yrcc.DefaultCategory)
	assert.Equal(t, "Management and Administrative", *yrcc.DefaultCategory)
}

func TestGetAliasesAndPeriodicPayments(t *testing.T) {
	h := newServer(seeded(t))

	rec := do(t, h, "/api/vendor-aliases")
	require.Equal(t, http.StatusOK, rec.Code)
	var aliases []aliasResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &aliases))
	assert.Len(t, aliases, 6)

	rec = do(t, h, "/api/periodic-payments")
	require.Equal(t, http.StatusOK, rec.Code)
	var payments []periodicPaymentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payments))
	require.Len(t, payments, 2)
	amounts := []int64{payments[0].Amount, payments[1].Amount}
	assert.ElementsMatch(t, []int64{160000, 30890}, amounts)
}

type failingReports struct{ store.Reports }

func (failingReports) ListVendors(context.Context) ([]model.Vendor, error) {
	return nil, errors.New("connection refused")
}

func TestGetVendors_StoreError(t *testing.T) {
	rec := do(t, newServer(failingReports{}), "/api/vendors")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestCORS(t *testing.T) {
	h := New(store.NewMemory(), config.ServerConfig{AllowOrigins: []string{"http://localhost:3001"}}, zerolog.Nop()).Handler()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://localhost:3001")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:3001", rec.Header().Get("Access-Control-Allow-Origin"))
}
