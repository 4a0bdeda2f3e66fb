// Package postgres implements store.Store on PostgreSQL with a pgx pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cleared-dev/receipts/internal/model"
	"github.com/cleared-dev/receipts/internal/store"
)

const uniqueViolation = "23505"

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type queries struct {
	db dbtx
}

// Store is a store.Store backed by a connection pool.
type Store struct {
	queries
	pool *pgxpool.Pool
}

// Open connects to databaseURL and verifies the connection.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &Store{queries: queries{db: pool}, pool: pool}, nil
}

// Begin starts a database transaction.
func (s *Store) Begin(ctx context.Context) (store.Tx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	return &Tx{queries: queries{db: tx}, tx: tx}, nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Tx is a store.Tx over a pgx transaction.
type Tx struct {
	queries
	tx pgx.Tx
}

func (t *Tx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		if errors.Is(err, pgx.ErrTxClosed) {
			return store.ErrTxDone
		}
		return fmt.Errorf("committing: %w", err)
	}
	return nil
}

func (t *Tx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil {
		if errors.Is(err, pgx.ErrTxClosed) {
			return store.ErrTxDone
		}
		return fmt.Errorf("rolling back: %w", err)
	}
	return nil
}

func wrapWrite(err error, what string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s (%s)", store.ErrDuplicate, what, pgErr.ConstraintName)
	}
	return fmt.Errorf("%s: %w", what, err)
}

func (q queries) FindPaymentMethodBySuffix(ctx context.Context, suffix string) (model.PaymentMethod, bool, error) {
	if suffix == "" {
		return model.PaymentMethod{}, false, nil
	}
	rows, err := q.db.Query(ctx, `SELECT `+paymentMethodColumns+`
		FROM payment_methods pm WHERE pm.safe_numeric_id = $1 LIMIT 2`, suffix)
	if err != nil {
		return model.PaymentMethod{}, false, fmt.Errorf("finding payment method %s: %w", suffix, err)
	}
	methods, err := collectPaymentMethods(rows)
	if err != nil {
		return model.PaymentMethod{}, false, err
	}
	switch len(methods) {
	case 0:
		return model.PaymentMethod{}, false, nil
	case 1:
		return methods[0], true, nil
	}
	return model.PaymentMethod{}, false, fmt.Errorf("%w: %s", store.ErrAmbiguousPaymentMethod, suffix)
}

func (q queries) FindPaymentMethodByName(ctx context.Context, name string) (model.PaymentMethod, bool, error) {
	var pm model.PaymentMethod
	err := q.db.QueryRow(ctx, `SELECT `+paymentMethodColumns+`
		FROM payment_methods pm WHERE pm.name = $1`, name).Scan(paymentMethodDest(&pm)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.PaymentMethod{}, false, nil
	}
	if err != nil {
		return model.PaymentMethod{}, false, fmt.Errorf("finding payment method %q: %w", name, err)
	}
	return pm, true, nil
}

func collectPaymentMethods(rows pgx.Rows) ([]model.PaymentMethod, error) {
	defer rows.Close()
	var out []model.PaymentMethod
	for rows.Next() {
		var pm model.PaymentMethod
		if err := rows.Scan(paymentMethodDest(&pm)...); err != nil {
			return nil, fmt.Errorf("scanning payment method: %w", err)
		}
		out = append(out, pm)
	}
	return out, rows.Err()
}

const aliasSelect = `SELECT a.id, a.pattern, a.match_operation, a.default_category,
	aa.id, aa.name, aa.asset_type, ` + vendorColumns + `
	FROM vendor_aliases a
	JOIN vendors v ON v.id = a.vendor_id
	` + vendorAssetJoin + `
	LEFT JOIN financial_assets aa ON aa.id = a.default_asset_id`

func (q queries) queryAliases(ctx context.Context, sql string, args ...any) ([]model.VendorAlias, error) {
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("querying vendor aliases: %w", err)
	}
	defer rows.Close()

	var out []model.VendorAlias
	for rows.Next() {
		var (
			a        model.VendorAlias
			category *string
			asset    assetRow
			vendor   vendorRow
		)
		dest := append([]any{&a.ID, &a.Pattern, &a.MatchOperation, &category}, asset.dest()...)
		if err := rows.Scan(append(dest, vendor.dest()...)...); err != nil {
			return nil, fmt.Errorf("scanning vendor alias: %w", err)
		}
		a.DefaultCategory = categoryPtr(category)
		a.DefaultAsset = asset.asset()
		a.Vendor = *vendor.vendor()
		out = append(out, a)
	}
	return out, rows.Err()
}

func (q queries) FindVendorAlias(ctx context.Context, upperDescription string) (model.VendorAlias, bool, error) {
	aliases, err := q.queryAliases(ctx, aliasSelect+`
		WHERE (a.match_operation = 'equal' AND a.pattern = $1)
		   OR (a.match_operation = 'like' AND $1 LIKE a.pattern)
		ORDER BY a.pattern`, upperDescription)
	if err != nil {
		return model.VendorAlias{}, false, err
	}
	switch len(aliases) {
	case 0:
		return model.VendorAlias{}, false, nil
	case 1:
		return aliases[0], true, nil
	}
	patterns := make([]string, len(aliases))
	for i, a := range aliases {
		patterns[i] = a.Pattern
	}
	return model.VendorAlias{}, false, fmt.Errorf("%w: %q matches %s",
		store.ErrAmbiguousAlias, upperDescription, strings.Join(patterns, ", "))
}

const periodicSelect = `SELECT p.id, p.name, p.currency, p.amount, ` + vendorColumns + `
	FROM periodic_payments p
	JOIN vendors v ON v.id = p.vendor_id
	` + vendorAssetJoin

func (q queries) queryPeriodic(ctx context.Context, sql string, args ...any) ([]model.PeriodicPayment, error) {
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("querying periodic payments: %w", err)
	}
	defer rows.Close()

	var out []model.PeriodicPayment
	for rows.Next() {
		var (
			p      model.PeriodicPayment
			vendor vendorRow
		)
		dest := append([]any{&p.ID, &p.Name, &p.Currency, &p.Amount}, vendor.dest()...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning periodic payment: %w", err)
		}
		p.Vendor = *vendor.vendor()
		out = append(out, p)
	}
	return out, rows.Err()
}

func (q queries) FindPeriodicPayment(ctx context.Context, currency model.Currency, amount int64) (model.PeriodicPayment, bool, error) {
	payments, err := q.queryPeriodic(ctx, periodicSelect+`
		WHERE p.currency = $1 AND p.amount = $2`, string(currency), amount)
	if err != nil {
		return model.PeriodicPayment{}, false, err
	}
	switch len(payments) {
	case 0:
		return model.PeriodicPayment{}, false, nil
	case 1:
		return payments[0], true, nil
	}
	return model.PeriodicPayment{}, false, fmt.Errorf("%w: %s %d", store.ErrDuplicatePeriodicPayment, currency, amount)
}

func (q queries) ExclusionExists(ctx context.Context, upperDescription string, on time.Time, amount int64) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx, `SELECT EXISTS (
		SELECT 1 FROM exclusion_conditions
		WHERE (prefix IS NOT NULL AND left($1::text, length(prefix)) = prefix
		       AND (on_date IS NULL OR on_date = $2::date))
		   OR (prefix IS NULL AND on_date = $2::date AND amount = $3))`,
		upperDescription, on, amount).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking exclusions: %w", err)
	}
	return exists, nil
}

func (q queries) DispatchTable(ctx context.Context) ([]model.DispatchEntry, error) {
	rows, err := q.db.Query(ctx, `SELECT `+paymentMethodColumns+`
		FROM payment_methods pm
		WHERE pm.file_prefix <> '' AND pm.parser_class <> ''
		ORDER BY pm.file_prefix`)
	if err != nil {
		return nil, fmt.Errorf("loading dispatch table: %w", err)
	}
	methods, err := collectPaymentMethods(rows)
	if err != nil {
		return nil, err
	}
	entries := make([]model.DispatchEntry, len(methods))
	for i, pm := range methods {
		entries[i] = model.DispatchEntry{FilePrefix: pm.FilePrefix, ParserClass: pm.ParserClass, PaymentMethod: pm}
	}
	return entries, nil
}

func (q queries) SaveClassifiedTransaction(ctx context.Context, txn model.ClassifiedTransaction) (string, error) {
	id := uuid.NewString()
	_, err := q.db.Exec(ctx, `INSERT INTO classified_transactions
		(id, vendor_id, asset_id, category, transaction_date, payment_method_id, total_amount, currency, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		id, vendorIDArg(txn.Vendor), assetIDArg(txn.Asset), categoryArg(txn.Category),
		txn.TransactionDate, txn.PaymentMethod.ID, txn.TotalAmount, string(txn.Currency), txn.Description)
	if err != nil {
		return "", wrapWrite(err, "saving transaction")
	}
	return id, nil
}

func (q queries) SaveTaxAdjustment(ctx context.Context, adj model.TaxAdjustment) (string, error) {
	id := uuid.NewString()
	_, err := q.db.Exec(ctx, `INSERT INTO tax_adjustments (id, transaction_id, tax_type, amount)
		VALUES ($1, $2, $3, $4)`, id, adj.TransactionID, string(adj.TaxType), adj.Amount)
	if err != nil {
		return "", wrapWrite(err, "saving tax adjustment")
	}
	return id, nil
}

func (q queries) CreatePaymentMethod(ctx context.Context, pm model.PaymentMethod) (model.PaymentMethod, error) {
	pm.ID = uuid.NewString()
	_, err := q.db.Exec(ctx, `INSERT INTO payment_methods
		(id, name, description, method_type, safe_numeric_id, currency, file_prefix, parser_class, allow_periodic_payments)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		pm.ID, pm.Name, pm.Description, string(pm.MethodType), pm.SafeNumericID,
		string(pm.Currency), pm.FilePrefix, pm.ParserClass, pm.AllowPeriodicPayments)
	if err != nil {
		return model.PaymentMethod{}, wrapWrite(err, "payment method "+pm.Name)
	}
	return pm, nil
}

func (q queries) CreateAsset(ctx context.Context, asset model.FinancialAsset) (model.FinancialAsset, error) {
	asset.ID = uuid.NewString()
	_, err := q.db.Exec(ctx, `INSERT INTO financial_assets (id, name, asset_type) VALUES ($1, $2, $3)`,
		asset.ID, asset.Name, string(asset.AssetType))
	if err != nil {
		return model.FinancialAsset{}, wrapWrite(err, "asset "+asset.Name)
	}
	return asset, nil
}

func (q queries) CreateVendor(ctx context.Context, vendor model.Vendor) (model.Vendor, error) {
	vendor.ID = uuid.NewString()
	_, err := q.db.Exec(ctx, `INSERT INTO vendors
		(id, name, default_category, fixed_amount, default_asset_id, tax_adjustment_type)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		vendor.ID, vendor.Name, categoryArg(vendor.DefaultCategory), vendor.FixedAmount,
		assetIDArg(vendor.DefaultAsset), taxTypeArg(vendor.TaxAdjustmentType))
	if err != nil {
		return model.Vendor{}, wrapWrite(err, "vendor "+vendor.Name)
	}
	return vendor, nil
}

func (q queries) CreateVendorAlias(ctx context.Context, alias model.VendorAlias) (model.VendorAlias, error) {
	existing, err := q.ListVendorAliases(ctx)
	if err != nil {
		return model.VendorAlias{}, err
	}
	if err := store.ValidateAliases(append(existing, alias)); err != nil {
		return model.VendorAlias{}, err
	}

	alias.ID = uuid.NewString()
	_, err = q.db.Exec(ctx, `INSERT INTO vendor_aliases
		(id, vendor_id, pattern, match_operation, default_category, default_asset_id)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		alias.ID, alias.Vendor.ID, alias.Pattern, string(alias.MatchOperation),
		categoryArg(alias.DefaultCategory), assetIDArg(alias.DefaultAsset))
	if err != nil {
		return model.VendorAlias{}, wrapWrite(err, "alias "+alias.Pattern)
	}
	return alias, nil
}

func (q queries) CreatePeriodicPayment(ctx context.Context, pp model.PeriodicPayment) (model.PeriodicPayment, error) {
	existing, err := q.ListPeriodicPayments(ctx)
	if err != nil {
		return model.PeriodicPayment{}, err
	}
	if err := store.ValidatePeriodicPayments(append(existing, pp)); err != nil {
		return model.PeriodicPayment{}, err
	}

	pp.ID = uuid.NewString()
	_, err = q.db.Exec(ctx, `INSERT INTO periodic_payments (id, name, vendor_id, currency, amount)
		VALUES ($1, $2, $3, $4, $5)`, pp.ID, pp.Name, pp.Vendor.ID, string(pp.Currency), pp.Amount)
	if err != nil {
		return model.PeriodicPayment{}, wrapWrite(err, "periodic payment "+pp.Name)
	}
	return pp, nil
}

func (q queries) CreateExclusion(ctx context.Context, cond model.ExclusionCondition) (model.ExclusionCondition, error) {
	if cond.Prefix != nil {
		if err := store.ValidatePattern(*cond.Prefix); err != nil {
			return model.ExclusionCondition{}, fmt.Errorf("exclusion prefix: %w", err)
		}
	} else if cond.OnDate == nil || cond.Amount == nil {
		return model.ExclusionCondition{}, fmt.Errorf("exclusion without prefix needs both on_date and amount")
	}

	cond.ID = uuid.NewString()
	_, err := q.db.Exec(ctx, `INSERT INTO exclusion_conditions (id, prefix, on_date, amount)
		VALUES ($1, $2, $3, $4)`, cond.ID, cond.Prefix, cond.OnDate, cond.Amount)
	if err != nil {
		return model.ExclusionCondition{}, wrapWrite(err, "exclusion")
	}
	return cond, nil
}

func (q queries) ListClassifiedTransactions(ctx context.Context, start, end time.Time) ([]model.ReportedTransaction, error) {
	rows, err := q.db.Query(ctx, `SELECT t.id, t.transaction_date, t.total_amount, t.currency, t.description, t.category,
		`+vendorColumns+`,
		ta.id, ta.name, ta.asset_type,
		`+paymentMethodColumns+`,
		(SELECT sum(x.amount)::bigint FROM tax_adjustments x
		  WHERE x.transaction_id = t.id AND x.tax_type = 'hst')
		FROM classified_transactions t
		JOIN payment_methods pm ON pm.id = t.payment_method_id
		LEFT JOIN vendors v ON v.id = t.vendor_id
		`+vendorAssetJoin+`
		LEFT JOIN financial_assets ta ON ta.id = t.asset_id
		WHERE t.transaction_date BETWEEN $1::date AND $2::date
		ORDER BY t.transaction_date, t.description, t.total_amount`, start, end)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	var out []model.ReportedTransaction
	for rows.Next() {
		var (
			rt       model.ReportedTransaction
			category *string
			vendor   vendorRow
			asset    assetRow
		)
		dest := []any{&rt.ID, &rt.TransactionDate, &rt.TotalAmount, &rt.Currency, &rt.Description, &category}
		dest = append(dest, vendor.dest()...)
		dest = append(dest, asset.dest()...)
		dest = append(dest, paymentMethodDest(&rt.PaymentMethod)...)
		dest = append(dest, &rt.HSTAmount)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		rt.Category = categoryPtr(category)
		rt.Vendor = vendor.vendor()
		rt.Asset = asset.asset()
		out = append(out, rt)
	}
	return out, rows.Err()
}

func (q queries) ListVendors(ctx context.Context) ([]model.Vendor, error) {
	rows, err := q.db.Query(ctx, `SELECT `+vendorColumns+`
		FROM vendors v `+vendorAssetJoin+` ORDER BY v.name`)
	if err != nil {
		return nil, fmt.Errorf("listing vendors: %w", err)
	}
	defer rows.Close()

	var out []model.Vendor
	for rows.Next() {
		var vendor vendorRow
		if err := rows.Scan(vendor.dest()...); err != nil {
			return nil, fmt.Errorf("scanning vendor: %w", err)
		}
		out = append(out, *vendor.vendor())
	}
	return out, rows.Err()
}

func (q queries) ListVendorAliases(ctx context.Context) ([]model.VendorAlias, error) {
	return q.queryAliases(ctx, aliasSelect+` ORDER BY a.pattern`)
}

func (q queries) ListPeriodicPayments(ctx context.Context) ([]model.PeriodicPayment, error) {
	return q.queryPeriodic(ctx, periodicSelect+` ORDER BY p.name`)
}

var (
	_ store.Store = (*Store)(nil)
	_ store.Tx    = (*Tx)(nil)
)
