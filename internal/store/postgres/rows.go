package postgres

import (
	"github.com/cleared-dev/receipts/internal/model"
)

const paymentMethodColumns = `pm.id, pm.name, pm.description, pm.method_type, pm.safe_numeric_id,
	pm.currency, pm.file_prefix, pm.parser_class, pm.allow_periodic_payments`

// vendorColumns expects vendors aliased v and their default asset aliased va.
const vendorColumns = `v.id, v.name, v.default_category, v.fixed_amount, v.tax_adjustment_type,
	va.id, va.name, va.asset_type`

const vendorAssetJoin = `LEFT JOIN financial_assets va ON va.id = v.default_asset_id`

func paymentMethodDest(pm *model.PaymentMethod) []any {
	return []any{&pm.ID, &pm.Name, &pm.Description, &pm.MethodType, &pm.SafeNumericID,
		&pm.Currency, &pm.FilePrefix, &pm.ParserClass, &pm.AllowPeriodicPayments}
}

// assetRow scans a LEFT JOINed financial asset.
type assetRow struct {
	id, name, assetType *string
}

func (r *assetRow) dest() []any {
	return []any{&r.id, &r.name, &r.assetType}
}

func (r assetRow) asset() *model.FinancialAsset {
	if r.id == nil {
		return nil
	}
	return &model.FinancialAsset{ID: *r.id, Name: *r.name, AssetType: model.AssetType(*r.assetType)}
}

// vendorRow scans vendorColumns; every column may be NULL under a LEFT JOIN.
type vendorRow struct {
	id, name, category, taxType *string
	fixedAmount                 *int64
	asset                       assetRow
}

func (r *vendorRow) dest() []any {
	return append([]any{&r.id, &r.name, &r.category, &r.fixedAmount, &r.taxType}, r.asset.dest()...)
}

func (r vendorRow) vendor() *model.Vendor {
	if r.id == nil {
		return nil
	}
	return &model.Vendor{
		ID:                *r.id,
		Name:              *r.name,
		DefaultCategory:   categoryPtr(r.category),
		FixedAmount:       r.fixedAmount,
		DefaultAsset:      r.asset.asset(),
		TaxAdjustmentType: taxTypePtr(r.taxType),
	}
}

func categoryPtr(s *string) *model.ExpenseCategory {
	if s == nil {
		return nil
	}
	c := model.ExpenseCategory(*s)
	return &c
}

func taxTypePtr(s *string) *model.TaxType {
	if s == nil {
		return nil
	}
	t := model.TaxType(*s)
	return &t
}

func categoryArg(c *model.ExpenseCategory) *string {
	if c == nil {
		return nil
	}
	s := string(*c)
	return &s
}

func taxTypeArg(t *model.TaxType) *string {
	if t == nil {
		return nil
	}
	s := string(*t)
	return &s
}

func assetIDArg(a *model.FinancialAsset) *string {
	if a == nil {
		return nil
	}
	return &a.ID
}

func vendorIDArg(v *model.Vendor) *string {
	if v == nil {
		return nil
	}
	return &v.ID
}
