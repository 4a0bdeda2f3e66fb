package model

import "fmt"

// Currency is an ISO currency code supported by the importers.
type Currency string

const (
	CurrencyCAD Currency = "CAD"
	CurrencyUSD Currency = "USD"
)

// ParseCurrency validates a currency code.
func ParseCurrency(s string) (Currency, error) {
	switch c := Currency(s); c {
	case CurrencyCAD, CurrencyUSD:
		return c, nil
	}
	return "", fmt.Errorf("unsupported currency %q", s)
}

// ExpenseCategory is the taxable aggregation bucket a transaction is filed under.
type ExpenseCategory string

const (
	CategoryIgnore         ExpenseCategory = "ignore"
	CategoryPropertyTax    ExpenseCategory = "property_tax"
	CategoryInterest       ExpenseCategory = "interest"
	CategoryInsurance      ExpenseCategory = "insurance"
	CategoryUtility        ExpenseCategory = "utility"
	CategoryAdministrative ExpenseCategory = "administrative"
	CategoryMaintenance    ExpenseCategory = "maintenance"
	CategoryTravel         ExpenseCategory = "travel"
	CategoryMeals          ExpenseCategory = "meals"
	CategorySupplies       ExpenseCategory = "supplies"
	CategoryRent           ExpenseCategory = "rent"
	CategoryForeignIncome  ExpenseCategory = "foreign_income"
	CategoryCapitalGains   ExpenseCategory = "capital_gains"
	CategoryAdvertising    ExpenseCategory = "advertising"
	CategoryDonation       ExpenseCategory = "donation"
)

var categoryLabels = map[ExpenseCategory]string{
	CategoryIgnore:         "*IGNORE*",
	CategoryPropertyTax:    "Property Tax",
	CategoryInterest:       "Interest",
	CategoryInsurance:      "Insurance",
	CategoryUtility:        "Telephone and Utilities",
	CategoryAdministrative: "Management and Administrative",
	CategoryMaintenance:    "Repair and Maintenance",
	CategoryTravel:         "Business Travel",
	CategoryMeals:          "Meals and Entertainment",
	CategorySupplies:       "Office Supplies",
	CategoryRent:           "Gross Rent",
	CategoryForeignIncome:  "Foreign Income",
	CategoryCapitalGains:   "Capital Gains",
	CategoryAdvertising:    "Advertising",
	CategoryDonation:       "Donations",
}

// Label returns the human readable name used in reports.
func (c ExpenseCategory) Label() string {
	return categoryLabels[c]
}

// ParseExpenseCategory validates a category value.
func ParseExpenseCategory(s string) (ExpenseCategory, error) {
	c := ExpenseCategory(s)
	if _, ok := categoryLabels[c]; !ok {
		return "", fmt.Errorf("unknown expense category %q", s)
	}
	return c, nil
}

// TaxType identifies an embedded tax that can be derived from a total.
type TaxType string

const TaxTypeHST TaxType = "hst"

// ParseTaxType validates a tax type value.
func ParseTaxType(s string) (TaxType, error) {
	if t := TaxType(s); t == TaxTypeHST {
		return t, nil
	}
	return "", fmt.Errorf("unknown tax type %q", s)
}

// MatchOperation controls how an alias pattern is compared to a description.
type MatchOperation string

const (
	MatchEqual MatchOperation = "equal"
	MatchLike  MatchOperation = "like"
)

// ParseMatchOperation validates a match operation value.
func ParseMatchOperation(s string) (MatchOperation, error) {
	switch op := MatchOperation(s); op {
	case MatchEqual, MatchLike:
		return op, nil
	}
	return "", fmt.Errorf("unknown match operation %q", s)
}

// AssetType classifies a financial asset.
type AssetType string

const (
	AssetRental           AssetType = "rental"
	AssetEmployment       AssetType = "employment"
	AssetProprietorship   AssetType = "proprietorship"
	AssetPrimaryResidence AssetType = "primary_residence"
)

// ParseAssetType validates an asset type value.
func ParseAssetType(s string) (AssetType, error) {
	switch t := AssetType(s); t {
	case AssetRental, AssetEmployment, AssetProprietorship, AssetPrimaryResidence:
		return t, nil
	}
	return "", fmt.Errorf("unknown asset type %q", s)
}

// MethodType is the kind of payment method.
type MethodType string

const (
	MethodCash       MethodType = "cash"
	MethodCreditCard MethodType = "credit_card"
)
