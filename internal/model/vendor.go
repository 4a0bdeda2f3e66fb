package model

import (
	"strings"
	"time"
)

// PaymentMethod is an account or card that statement files are exported from.
type PaymentMethod struct {
	ID                    string
	Name                  string
	Description           string
	MethodType            MethodType
	SafeNumericID         string // last 4 digits of the card/account number
	Currency              Currency
	FilePrefix            string // routes input files to ParserClass
	ParserClass           string
	AllowPeriodicPayments bool
}

// FinancialAsset is something expenses and income can be attributed to.
type FinancialAsset struct {
	ID        string
	Name      string
	AssetType AssetType
}

// Vendor is a resolved transaction party.
type Vendor struct {
	ID                string
	Name              string
	DefaultCategory   *ExpenseCategory
	FixedAmount       *int64 // replaces the observed amount when set
	DefaultAsset      *FinancialAsset
	TaxAdjustmentType *TaxType
}

// VendorAlias maps a description pattern to a vendor.
type VendorAlias struct {
	ID              string
	Vendor          Vendor
	Pattern         string // upper-case
	MatchOperation  MatchOperation
	DefaultCategory *ExpenseCategory
	DefaultAsset    *FinancialAsset
}

// PeriodicPayment identifies a vendor by a recurring (currency, amount) pair.
type PeriodicPayment struct {
	ID       string
	Name     string
	Vendor   Vendor
	Currency Currency
	Amount   int64
}

// ExclusionCondition is a stored rule that removes matching transactions.
//
// A transaction matches when Prefix is a literal prefix of its upper-cased
// description and OnDate is nil or equal, or when Prefix is nil and both
// OnDate and Amount are equal.
type ExclusionCondition struct {
	ID     string
	Prefix *string
	OnDate *time.Time
	Amount *int64
}

// DispatchEntry routes files starting with FilePrefix to a parser.
type DispatchEntry struct {
	FilePrefix    string
	ParserClass   string
	PaymentMethod PaymentMethod
}

// Matches reports whether the condition excludes a transaction with the given
// upper-cased description, date and amount.
func (c ExclusionCondition) Matches(upperDescription string, on time.Time, amount int64) bool {
	if c.Prefix != nil {
		if !strings.HasPrefix(upperDescription, *c.Prefix) {
			return false
		}
		return c.OnDate == nil || SameDay(*c.OnDate, on)
	}
	return c.OnDate != nil && c.Amount != nil && SameDay(*c.OnDate, on) && *c.Amount == amount
}

// SameDay reports whether a and b fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
