package model

import (
	"time"
)

// Keys stored in RawTransaction.Misc by the institution parsers.
const (
	MiscTransactionCode = "transaction_code"
	MiscLast4Digits     = "last_4_digits"
	MiscCategory        = "category"
	MiscType            = "type"
	MiscAuthorizedOn    = "authorized_on"
	MiscCheckNumber     = "check_number"
)

// RawTransaction is a statement row normalized by an institution parser.
type RawTransaction struct {
	LineNumber      int // 1-based line in the source file
	TransactionDate time.Time
	Amount          int64 // minor units; negative = expense, positive = income
	Currency        Currency
	Description     string
	Misc            map[string]string
	PaymentMethod   *PaymentMethod // fixed method of the source file, if any
}

// MiscValue returns a misc entry or "" when absent.
func (t RawTransaction) MiscValue(key string) string {
	if t.Misc == nil {
		return ""
	}
	return t.Misc[key]
}

// ClassifiedTransaction is the persisted result of itemizing a RawTransaction.
// Vendor, Asset and Category are nil when resolution failed.
type ClassifiedTransaction struct {
	ID              string
	Vendor          *Vendor
	Asset           *FinancialAsset
	Category        *ExpenseCategory
	TransactionDate time.Time
	PaymentMethod   PaymentMethod
	TotalAmount     int64
	Currency        Currency
	Description     string
}

// Classified reports whether a vendor was resolved.
func (t ClassifiedTransaction) Classified() bool {
	return t.Vendor != nil
}

// TaxAdjustment is an embedded tax component derived from a classified transaction.
type TaxAdjustment struct {
	ID            string
	TransactionID string
	TaxType       TaxType
	Amount        int64
}

// ReportedTransaction is a persisted transaction joined with its summed tax adjustments.
type ReportedTransaction struct {
	ClassifiedTransaction
	HSTAmount *int64
}
