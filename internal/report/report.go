// Package report renders classified transactions as itemized CSV rows.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/cleared-dev/receipts/internal/model"
	"github.com/cleared-dev/receipts/internal/money"
)

// Unknown fills columns of transactions that were not classified.
const Unknown = "*UNKNOWN*"

// Header is the itemized CSV header.
const Header = "Date,Asset,Currency,Amount,Transaction Party,HST Amount,Tax Category,Payment Method,Notes"

const (
	numFields        = 9
	colDate          = 0
	colAsset         = 1
	colCurrency      = 2
	colAmount        = 3
	colParty         = 4
	colHST           = 5
	colCategory      = 6
	colPaymentMethod = 7
	colNotes         = 8
)

// Row is one itemized line.
type Row struct {
	Date          string `json:"date"`
	Asset         string `json:"asset"`
	Currency      string `json:"currency"`
	Amount        string `json:"amount"`
	Party         string `json:"transaction_party"`
	HSTAmount     string `json:"hst_amount"`
	Category      string `json:"tax_category"`
	PaymentMethod string `json:"payment_method"`
	Notes         string `json:"notes"`

	amount int64
}

// FromTransaction renders a persisted transaction. hst may be nil.
func FromTransaction(t model.ClassifiedTransaction, hst *int64) Row {
	r := Row{
		Date:          t.TransactionDate.Format("2006-01-02"),
		Currency:      string(t.Currency),
		Amount:        money.FormatMinorUnits(t.TotalAmount),
		Party:         t.Description,
		PaymentMethod: t.PaymentMethod.Name,
		amount:        t.TotalAmount,
	}
	if !t.Classified() {
		r.Asset = Unknown
		r.Category = Unknown
		return r
	}

	r.Party = t.Vendor.Name
	if t.Asset != nil {
		r.Asset = t.Asset.Name
	}
	if t.Category != nil {
		r.Category = t.Category.Label()
	}
	if hst != nil && *hst != 0 {
		r.HSTAmount = money.FormatMinorUnits(*hst)
	}
	return r
}

// FromReported renders a transaction read back with its tax adjustments.
func FromReported(t model.ReportedTransaction) Row {
	return FromTransaction(t.ClassifiedTransaction, t.HSTAmount)
}

// Sort orders rows by date, party and amount.
func Sort(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.Party != b.Party {
			return a.Party < b.Party
		}
		return a.amount < b.amount
	})
}

// MarshalRow converts a Row to CSV fields.
func MarshalRow(r Row) []string {
	rec := make([]string, numFields)
	rec[colDate] = r.Date
	rec[colAsset] = r.Asset
	rec[colCurrency] = r.Currency
	rec[colAmount] = r.Amount
	rec[colParty] = r.Party
	rec[colHST] = r.HSTAmount
	rec[colCategory] = r.Category
	rec[colPaymentMethod] = r.PaymentMethod
	rec[colNotes] = r.Notes
	return rec
}

// Write emits rows as CSV, preceded by Header when withHeader is set.
func Write(w io.Writer, rows []Row, withHeader bool) error {
	cw := csv.NewWriter(w)
	if withHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, r := range rows {
		if err := cw.Write(MarshalRow(r)); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Collector accumulates rows emitted during a run.
type Collector struct {
	rows []Row
}

// Add records a row.
func (c *Collector) Add(r Row) {
	c.rows = append(c.rows, r)
}

// Rows returns the collected rows in report order.
func (c *Collector) Rows() []Row {
	out := append([]Row(nil), c.rows...)
	Sort(out)
	return out
}
