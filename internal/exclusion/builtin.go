package exclusion

import (
	"context"
	"regexp"
	"strings"

	"github.com/cleared-dev/receipts/internal/model"
	"github.com/cleared-dev/receipts/internal/store"
)

// conditionFilter consults stored exclusion conditions.
type conditionFilter struct {
	q store.Lookups
}

func newConditionFilter(q store.Lookups) Filter {
	return conditionFilter{q: q}
}

func (conditionFilter) Name() string { return "exclusion_conditions" }

func (f conditionFilter) IsExclusion(ctx context.Context, txn model.RawTransaction) (bool, error) {
	return f.q.ExclusionExists(ctx, strings.ToUpper(txn.Description), txn.TransactionDate, txn.Amount)
}

var excludedBMOCodes = map[string]bool{"SO": true, "SC": true, "CW": true}

// bmoTransactionCodes drops standing orders, service charges and online
// banking transfers.
type bmoTransactionCodes struct{}

func (bmoTransactionCodes) Name() string { return "bmo_transaction_codes" }

func (bmoTransactionCodes) IsExclusion(_ context.Context, txn model.RawTransaction) (bool, error) {
	return excludedBMOCodes[txn.MiscValue(model.MiscTransactionCode)], nil
}

var paymentDescriptions = map[string]bool{
	"PAYMENT RECEIVED - THANK YOU":           true,
	"AUTOMATIC PAYMENT RECEIVED - THANK YOU": true,
	"ONLINE PAYMENT":                         true,
	"PAYMENT":                                true,
}

// creditPayments drops payments made towards a credit card balance.
type creditPayments struct{}

func (creditPayments) Name() string { return "credit_payments" }

func (creditPayments) IsExclusion(_ context.Context, txn model.RawTransaction) (bool, error) {
	return txn.MiscValue(model.MiscCategory) == "Payment" ||
		txn.MiscValue(model.MiscType) == "Payment" ||
		paymentDescriptions[strings.ToUpper(txn.Description)], nil
}

var craPaymentPattern = regexp.MustCompile(`^ONLINE PURCHASE\s.*PAY\s+TO\s+CRA`)

// craPayments drops withholding tax remittances from the savings account.
type craPayments struct{}

func (craPayments) Name() string { return "cra_payments" }

func (craPayments) IsExclusion(_ context.Context, txn model.RawTransaction) (bool, error) {
	return paidWith(txn, "BMO Savings") && craPaymentPattern.MatchString(strings.ToUpper(txn.Description)), nil
}

var wellsFargoTransferPattern = regexp.MustCompile(`^(ONLINE TRANSFER REF|BILL PAY)\s.+ON\s.+$`)

// wellsFargoOnlinePayments drops transfers and bill payments out of checking.
type wellsFargoOnlinePayments struct{}

func (wellsFargoOnlinePayments) Name() string { return "wellsfargo_online_payments" }

func (wellsFargoOnlinePayments) IsExclusion(_ context.Context, txn model.RawTransaction) (bool, error) {
	return paidWith(txn, "Wells Fargo Checking") && wellsFargoTransferPattern.MatchString(strings.ToUpper(txn.Description)), nil
}

// checks drops cheques, which are itemized by hand.
type checks struct{}

func (checks) Name() string { return "checks" }

func (checks) IsExclusion(_ context.Context, txn model.RawTransaction) (bool, error) {
	return txn.MiscValue(model.MiscCheckNumber) != "", nil
}

func paidWith(txn model.RawTransaction, name string) bool {
	return txn.PaymentMethod != nil && txn.PaymentMethod.Name == name
}
