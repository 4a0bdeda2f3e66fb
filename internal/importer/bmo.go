package importer

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/cleared-dev/receipts/internal/model"
)

const bmoDateLayout = "20060102"

// BMO transaction codes handled outside the alias path.
const (
	BMOCodeCheckDeposit  = "CD"
	BMOCodeOnlineBanking = "CW"
	BMOCodeStandingOrder = "SO"
	BMOCodeServiceCharge = "SC"
)

var bmoPartyPattern = regexp.MustCompile(`^\[([A-Z]{2})\](.*)$`)

// bmoCodes is every transaction code BMO documents for account exports.
var bmoCodes = map[string]struct{}{
	"DS": {}, BMOCodeCheckDeposit: {}, BMOCodeOnlineBanking: {}, BMOCodeStandingOrder: {},
	BMOCodeServiceCharge: {}, "DN": {}, "IB": {}, "IN": {}, "OL": {}, "MB": {}, "RT": {},
	"TF": {}, "FX": {}, "WD": {}, "CM": {}, "DM": {}, "AD": {}, "BC": {}, "OM": {}, "OP": {},
	"DC": {},
}

func bmoFilters() []LineFilter {
	return []LineFilter{
		NonEmptyLines{},
		MustSkipPatterns(`Following data is valid as of.*`),
	}
}

// BMOBankAccountParser parses BMO chequing and savings exports. The party
// column carries a bracketed transaction code: "[DS]SHOP NAME".
type BMOBankAccountParser struct {
	base
}

// NewBMOBankAccountParser creates a parser for files routed to pm.
func NewBMOBankAccountParser(pm model.PaymentMethod) Parser {
	return &BMOBankAccountParser{base{pm}}
}

var bmoBankAccountSchema = Schema{
	Fields:     []string{"card_number", "type", "date", "amount", "party"},
	Quote:      '\'',
	DateLayout: bmoDateLayout,
	SkipHeader: true,
	Filters:    bmoFilters(),
}

func (p *BMOBankAccountParser) Format() string { return "bmo_bank_account" }

func (p *BMOBankAccountParser) Parse(r io.Reader) ([]model.RawTransaction, error) {
	s := bmoBankAccountSchema
	return parseWith(r, s, func(line int, row Row) (model.RawTransaction, error) {
		m := bmoPartyPattern.FindStringSubmatch(strings.TrimSpace(row["party"]))
		if m == nil {
			return model.RawTransaction{}, fmt.Errorf("unable to parse party %q", row["party"])
		}
		if _, ok := bmoCodes[m[1]]; !ok {
			return model.RawTransaction{}, fmt.Errorf("unknown transaction code %q in party %q", m[1], row["party"])
		}
		date, err := s.date(row, "date")
		if err != nil {
			return model.RawTransaction{}, err
		}
		amt, err := amount(row, "amount")
		if err != nil {
			return model.RawTransaction{}, err
		}
		misc := map[string]string{
			model.MiscTransactionCode: m[1],
			model.MiscLast4Digits:     lastFour(row["card_number"]),
		}
		return p.raw(line, date, amt, model.CurrencyCAD, strings.TrimSpace(m[2]), misc), nil
	})
}

// BMOCreditParser parses BMO Mastercard and line-of-credit exports, where
// positive amounts are charges.
type BMOCreditParser struct {
	base
}

// NewBMOCreditParser creates a parser for files routed to pm.
func NewBMOCreditParser(pm model.PaymentMethod) Parser {
	return &BMOCreditParser{base{pm}}
}

var bmoCreditSchema = Schema{
	Fields:     []string{"item_number", "card_number", "transaction_date", "posting_date", "amount", "description"},
	Quote:      '\'',
	DateLayout: bmoDateLayout,
	SkipHeader: true,
	Filters:    bmoFilters(),
}

func (p *BMOCreditParser) Format() string { return "bmo_credit" }

func (p *BMOCreditParser) Parse(r io.Reader) ([]model.RawTransaction, error) {
	s := bmoCreditSchema
	return parseWith(r, s, func(line int, row Row) (model.RawTransaction, error) {
		date, err := s.date(row, "transaction_date")
		if err != nil {
			return model.RawTransaction{}, err
		}
		amt, err := amount(row, "amount")
		if err != nil {
			return model.RawTransaction{}, err
		}
		misc := map[string]string{model.MiscLast4Digits: lastFour(row["card_number"])}
		return p.raw(line, date, -amt, model.CurrencyCAD, strings.TrimSpace(row["description"]), misc), nil
	})
}
