package importer

import (
	"io"
	"regexp"
	"strings"

	"github.com/cleared-dev/receipts/internal/model"
)

var authorizedPurchasePattern = regexp.MustCompile(`^PURCHASE AUTHORIZED ON (\d{2}/\d{2}) (.+)$`)

// WellsFargoParser parses Wells Fargo checking, savings and card exports,
// which have no header row.
type WellsFargoParser struct {
	base
}

// NewWellsFargoParser creates a parser for files routed to pm.
func NewWellsFargoParser(pm model.PaymentMethod) Parser {
	return &WellsFargoParser{base{pm}}
}

var wellsFargoSchema = Schema{
	Fields:     []string{"transaction_date", "amount", "unknown_0", "check_number", "party"},
	DateLayout: usDateLayout,
	Filters:    []LineFilter{NonEmptyLines{}},
}

func (p *WellsFargoParser) Format() string { return "wellsfargo" }

func (p *WellsFargoParser) Parse(r io.Reader) ([]model.RawTransaction, error) {
	s := wellsFargoSchema
	return parseWith(r, s, func(line int, row Row) (model.RawTransaction, error) {
		date, err := s.date(row, "transaction_date")
		if err != nil {
			return model.RawTransaction{}, err
		}
		amt, err := amount(row, "amount")
		if err != nil {
			return model.RawTransaction{}, err
		}

		misc := map[string]string{}
		party := strings.ToUpper(strings.TrimSpace(row["party"]))
		if m := authorizedPurchasePattern.FindStringSubmatch(party); m != nil {
			misc[model.MiscAuthorizedOn] = m[1]
			party = m[2]
		}
		if check := strings.TrimSpace(row["check_number"]); check != "" {
			misc[model.MiscCheckNumber] = check
		}
		return p.raw(line, date, amt, model.CurrencyUSD, party, misc), nil
	})
}
