package importer

import (
	"io"
	"strings"

	"github.com/cleared-dev/receipts/internal/model"
)

// CapitalOneParser parses Capital One card exports with split debit and
// credit columns.
type CapitalOneParser struct {
	base
}

// NewCapitalOneParser creates a parser for files routed to pm.
func NewCapitalOneParser(pm model.PaymentMethod) Parser {
	return &CapitalOneParser{base{pm}}
}

var capitalOneSchema = Schema{
	Fields:     []string{"stage", "transaction_date", "posted_date", "card_number", "description", "category", "debit", "credit"},
	DateLayout: usDateLayout,
	SkipHeader: true,
	Filters:    []LineFilter{NonEmptyLines{}},
}

func (p *CapitalOneParser) Format() string { return "capitalone" }

func (p *CapitalOneParser) Parse(r io.Reader) ([]model.RawTransaction, error) {
	s := capitalOneSchema
	return parseWith(r, s, func(line int, row Row) (model.RawTransaction, error) {
		date, err := s.date(row, "transaction_date")
		if err != nil {
			return model.RawTransaction{}, err
		}
		debit, err := optionalAmount(row, "debit")
		if err != nil {
			return model.RawTransaction{}, err
		}
		credit, err := optionalAmount(row, "credit")
		if err != nil {
			return model.RawTransaction{}, err
		}
		misc := map[string]string{
			model.MiscCategory:    strings.TrimSpace(row["category"]),
			model.MiscLast4Digits: lastFour(row["card_number"]),
		}
		return p.raw(line, date, credit-debit, model.CurrencyUSD, strings.TrimSpace(row["description"]), misc), nil
	})
}
