package importer

import (
	"io"
	"strings"

	"github.com/cleared-dev/receipts/internal/model"
)

// ChaseVisaParser parses Chase credit card exports.
type ChaseVisaParser struct {
	base
}

// NewChaseVisaParser creates a parser for files routed to pm.
func NewChaseVisaParser(pm model.PaymentMethod) Parser {
	return &ChaseVisaParser{base{pm}}
}

var chaseVisaSchema = Schema{
	Fields:     []string{"transaction_date", "posted_date", "description", "category", "type", "amount"},
	DateLayout: usDateLayout,
	SkipHeader: true,
	Filters:    []LineFilter{NonEmptyLines{}},
}

func (p *ChaseVisaParser) Format() string { return "chase_visa" }

func (p *ChaseVisaParser) Parse(r io.Reader) ([]model.RawTransaction, error) {
	s := chaseVisaSchema
	return parseWith(r, s, func(line int, row Row) (model.RawTransaction, error) {
		date, err := s.date(row, "transaction_date")
		if err != nil {
			return model.RawTransaction{}, err
		}
		amt, err := amount(row, "amount")
		if err != nil {
			return model.RawTransaction{}, err
		}
		misc := map[string]string{
			model.MiscCategory: strings.TrimSpace(row["category"]),
			model.MiscType:     strings.TrimSpace(row["type"]),
		}
		return p.raw(line, date, amt, model.CurrencyUSD, strings.ToUpper(strings.TrimSpace(row["description"])), misc), nil
	})
}
