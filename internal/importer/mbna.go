package importer

import (
	"io"
	"strings"

	"github.com/cleared-dev/receipts/internal/model"
)

// MBNAParser parses MBNA Mastercard exports.
type MBNAParser struct {
	base
}

// NewMBNAParser creates a parser for files routed to pm.
func NewMBNAParser(pm model.PaymentMethod) Parser {
	return &MBNAParser{base{pm}}
}

var mbnaSchema = Schema{
	Fields:     []string{"posted_date", "payee", "address", "amount"},
	DateLayout: usDateLayout,
	SkipHeader: true,
	Filters:    []LineFilter{NonEmptyLines{}},
}

func (p *MBNAParser) Format() string { return "mbna_mastercard" }

func (p *MBNAParser) Parse(r io.Reader) ([]model.RawTransaction, error) {
	s := mbnaSchema
	return parseWith(r, s, func(line int, row Row) (model.RawTransaction, error) {
		date, err := s.date(row, "posted_date")
		if err != nil {
			return model.RawTransaction{}, err
		}
		amt, err := amount(row, "amount")
		if err != nil {
			return model.RawTransaction{}, err
		}
		return p.raw(line, date, amt, model.CurrencyCAD, strings.TrimSpace(row["payee"]), map[string]string{}), nil
	})
}
