package importer

import (
	"io"
	"time"

	"github.com/cleared-dev/receipts/internal/model"
)

const usDateLayout = "01/02/2006"

// base carries the payment method of the dispatch entry that selected the parser.
type base struct {
	method model.PaymentMethod
}

func (b base) raw(line int, date time.Time, amount int64, currency model.Currency, desc string, misc map[string]string) model.RawTransaction {
	pm := b.method
	return model.RawTransaction{
		LineNumber:      line,
		TransactionDate: date,
		Amount:          amount,
		Currency:        currency,
		Description:     desc,
		Misc:            misc,
		PaymentMethod:   &pm,
	}
}

// parseWith runs a row transform over every row of r.
func parseWith(r io.Reader, s Schema, transform func(line int, row Row) (model.RawTransaction, error)) ([]model.RawTransaction, error) {
	var txns []model.RawTransaction
	err := readRows(r, s, func(line int, row Row) error {
		txn, err := transform(line, row)
		if err != nil {
			return err
		}
		txns = append(txns, txn)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return txns, nil
}
