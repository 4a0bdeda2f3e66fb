// Package money converts statement amount strings to integer minor units and back.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const minorDigits = 2

// ParseAmount parses a decimal amount such as "-11.33", "1,600.00", "$25"
// or accounting notation "(25.00)" into minor units. Digits beyond the
// second decimal place are rounded half to even.
func ParseAmount(s string) (int64, error) {
	str := strings.TrimSpace(s)
	negative := false
	if strings.HasPrefix(str, "(") && strings.HasSuffix(str, ")") {
		negative = true
		str = strings.TrimSpace(str[1 : len(str)-1])
	}
	str = strings.ReplaceAll(str, ",", "")
	if strings.HasPrefix(str, "-$") {
		str = "-" + str[2:]
	} else {
		str = strings.TrimPrefix(str, "$")
	}
	if str == "" {
		return 0, fmt.Errorf("empty amount %q", s)
	}

	d, err := decimal.NewFromString(str)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if negative {
		d = d.Neg()
	}
	r := d.Shift(minorDigits).RoundBank(0)
	if !r.BigInt().IsInt64() {
		return 0, fmt.Errorf("amount %q out of range", s)
	}
	return r.IntPart(), nil
}

// FormatMinorUnits renders minor units as a fixed two-place decimal string.
// FormatMinorUnits(160000) == "1600.00".
func FormatMinorUnits(amount int64) string {
	return decimal.New(amount, -minorDigits).StringFixed(minorDigits)
}

// ToDecimal returns the major-unit decimal value of amount.
func ToDecimal(amount int64) decimal.Decimal {
	return decimal.New(amount, -minorDigits)
}
