package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestExclusionConditionMatches(t *testing.T) {
	prefix := "AMAZON"
	maven := "MAVEN"
	on := date(2016, 9, 21)
	amountDate := date(2016, 9, 15)
	amount := int64(4219)

	tests := []struct {
		name   string
		cond   ExclusionCondition
		desc   string
		on     time.Time
		amount int64
		want   bool
	}{
		{"prefix any date", ExclusionCondition{Prefix: &prefix}, "AMAZON MKTPLACE PMTS", date(2016, 8, 1), -100, true},
		{"prefix not matching", ExclusionCondition{Prefix: &prefix}, "MARINA DELI", date(2016, 8, 1), -100, false},
		{"prefix is literal", ExclusionCondition{Prefix: &prefix}, "XAMAZON", date(2016, 8, 1), -100, false},
		{"prefix on date", ExclusionCondition{Prefix: &maven, OnDate: &on}, "MAVEN", on, -667, true},
		{"prefix other date", ExclusionCondition{Prefix: &maven, OnDate: &on}, "MAVEN", date(2016, 8, 30), -667, false},
		{"date and amount", ExclusionCondition{OnDate: &amountDate, Amount: &amount}, "SOME VENDOR", amountDate, 4219, true},
		{"date and other amount", ExclusionCondition{OnDate: &amountDate, Amount: &amount}, "SOME VENDOR", amountDate, 4220, false},
		{"amount without date", ExclusionCondition{Amount: &amount}, "SOME VENDOR", amountDate, 4219, false},
		{"empty condition", ExclusionCondition{}, "ANYTHING", amountDate, 4219, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cond.Matches(tt.desc, tt.on, tt.amount))
		})
	}
}

func TestSameDayIgnoresClock(t *testing.T) {
	a := time.Date(2016, 8, 2, 0, 0, 0, 0, time.UTC)
	b := time.Date(2016, 8, 2, 23, 59, 0, 0, time.UTC)
	assert.True(t, SameDay(a, b))
	assert.False(t, SameDay(a, b.AddDate(0, 0, 1)))
}

func TestExpenseCategoryLabel(t *testing.T) {
	assert.Equal(t, "Gross Rent", CategoryRent.Label())
	assert.Equal(t, "Management and Administrative", CategoryAdministrative.Label())

	c, err := ParseExpenseCategory("property_tax")
	assert.NoError(t, err)
	assert.Equal(t, CategoryPropertyTax, c)

	_, err = ParseExpenseCategory("bogus")
	assert.Error(t, err)
}

func TestParseEnums(t *testing.T) {
	_, err := ParseCurrency("EUR")
	assert.Error(t, err)

	op, err := ParseMatchOperation("like")
	assert.NoError(t, err)
	assert.Equal(t, MatchLike, op)

	tt, err := ParseTaxType("hst")
	assert.NoError(t, err)
	assert.Equal(t, TaxTypeHST, tt)

	_, err = ParseTaxType("gst")
	assert.Error(t, err)

	_, err = ParseAssetType("rental")
	assert.NoError(t, err)
}

func TestRawTransactionMiscValue(t *testing.T) {
	var tx RawTransaction
	assert.Equal(t, "", tx.MiscValue(MiscTransactionCode))

	tx.Misc = map[string]string{MiscTransactionCode: "CD"}
	assert.Equal(t, "CD", tx.MiscValue(MiscTransactionCode))
}
