package report

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Money formats amount in currency with the currency's grapheme, separators
// and fraction digits, e.g. "R$1.234,56" for BRL. Unknown currency codes are
// rendered as a plain two-digit number followed by the code.
func Money(amount decimal.Decimal, currency string) string {
	cur := money.GetCurrency(strings.ToUpper(currency))
	if cur == nil {
		return amount.StringFixed(2) + " " + currency
	}
	factor := decimal.New(1, int32(cur.Fraction))
	return money.New(amount.Mul(factor).Round(0).IntPart(), cur.Code).Display()
}

// MoneyFloat is Money for API float values.
func MoneyFloat(amount float64, currency string) string {
	return Money(decimal.NewFromFloat(amount), currency)
}

// Percent formats a percentage with two decimals in the currency's decimal
// separator, e.g. "15,15%" for BRL.
func Percent(p float64, currency string) string {
	s := decimal.NewFromFloat(p).StringFixed(2)
	if cur := money.GetCurrency(strings.ToUpper(currency)); cur != nil && cur.Decimal != "." {
		s = strings.Replace(s, ".", cur.Decimal, 1)
	}
	return s + "%"
}

// Quantity formats a quantity without trailing zeros.
func Quantity(q float64) string {
	return decimal.NewFromFloat(q).String()
}
