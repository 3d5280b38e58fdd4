// Package money does the price arithmetic for carts and orders. Amounts are
// decimals kept at the currency's minor-unit precision.
package money

import (
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Places is the number of minor-unit digits of the currency.
const Places = 2

// Normalize rounds d to the currency precision.
func Normalize(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Line is the amount of qty units at unit price.
func Line(unit decimal.Decimal, qty int) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt(int64(qty))).Round(Places)
}

// Sum adds amounts. The result does not depend on their order.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total.Round(Places)
}

// Format renders d for people, e.g. "$1,234.50" or "-$3.00".
func Format(d decimal.Decimal) string {
	r := d.Round(Places)
	sign := ""
	if r.IsNegative() {
		sign, r = "-", r.Abs()
	}
	_, frac, _ := strings.Cut(r.StringFixed(Places), ".")
	return sign + "$" + humanize.BigComma(r.BigInt()) + "." + frac
}
