package money_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/ahinestrog/bookshop/internal/money"
)

func Test_Line(t *testing.T) {
	got := money.Line(decimal.RequireFromString("19.99"), 2)

	assert.True(t, decimal.RequireFromString("39.98").Equal(got), got.String())
}

func Test_Sum_IsOrderIndependent(t *testing.T) {
	a := decimal.RequireFromString("39.98")
	b := decimal.RequireFromString("9.99")
	c := decimal.RequireFromString("0.03")

	want := decimal.RequireFromString("50.00")
	assert.True(t, want.Equal(money.Sum(a, b, c)))
	assert.True(t, want.Equal(money.Sum(c, a, b)))
	assert.True(t, decimal.Zero.Equal(money.Sum()))
}

func Test_Normalize(t *testing.T) {
	assert.Equal(t, "10.13", money.Normalize(decimal.RequireFromString("10.125")).String())
	assert.Equal(t, "7", money.Normalize(decimal.NewFromInt(7)).String())
}

func Test_Format(t *testing.T) {
	assert.Equal(t, "$1,234.50", money.Format(decimal.RequireFromString("1234.5")))
	assert.Equal(t, "$49.97", money.Format(decimal.RequireFromString("49.97")))
	assert.Equal(t, "$0.00", money.Format(decimal.Zero))
	assert.Equal(t, "$1,000.00", money.Format(decimal.RequireFromString("999.999")))
	assert.Equal(t, "-$3.10", money.Format(decimal.RequireFromString("-3.1")))
	assert.Equal(t, "$92,233,720,368,547,758.07",
		money.Format(decimal.RequireFromString("92233720368547758.07")), "cents survive large totals")
}
