package financing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(expected).Equal(actual), "expected %s, got %s", expected, actual.String())
}

func floatPtr(v float64) *float64 {
	return &v
}

func validParams() LoanParameters {
	return LoanParameters{
		Price:       20000,
		DownPayment: 0,
		APR:         6.15,
		TermMonths:  60,
		Frequency:   Monthly,
	}
}
