package financing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestResolveRate(t *testing.T) {
	table := DefaultConfig().TaxRates
	override := dec("0.07")

	tests := []struct {
		name     string
		code     string
		override *decimal.Decimal
		expected string
	}{
		{"known code", "ON", nil, "0.13"},
		{"trimmed and lower case", "  on ", nil, "0.13"},
		{"precombined Quebec rate", "qc", nil, "0.14975"},
		{"unknown code", "ZZ", nil, "0"},
		{"empty code", "", nil, "0"},
		{"whitespace code", "   ", nil, "0"},
		{"override beats code", "ON", &override, "0.07"},
		{"override with unknown code", "ZZ", &override, "0.07"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertDecimal(t, tt.expected, ResolveRate(tt.code, tt.override, table))
		})
	}
}

func TestResolveRate_ZeroOverride(t *testing.T) {
	zero := decimal.Zero
	assertDecimal(t, "0", ResolveRate("ON", &zero, DefaultConfig().TaxRates))
}

func TestNewTaxTable_NormalizesCodes(t *testing.T) {
	table := NewTaxTable(map[string]decimal.Decimal{" ny ": dec("0.08875")})

	rate, ok := table.Lookup("NY")
	assert.True(t, ok)
	assertDecimal(t, "0.08875", rate)
	assert.Equal(t, []string{"NY"}, table.Codes())
}

func TestCheckTaxRate(t *testing.T) {
	assert.NoError(t, CheckTaxRate(dec("0")))
	assert.NoError(t, CheckTaxRate(dec("1")))
	assert.NoError(t, CheckTaxRate(dec("0.14975")))
	assert.ErrorIs(t, CheckTaxRate(dec("-0.01")), ErrInvalidTaxRate)
	assert.ErrorIs(t, CheckTaxRate(dec("1.01")), ErrInvalidTaxRate)
}
