package financing

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrInvalidTaxRate is returned when an explicit tax rate is outside [0, 1]
var ErrInvalidTaxRate = errors.New("tax rate must be between 0 and 1")

// ResolveRate picks the tax rate for a quote. An explicit override always wins;
// otherwise the code is looked up in table. Unknown or empty codes mean no tax.
func ResolveRate(code string, override *decimal.Decimal, table TaxTable) decimal.Decimal {
	if override != nil {
		return *override
	}
	if rate, ok := table.Lookup(code); ok {
		return rate
	}
	return decimal.Zero
}

// CheckTaxRate reports ErrInvalidTaxRate for rates outside [0, 1]
func CheckTaxRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return ErrInvalidTaxRate
	}
	return nil
}
