package financing

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// TaxTable maps upper-case jurisdiction codes to tax rates expressed as fractions
type TaxTable map[string]decimal.Decimal

// NewTaxTable builds a table with normalized codes
func NewTaxTable(rates map[string]decimal.Decimal) TaxTable {
	table := make(TaxTable, len(rates))
	for code, rate := range rates {
		table[NormalizeJurisdiction(code)] = rate
	}
	return table
}

// NormalizeJurisdiction trims and upper-cases a jurisdiction code
func NormalizeJurisdiction(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Lookup returns the rate for code after normalizing it
func (t TaxTable) Lookup(code string) (decimal.Decimal, bool) {
	normalized := NormalizeJurisdiction(code)
	if normalized == "" {
		return decimal.Zero, false
	}
	rate, ok := t[normalized]
	return rate, ok
}

// Codes returns the jurisdiction codes in ascending order
func (t TaxTable) Codes() []string {
	codes := make([]string, 0, len(t))
	for code := range t {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Config holds validation bounds and the jurisdiction tax table.
// A Config is read-only once built; share it freely between calls and goroutines.
type Config struct {
	MinPrice       decimal.Decimal
	MaxPrice       decimal.Decimal
	MinAPR         decimal.Decimal
	MaxAPR         decimal.Decimal
	MinDownPayment decimal.Decimal
	MinFees        decimal.Decimal
	AllowedTerms   []int
	TaxRates       TaxTable
}

// DefaultAllowedTerms are the loan lengths offered by the vehicle-loan UI
var DefaultAllowedTerms = []int{12, 24, 36, 48, 60, 72, 84}

// DefaultConfig returns a fresh copy of the vehicle-loan defaults
func DefaultConfig() Config {
	return Config{
		MinPrice:       decimal.NewFromInt(1000),
		MaxPrice:       decimal.NewFromInt(500000),
		MinAPR:         decimal.Zero,
		MaxAPR:         decimal.NewFromInt(30),
		MinDownPayment: decimal.Zero,
		MinFees:        decimal.Zero,
		AllowedTerms:   append([]int(nil), DefaultAllowedTerms...),
		TaxRates: NewTaxTable(map[string]decimal.Decimal{
			"AB": decimal.RequireFromString("0.05"),
			"BC": decimal.RequireFromString("0.12"),
			"MB": decimal.RequireFromString("0.12"),
			"NB": decimal.RequireFromString("0.15"),
			"NL": decimal.RequireFromString("0.15"),
			"NS": decimal.RequireFromString("0.15"),
			"NT": decimal.RequireFromString("0.05"),
			"NU": decimal.RequireFromString("0.05"),
			"ON": decimal.RequireFromString("0.13"),
			"PE": decimal.RequireFromString("0.15"),
			// GST and QST precombined into one flat rate, applied once to the taxable base
			"QC": decimal.RequireFromString("0.14975"),
			"SK": decimal.RequireFromString("0.11"),
			"YT": decimal.RequireFromString("0.05"),
		}),
	}
}

// Clone returns a deep copy so callers can derive per-request variants
func (c Config) Clone() Config {
	clone := c
	clone.AllowedTerms = append([]int(nil), c.AllowedTerms...)
	clone.TaxRates = make(TaxTable, len(c.TaxRates))
	for code, rate := range c.TaxRates {
		clone.TaxRates[code] = rate
	}
	return clone
}

// TermAllowed reports whether months is one of the configured terms
func (c Config) TermAllowed(months int) bool {
	for _, term := range c.AllowedTerms {
		if term == months {
			return true
		}
	}
	return false
}
