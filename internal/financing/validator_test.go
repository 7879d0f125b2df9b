package financing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fields(outcome ValidationOutcome) []string {
	result := make([]string, len(outcome.Violations))
	for i, v := range outcome.Violations {
		result[i] = v.Field
	}
	return result
}

func TestValidate_Valid(t *testing.T) {
	outcome := Validate(validParams(), DefaultConfig())

	assert.True(t, outcome.Valid)
	assert.Empty(t, outcome.Violations)
	assert.Empty(t, outcome.Errors())
}

func TestValidate_ReportsEveryViolation(t *testing.T) {
	params := LoanParameters{
		Price:      0,
		APR:        45,
		TermMonths: 50,
		Fees:       -1,
	}

	outcome := Validate(params, DefaultConfig())

	assert.False(t, outcome.Valid)
	assert.Equal(t, []string{FieldPrice, FieldAPR, FieldTermMonths, FieldFees}, fields(outcome))
	assert.Equal(t, []string{
		"Vehicle price must be greater than zero",
		"APR must be between 0% and 30%",
		"Loan term must be one of 12, 24, 36, 48, 60, 72, 84 months",
		"Fees must be at least $0.00",
	}, outcome.Errors())
}

func TestValidate_NonFiniteMessagesAreDistinct(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *LoanParameters)
		field   string
		message string
	}{
		{"NaN price", func(p *LoanParameters) { p.Price = math.NaN() }, FieldPrice, "Vehicle price must be a finite number"},
		{"infinite price", func(p *LoanParameters) { p.Price = math.Inf(1) }, FieldPrice, "Vehicle price must be a finite number"},
		{"NaN down payment", func(p *LoanParameters) { p.DownPayment = math.NaN() }, FieldDownPayment, "Down payment must be a finite number"},
		{"infinite APR", func(p *LoanParameters) { p.APR = math.Inf(-1) }, FieldAPR, "APR must be a finite number"},
		{"NaN term", func(p *LoanParameters) { p.TermMonths = math.NaN() }, FieldTermMonths, "Loan term must be a finite number"},
		{"infinite fees", func(p *LoanParameters) { p.Fees = math.Inf(1) }, FieldFees, "Fees must be a finite number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := validParams()
			tt.mutate(&params)

			outcome := Validate(params, DefaultConfig())

			require.False(t, outcome.Valid)
			require.Len(t, outcome.Violations, 1)
			assert.Equal(t, tt.field, outcome.Violations[0].Field)
			assert.Equal(t, tt.message, outcome.Violations[0].Message)
		})
	}
}

func TestValidate_PriceRange(t *testing.T) {
	cfg := DefaultConfig()

	for _, price := range []float64{999.99, 500000.01, 1e9} {
		params := validParams()
		params.Price = price

		outcome := Validate(params, cfg)

		require.False(t, outcome.Valid, "price %v", price)
		assert.Equal(t, "Vehicle price must be between $1000.00 and $500000.00", outcome.Violations[0].Message)
	}

	for _, price := range []float64{1000, 500000} {
		params := validParams()
		params.Price = price
		params.DownPayment = 0
		assert.True(t, Validate(params, cfg).Valid, "price %v should be inside the inclusive bounds", price)
	}
}

func TestValidate_DownPayment(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("exceeding price", func(t *testing.T) {
		params := validParams()
		params.DownPayment = 20000.01

		outcome := Validate(params, cfg)

		assert.Equal(t, []string{FieldDownPayment}, fields(outcome))
		assert.Equal(t, "Down payment cannot exceed the vehicle price", outcome.Violations[0].Message)
	})

	t.Run("equal to price is allowed", func(t *testing.T) {
		params := validParams()
		params.DownPayment = params.Price

		assert.True(t, Validate(params, cfg).Valid)
	})

	t.Run("price check skipped when price invalid", func(t *testing.T) {
		params := validParams()
		params.Price = math.NaN()
		params.DownPayment = 1e9

		outcome := Validate(params, cfg)

		assert.Equal(t, []string{FieldPrice}, fields(outcome))
	})

	t.Run("below configured minimum", func(t *testing.T) {
		custom := cfg.Clone()
		custom.MinDownPayment = dec("1000")
		params := validParams()
		params.DownPayment = 500

		outcome := Validate(params, custom)

		assert.Equal(t, []string{FieldDownPayment}, fields(outcome))
		assert.Equal(t, "Down payment must be at least $1000.00", outcome.Violations[0].Message)
	})

	t.Run("negative", func(t *testing.T) {
		params := validParams()
		params.DownPayment = -1

		assert.Equal(t, []string{FieldDownPayment}, fields(Validate(params, cfg)))
	})
}

func TestValidate_Term(t *testing.T) {
	cfg := DefaultConfig()

	for _, term := range []float64{0, 6, 50, 60.5, 96, -12} {
		params := validParams()
		params.TermMonths = term
		assert.Equal(t, []string{FieldTermMonths}, fields(Validate(params, cfg)), "term %v", term)
	}

	for _, term := range DefaultAllowedTerms {
		params := validParams()
		params.TermMonths = float64(term)
		assert.True(t, Validate(params, cfg).Valid, "term %d", term)
	}
}

func TestValidate_APRBounds(t *testing.T) {
	cfg := DefaultConfig()

	for _, apr := range []float64{0, 0.01, 29.99, 30} {
		params := validParams()
		params.APR = apr
		assert.True(t, Validate(params, cfg).Valid, "apr %v", apr)
	}
	for _, apr := range []float64{-0.01, 30.01} {
		params := validParams()
		params.APR = apr
		assert.Equal(t, []string{FieldAPR}, fields(Validate(params, cfg)), "apr %v", apr)
	}
}

func TestValidate_IgnoresTradeInAndJurisdiction(t *testing.T) {
	params := validParams()
	params.TradeInValue = math.NaN()
	params.Jurisdiction = "not-a-place"

	assert.True(t, Validate(params, DefaultConfig()).Valid)
}

func TestValidate_DoesNotMutateInputs(t *testing.T) {
	params := validParams()
	params.TaxRateOverride = floatPtr(0.1)
	before := params
	cfg := DefaultConfig()
	cfgBefore := cfg.Clone()

	Validate(params, cfg)

	assert.Equal(t, before, params)
	assert.Equal(t, cfgBefore, cfg)
}
