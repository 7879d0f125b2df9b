package financing

import (
	"github.com/shopspring/decimal"
)

// CalculateOptions selects the optional parts of a quote
type CalculateOptions struct {
	IncludeSchedule bool
}

// Quote is the full outcome of one calculation. Failures are reported as data:
// an invalid Validation, or a non-empty Error with every number zeroed.
type Quote struct {
	Validation   ValidationOutcome `json:"validation"`
	Jurisdiction string            `json:"jurisdiction,omitempty"`
	Tax          TaxBreakdown      `json:"tax"`
	Payment      PaymentResult     `json:"payment"`
	Schedule     []ScheduleEntry   `json:"schedule,omitempty"`
	Error        string            `json:"error,omitempty"`
}

// OK reports whether the quote passed validation and calculated cleanly
func (q Quote) OK() bool {
	return q.Validation.Valid && q.Error == ""
}

// Calculate runs validation, tax resolution, principal, payment and optionally the schedule
func Calculate(params LoanParameters, cfg Config, opts CalculateOptions) Quote {
	quote := Quote{Validation: Validate(params, cfg)}
	if !quote.Validation.Valid {
		return quote
	}

	if !isFinite(params.TradeInValue) {
		return failed(quote, "Trade-in value must be a finite number")
	}
	if params.TradeInValue < 0 {
		return failed(quote, "Trade-in value cannot be negative")
	}

	var override *decimal.Decimal
	if params.TaxRateOverride != nil {
		if !isFinite(*params.TaxRateOverride) {
			return failed(quote, "Tax rate must be a finite number")
		}
		rate := decimal.NewFromFloat(*params.TaxRateOverride)
		if err := CheckTaxRate(rate); err != nil {
			return failed(quote, "Tax rate must be between 0 and 1")
		}
		override = &rate
	}

	if override == nil {
		if _, known := cfg.TaxRates.Lookup(params.Jurisdiction); known {
			quote.Jurisdiction = NormalizeJurisdiction(params.Jurisdiction)
		}
	}
	rate := ResolveRate(params.Jurisdiction, override, cfg.TaxRates)

	quote.Tax = ComputePrincipal(PrincipalInput{
		Price:        decimal.NewFromFloat(params.Price),
		DownPayment:  decimal.NewFromFloat(params.DownPayment),
		TradeInValue: decimal.NewFromFloat(params.TradeInValue),
		Fees:         decimal.NewFromFloat(params.Fees),
		FinanceFees:  params.FinanceFees,
	}, rate)

	payment, err := ComputePayment(quote.Tax.FinancedPrincipal, decimal.NewFromFloat(params.APR), int(params.TermMonths), params.Frequency)
	if err != nil {
		return failed(quote, err.Error())
	}
	quote.Payment = payment

	if opts.IncludeSchedule {
		quote.Schedule = GenerateSchedule(payment.EffectivePrincipal, payment.PeriodicRate, payment.PaymentAmount, payment.NumberOfPayments)
	}
	return quote
}

func failed(quote Quote, message string) Quote {
	return Quote{
		Validation:   quote.Validation,
		Jurisdiction: quote.Jurisdiction,
		Error:        message,
	}
}
