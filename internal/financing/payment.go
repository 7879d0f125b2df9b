package financing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrCalculation is returned when valid-looking inputs still produce an unusable result
var ErrCalculation = errors.New("loan calculation failed")

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// PaymentResult holds the headline numbers of a loan.
// PaymentAmount, TotalLoanCost and TotalInterest are each rounded to cents.
type PaymentResult struct {
	PaymentAmount      decimal.Decimal `json:"paymentAmount"`
	NumberOfPayments   int             `json:"numberOfPayments"`
	TotalLoanCost      decimal.Decimal `json:"totalLoanCost"`
	TotalInterest      decimal.Decimal `json:"totalInterest"`
	EffectivePrincipal decimal.Decimal `json:"effectivePrincipal"`
	PeriodicRate       decimal.Decimal `json:"periodicRate"`
	PaymentsPerYear    int             `json:"paymentsPerYear"`
	Frequency          Frequency       `json:"frequency"`
}

// PeriodicRate converts an APR percentage into the rate applied each payment period
func PeriodicRate(apr decimal.Decimal, freq Frequency) decimal.Decimal {
	perYear := freq.PaymentsPerYear()
	if perYear == 0 {
		return decimal.Zero
	}
	return apr.Div(hundred).Div(decimal.NewFromInt(int64(perYear)))
}

// ComputePayment derives the periodic payment for principal at apr over termMonths.
// A non-positive principal yields a zero payment. An error wrapping ErrCalculation
// comes back with a zeroed result when no usable payment exists.
func ComputePayment(principal, apr decimal.Decimal, termMonths int, freq Frequency) (PaymentResult, error) {
	if !freq.Valid() {
		return PaymentResult{}, fmt.Errorf("%w: %v", ErrCalculation, ErrUnknownFrequency)
	}

	perYear := freq.PaymentsPerYear()
	count := freq.TotalPayments(termMonths)
	if count <= 0 {
		return PaymentResult{}, fmt.Errorf("%w: loan term of %d months has no payments", ErrCalculation, termMonths)
	}
	rate := PeriodicRate(apr, freq)

	var payment decimal.Decimal
	usable := true
	if apr.IsZero() {
		payment = principal.Div(decimal.NewFromInt(int64(count)))
	} else {
		growth, err := one.Add(rate).PowInt32(int32(count))
		if err != nil {
			usable = false
		} else if denominator := growth.Sub(one); denominator.IsZero() {
			usable = false
		} else {
			payment = principal.Mul(rate).Mul(growth).Div(denominator)
		}
	}

	// Checked after the formula so extreme rate/term pairs still land here
	if !usable {
		return PaymentResult{}, fmt.Errorf("%w: no finite payment for %s%% APR over %d payments", ErrCalculation, apr.String(), count)
	}
	if principal.LessThanOrEqual(decimal.Zero) {
		payment = decimal.Zero
	}

	effective := decimal.Max(decimal.Zero, principal)
	payment = payment.Round(2)
	totalCost := payment.Mul(decimal.NewFromInt(int64(count))).Round(2)
	totalInterest := decimal.Max(decimal.Zero, totalCost.Sub(effective)).Round(2)

	return PaymentResult{
		PaymentAmount:      payment,
		NumberOfPayments:   count,
		TotalLoanCost:      totalCost,
		TotalInterest:      totalInterest,
		EffectivePrincipal: effective,
		PeriodicRate:       rate,
		PaymentsPerYear:    perYear,
		Frequency:          freq,
	}, nil
}
