package financing

import "github.com/shopspring/decimal"

// ScheduleEntry is one row of an amortization schedule, numbered from 1
type ScheduleEntry struct {
	PaymentNumber    int             `json:"paymentNumber"`
	PaymentAmount    decimal.Decimal `json:"paymentAmount"`
	PrincipalPortion decimal.Decimal `json:"principalPortion"`
	InterestPortion  decimal.Decimal `json:"interestPortion"`
	RemainingBalance decimal.Decimal `json:"remainingBalance"`
}

// GenerateSchedule splits every payment into interest and principal.
// The last row absorbs cumulative rounding drift into its principal portion, never its
// interest, so its balance is exactly zero and the principal portions sum to principal.
// Its payment amount is the adjusted principal plus interest.
func GenerateSchedule(principal, periodicRate, paymentAmount decimal.Decimal, totalPayments int) []ScheduleEntry {
	entries := []ScheduleEntry{}
	if totalPayments <= 0 || paymentAmount.IsZero() {
		return entries
	}

	balance := principal
	for n := 1; n <= totalPayments; n++ {
		interest := decimal.Zero
		if !periodicRate.IsZero() {
			interest = balance.Mul(periodicRate).Round(2)
		}
		principalPortion := paymentAmount.Sub(interest)
		balance = balance.Sub(principalPortion)
		amount := paymentAmount

		if n == totalPayments {
			principalPortion = principalPortion.Add(balance)
			balance = decimal.Zero
			amount = principalPortion.Add(interest)
		}

		entries = append(entries, ScheduleEntry{
			PaymentNumber:    n,
			PaymentAmount:    amount,
			PrincipalPortion: principalPortion,
			InterestPortion:  interest,
			RemainingBalance: balance,
		})
	}
	return entries
}
