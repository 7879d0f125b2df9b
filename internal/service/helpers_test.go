package service

import (
	"github.com/dafibh/autolot/autolot-backend/internal/financing"
)

// referenceParams is a 20000 loan at 6.15% over 60 months with no tax: 388.05 a month
func referenceParams() financing.LoanParameters {
	return financing.LoanParameters{
		Price:      20000,
		APR:        6.15,
		TermMonths: 60,
		Frequency:  financing.Monthly,
	}
}

func zeroTax() *float64 {
	rate := 0.0
	return &rate
}
