package financing

import "github.com/shopspring/decimal"

// PrincipalInput is the decimal form of the amounts that shape the financed principal
type PrincipalInput struct {
	Price        decimal.Decimal
	DownPayment  decimal.Decimal
	TradeInValue decimal.Decimal
	Fees         decimal.Decimal
	FinanceFees  bool
}

// TaxBreakdown shows how the financed principal was built
type TaxBreakdown struct {
	TaxableAmount     decimal.Decimal `json:"taxableAmount"`
	TaxRate           decimal.Decimal `json:"taxRate"`
	TaxAmount         decimal.Decimal `json:"taxAmount"`
	FinancedPrincipal decimal.Decimal `json:"financedPrincipal"`
	FeesFinanced      bool            `json:"feesFinanced"`
}

// ComputePrincipal applies sales tax to the amount being financed.
// Fees that are not financed are paid at signing and stay out of both the
// taxable base and the principal.
func ComputePrincipal(in PrincipalInput, taxRate decimal.Decimal) TaxBreakdown {
	base := in.Price.Sub(in.DownPayment).Sub(in.TradeInValue)
	if in.FinanceFees {
		base = base.Add(in.Fees)
	}

	taxable := decimal.Max(decimal.Zero, base)
	taxAmount := taxable.Mul(taxRate).Round(2)
	principal := decimal.Max(decimal.Zero, base.Add(taxAmount))

	return TaxBreakdown{
		TaxableAmount:     taxable,
		TaxRate:           taxRate,
		TaxAmount:         taxAmount,
		FinancedPrincipal: principal,
		FeesFinanced:      in.FinanceFees,
	}
}
