package domain

import (
	"errors"
	"time"

	"github.com/dafibh/autolot/autolot-backend/internal/financing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrQuoteNotFound       = errors.New("financing quote not found")
	ErrQuoteInvalid        = errors.New("financing quote input is invalid")
	ErrQuoteCalculation    = errors.New("financing quote could not be calculated")
	ErrListingRequired     = errors.New("listing is required")
	ErrQuoteLabelTooLong   = errors.New("quote label must be 120 characters or less")
	ErrExportNotConfigured = errors.New("schedule export storage not configured")
)

// FinancingQuote is a calculated loan offer saved against a vehicle listing.
// The schedule is not stored; it is rebuilt from the stored principal, rate and payment on demand.
type FinancingQuote struct {
	ID                uuid.UUID                `json:"id"`
	DealershipID      int32                    `json:"dealershipId"`
	ListingID         int32                    `json:"listingId"`
	Label             *string                  `json:"label,omitempty"`
	Params            financing.LoanParameters `json:"params"`
	Jurisdiction      string                   `json:"jurisdiction"`
	TaxRate           decimal.Decimal          `json:"taxRate"`
	TaxableAmount     decimal.Decimal          `json:"taxableAmount"`
	TaxAmount         decimal.Decimal          `json:"taxAmount"`
	FinancedPrincipal decimal.Decimal          `json:"financedPrincipal"`
	PeriodicRate      decimal.Decimal          `json:"periodicRate"`
	PaymentAmount     decimal.Decimal          `json:"paymentAmount"`
	NumberOfPayments  int32                    `json:"numberOfPayments"`
	TotalLoanCost     decimal.Decimal          `json:"totalLoanCost"`
	TotalInterest     decimal.Decimal          `json:"totalInterest"`
	CreatedAt         time.Time                `json:"createdAt"`
	UpdatedAt         time.Time                `json:"updatedAt"`
	DeletedAt         *time.Time               `json:"deletedAt,omitempty"`
}

// NewFinancingQuote copies the headline numbers of a calculated quote
func NewFinancingQuote(dealershipID, listingID int32, label *string, params financing.LoanParameters, q financing.Quote) *FinancingQuote {
	return &FinancingQuote{
		DealershipID:      dealershipID,
		ListingID:         listingID,
		Label:             label,
		Params:            params,
		Jurisdiction:      q.Jurisdiction,
		TaxRate:           q.Tax.TaxRate,
		TaxableAmount:     q.Tax.TaxableAmount,
		TaxAmount:         q.Tax.TaxAmount,
		FinancedPrincipal: q.Tax.FinancedPrincipal,
		PeriodicRate:      q.Payment.PeriodicRate,
		PaymentAmount:     q.Payment.PaymentAmount,
		NumberOfPayments:  int32(q.Payment.NumberOfPayments),
		TotalLoanCost:     q.Payment.TotalLoanCost,
		TotalInterest:     q.Payment.TotalInterest,
	}
}

func (q *FinancingQuote) Validate() error {
	if q.ListingID <= 0 {
		return ErrListingRequired
	}
	if q.Label != nil && len(*q.Label) > MaxQuoteLabelLength {
		return ErrQuoteLabelTooLong
	}
	return nil
}

type QuoteRepository interface {
	Create(quote *FinancingQuote) (*FinancingQuote, error)
	GetByID(dealershipID int32, id uuid.UUID) (*FinancingQuote, error)
	GetByListing(dealershipID int32, listingID int32) ([]*FinancingQuote, error)
	SoftDelete(dealershipID int32, id uuid.UUID) error
}
