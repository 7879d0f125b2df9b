package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/dafibh/autolot/autolot-backend/internal/financing"
	"github.com/dafibh/autolot/autolot-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// FinancingHandler serves the public loan calculator
type FinancingHandler struct {
	financingService *service.FinancingService
}

// NewFinancingHandler creates a new FinancingHandler
func NewFinancingHandler(financingService *service.FinancingService) *FinancingHandler {
	return &FinancingHandler{financingService: financingService}
}

// CalculateRequest represents a calculator request. Amounts are strings so that
// "NaN" and "Inf" reach the validator instead of failing the JSON decode.
type CalculateRequest struct {
	Price        string  `json:"price"`
	DownPayment  string  `json:"downPayment"`
	TradeInValue string  `json:"tradeInValue"`
	Fees         string  `json:"fees"`
	FinanceFees  bool    `json:"financeFees"`
	APR          string  `json:"apr"`
	TermMonths   string  `json:"termMonths"`
	Frequency    string  `json:"frequency"`
	Jurisdiction string  `json:"jurisdiction"`
	TaxRate      *string `json:"taxRate"`
}

// TaxResponse shows how the financed principal was built
type TaxResponse struct {
	TaxableAmount     string `json:"taxableAmount"`
	TaxRate           string `json:"taxRate"`
	TaxAmount         string `json:"taxAmount"`
	FinancedPrincipal string `json:"financedPrincipal"`
	FeesFinanced      bool   `json:"feesFinanced"`
}

// PaymentResponse holds the headline loan numbers
type PaymentResponse struct {
	PaymentAmount      string `json:"paymentAmount"`
	NumberOfPayments   int    `json:"numberOfPayments"`
	PaymentsPerYear    int    `json:"paymentsPerYear"`
	Frequency          string `json:"frequency"`
	PeriodicRate       string `json:"periodicRate"`
	EffectivePrincipal string `json:"effectivePrincipal"`
	TotalLoanCost      string `json:"totalLoanCost"`
	TotalInterest      string `json:"totalInterest"`
}

// ScheduleEntryResponse is one amortization row
type ScheduleEntryResponse struct {
	PaymentNumber    int    `json:"paymentNumber"`
	PaymentAmount    string `json:"paymentAmount"`
	PrincipalPortion string `json:"principalPortion"`
	InterestPortion  string `json:"interestPortion"`
	RemainingBalance string `json:"remainingBalance"`
}

// CalculateResponse represents a successful calculation
type CalculateResponse struct {
	Jurisdiction string                  `json:"jurisdiction,omitempty"`
	Tax          TaxResponse             `json:"tax"`
	Payment      PaymentResponse         `json:"payment"`
	Schedule     []ScheduleEntryResponse `json:"schedule,omitempty"`
}

// JurisdictionResponse is one entry of the tax table
type JurisdictionResponse struct {
	Code string `json:"code"`
	Rate string `json:"rate"`
}

// FinancingConfigResponse lists the limits calculator forms must respect
type FinancingConfigResponse struct {
	MinPrice       string                 `json:"minPrice"`
	MaxPrice       string                 `json:"maxPrice"`
	MinAPR         string                 `json:"minApr"`
	MaxAPR         string                 `json:"maxApr"`
	MinDownPayment string                 `json:"minDownPayment"`
	MinFees        string                 `json:"minFees"`
	AllowedTerms   []int                  `json:"allowedTerms"`
	Frequencies    []string               `json:"frequencies"`
	Jurisdictions  []JurisdictionResponse `json:"jurisdictions"`
}

// GetConfig handles GET /api/v1/financing/config
func (h *FinancingHandler) GetConfig(c echo.Context) error {
	bounds := h.financingService.Bounds()
	rates := h.financingService.Jurisdictions()

	jurisdictions := make([]JurisdictionResponse, len(rates))
	for i, rate := range rates {
		jurisdictions[i] = JurisdictionResponse{Code: rate.Code, Rate: rate.Rate.String()}
	}

	return c.JSON(http.StatusOK, FinancingConfigResponse{
		MinPrice:       bounds.MinPrice.StringFixed(2),
		MaxPrice:       bounds.MaxPrice.StringFixed(2),
		MinAPR:         bounds.MinAPR.String(),
		MaxAPR:         bounds.MaxAPR.String(),
		MinDownPayment: bounds.MinDownPayment.StringFixed(2),
		MinFees:        bounds.MinFees.StringFixed(2),
		AllowedTerms:   bounds.AllowedTerms,
		Frequencies:    []string{financing.Monthly.String(), financing.BiWeekly.String()},
		Jurisdictions:  jurisdictions,
	})
}

// Calculate handles POST /api/v1/financing/calculate
func (h *FinancingHandler) Calculate(c echo.Context) error {
	return h.calculate(c, false)
}

// CalculateSchedule handles POST /api/v1/financing/schedule
func (h *FinancingHandler) CalculateSchedule(c echo.Context) error {
	return h.calculate(c, true)
}

func (h *FinancingHandler) calculate(c echo.Context, withSchedule bool) error {
	var req CalculateRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	params, fieldErrors := req.toParams()
	if len(fieldErrors) > 0 {
		return NewValidationError(c, "Validation failed", fieldErrors)
	}

	quote := h.financingService.Calculate(c.Request().Context(), params, withSchedule)
	if !quote.Validation.Valid {
		return NewValidationError(c, "Validation failed", violationErrors(quote.Validation.Violations))
	}
	if quote.Error != "" {
		return NewCalculationError(c, quote.Error)
	}

	return c.JSON(http.StatusOK, toCalculateResponse(quote))
}

// toParams converts the request into calculator input. Only values that are not
// numbers at all are reported here; range checks belong to the calculator.
func (r CalculateRequest) toParams() (financing.LoanParameters, []ValidationError) {
	var fieldErrors []ValidationError
	amount := func(field, value string, required bool) float64 {
		v, msg := parseAmount(field, value, required)
		if msg != "" {
			fieldErrors = append(fieldErrors, ValidationError{Field: field, Message: msg})
		}
		return v
	}

	params := financing.LoanParameters{
		Price:        amount(financing.FieldPrice, r.Price, true),
		DownPayment:  amount(financing.FieldDownPayment, r.DownPayment, false),
		TradeInValue: amount("tradeInValue", r.TradeInValue, false),
		Fees:         amount(financing.FieldFees, r.Fees, false),
		FinanceFees:  r.FinanceFees,
		APR:          amount(financing.FieldAPR, r.APR, true),
		TermMonths:   amount(financing.FieldTermMonths, r.TermMonths, true),
		Jurisdiction: strings.TrimSpace(r.Jurisdiction),
	}

	if strings.TrimSpace(r.Frequency) != "" {
		freq, err := financing.ParseFrequency(r.Frequency)
		if err != nil {
			fieldErrors = append(fieldErrors, ValidationError{Field: "frequency", Message: "frequency must be monthly or bi-weekly"})
		}
		params.Frequency = freq
	}

	if r.TaxRate != nil && strings.TrimSpace(*r.TaxRate) != "" {
		rate := amount("taxRate", *r.TaxRate, true)
		params.TaxRateOverride = &rate
	}

	return params, fieldErrors
}

// parseAmount returns a message when value is missing or not a number.
// Out-of-range values parse to an infinity and are left to the validator.
func parseAmount(field, value string, required bool) (float64, string) {
	value = strings.TrimSpace(value)
	if value == "" {
		if required {
			return 0, field + " is required"
		}
		return 0, ""
	}

	v, err := strconv.ParseFloat(value, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, field + " must be a number"
	}
	return v, ""
}

func violationErrors(violations []financing.Violation) []ValidationError {
	errs := make([]ValidationError, len(violations))
	for i, v := range violations {
		errs[i] = ValidationError{Field: v.Field, Message: v.Message}
	}
	return errs
}

func toCalculateResponse(quote financing.Quote) CalculateResponse {
	resp := CalculateResponse{
		Jurisdiction: quote.Jurisdiction,
		Tax: TaxResponse{
			TaxableAmount:     quote.Tax.TaxableAmount.StringFixed(2),
			TaxRate:           quote.Tax.TaxRate.String(),
			TaxAmount:         quote.Tax.TaxAmount.StringFixed(2),
			FinancedPrincipal: quote.Tax.FinancedPrincipal.StringFixed(2),
			FeesFinanced:      quote.Tax.FeesFinanced,
		},
		Payment: PaymentResponse{
			PaymentAmount:      quote.Payment.PaymentAmount.StringFixed(2),
			NumberOfPayments:   quote.Payment.NumberOfPayments,
			PaymentsPerYear:    quote.Payment.PaymentsPerYear,
			Frequency:          quote.Payment.Frequency.String(),
			PeriodicRate:       quote.Payment.PeriodicRate.String(),
			EffectivePrincipal: quote.Payment.EffectivePrincipal.StringFixed(2),
			TotalLoanCost:      quote.Payment.TotalLoanCost.StringFixed(2),
			TotalInterest:      quote.Payment.TotalInterest.StringFixed(2),
		},
	}
	if quote.Schedule != nil {
		resp.Schedule = toScheduleResponse(quote.Schedule)
	}
	return resp
}

func toScheduleResponse(schedule []financing.ScheduleEntry) []ScheduleEntryResponse {
	rows := make([]ScheduleEntryResponse, len(schedule))
	for i, row := range schedule {
		rows[i] = ScheduleEntryResponse{
			PaymentNumber:    row.PaymentNumber,
			PaymentAmount:    row.PaymentAmount.StringFixed(2),
			PrincipalPortion: row.PrincipalPortion.StringFixed(2),
			InterestPortion:  row.InterestPortion.StringFixed(2),
			RemainingBalance: row.RemainingBalance.StringFixed(2),
		}
	}
	return rows
}
