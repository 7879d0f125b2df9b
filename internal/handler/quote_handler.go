package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dafibh/autolot/autolot-backend/internal/domain"
	"github.com/dafibh/autolot/autolot-backend/internal/financing"
	"github.com/dafibh/autolot/autolot-backend/internal/middleware"
	"github.com/dafibh/autolot/autolot-backend/internal/service"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// QuoteHandler handles saved financing quotes on listings
type QuoteHandler struct {
	quoteService *service.QuoteService
}

// NewQuoteHandler creates a new QuoteHandler
func NewQuoteHandler(quoteService *service.QuoteService) *QuoteHandler {
	return &QuoteHandler{quoteService: quoteService}
}

// CreateQuoteRequest represents the create quote request body
type CreateQuoteRequest struct {
	CalculateRequest
	Label *string `json:"label"`
}

// QuoteParamsResponse echoes the inputs a quote was calculated from
type QuoteParamsResponse struct {
	Price        string  `json:"price"`
	DownPayment  string  `json:"downPayment"`
	TradeInValue string  `json:"tradeInValue"`
	Fees         string  `json:"fees"`
	FinanceFees  bool    `json:"financeFees"`
	APR          string  `json:"apr"`
	TermMonths   int     `json:"termMonths"`
	Frequency    string  `json:"frequency"`
	Jurisdiction string  `json:"jurisdiction,omitempty"`
	TaxRate      *string `json:"taxRate,omitempty"`
}

// QuoteResponse represents a stored quote
type QuoteResponse struct {
	ID                string              `json:"id"`
	ListingID         int32               `json:"listingId"`
	Label             *string             `json:"label"`
	Params            QuoteParamsResponse `json:"params"`
	Jurisdiction      string              `json:"jurisdiction"`
	TaxRate           string              `json:"taxRate"`
	TaxableAmount     string              `json:"taxableAmount"`
	TaxAmount         string              `json:"taxAmount"`
	FinancedPrincipal string              `json:"financedPrincipal"`
	PaymentAmount     string              `json:"paymentAmount"`
	NumberOfPayments  int32               `json:"numberOfPayments"`
	TotalLoanCost     string              `json:"totalLoanCost"`
	TotalInterest     string              `json:"totalInterest"`
	CreatedAt         time.Time           `json:"createdAt"`
}

// QuoteScheduleResponse pairs a stored quote with its rebuilt schedule
type QuoteScheduleResponse struct {
	Quote    QuoteResponse           `json:"quote"`
	Schedule []ScheduleEntryResponse `json:"schedule"`
}

// ExportResponse represents a schedule download link
type ExportResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
	Rows      int       `json:"rows"`
}

// CreateQuote handles POST /api/v1/listings/:listingId/quotes
func (h *QuoteHandler) CreateQuote(c echo.Context) error {
	dealershipID := middleware.GetDealershipID(c)
	if dealershipID == 0 {
		return NewUnauthorizedError(c, "Dealership not found")
	}

	listingID, ok := parseListingID(c)
	if !ok {
		return NewValidationError(c, "Invalid listing ID", []ValidationError{
			{Field: "listingId", Message: "Listing ID must be a positive integer"},
		})
	}

	var req CreateQuoteRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	params, fieldErrors := req.toParams()
	if len(fieldErrors) > 0 {
		return NewValidationError(c, "Validation failed", fieldErrors)
	}

	quote, err := h.quoteService.CreateQuote(c.Request().Context(), dealershipID, service.CreateQuoteInput{
		ListingID: listingID,
		Params:    params,
		Label:     req.Label,
	})
	if err != nil {
		return h.quoteError(c, err, "Failed to create quote")
	}

	return c.JSON(http.StatusCreated, toQuoteResponse(quote))
}

// ListQuotes handles GET /api/v1/listings/:listingId/quotes
func (h *QuoteHandler) ListQuotes(c echo.Context) error {
	dealershipID := middleware.GetDealershipID(c)
	if dealershipID == 0 {
		return NewUnauthorizedError(c, "Dealership not found")
	}

	listingID, ok := parseListingID(c)
	if !ok {
		return NewValidationError(c, "Invalid listing ID", nil)
	}

	quotes, err := h.quoteService.ListQuotesByListing(dealershipID, listingID)
	if err != nil {
		return h.quoteError(c, err, "Failed to list quotes")
	}

	response := make([]QuoteResponse, len(quotes))
	for i, quote := range quotes {
		response[i] = toQuoteResponse(quote)
	}
	return c.JSON(http.StatusOK, response)
}

// GetQuote handles GET /api/v1/quotes/:id
func (h *QuoteHandler) GetQuote(c echo.Context) error {
	dealershipID := middleware.GetDealershipID(c)
	if dealershipID == 0 {
		return NewUnauthorizedError(c, "Dealership not found")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid quote ID", nil)
	}

	quote, err := h.quoteService.GetQuote(dealershipID, id)
	if err != nil {
		return h.quoteError(c, err, "Failed to get quote")
	}

	return c.JSON(http.StatusOK, toQuoteResponse(quote))
}

// GetSchedule handles GET /api/v1/quotes/:id/schedule
func (h *QuoteHandler) GetSchedule(c echo.Context) error {
	dealershipID := middleware.GetDealershipID(c)
	if dealershipID == 0 {
		return NewUnauthorizedError(c, "Dealership not found")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid quote ID", nil)
	}

	quote, schedule, err := h.quoteService.GetSchedule(c.Request().Context(), dealershipID, id)
	if err != nil {
		return h.quoteError(c, err, "Failed to build schedule")
	}

	return c.JSON(http.StatusOK, QuoteScheduleResponse{
		Quote:    toQuoteResponse(quote),
		Schedule: toScheduleResponse(schedule),
	})
}

// ExportSchedule handles POST /api/v1/quotes/:id/export
func (h *QuoteHandler) ExportSchedule(c echo.Context) error {
	dealershipID := middleware.GetDealershipID(c)
	if dealershipID == 0 {
		return NewUnauthorizedError(c, "Dealership not found")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid quote ID", nil)
	}

	export, err := h.quoteService.ExportSchedule(c.Request().Context(), dealershipID, id)
	if err != nil {
		return h.quoteError(c, err, "Failed to export schedule")
	}

	return c.JSON(http.StatusOK, ExportResponse{
		URL:       export.URL,
		ExpiresAt: export.ExpiresAt,
		Rows:      export.Rows,
	})
}

// DeleteQuote handles DELETE /api/v1/quotes/:id
func (h *QuoteHandler) DeleteQuote(c echo.Context) error {
	dealershipID := middleware.GetDealershipID(c)
	if dealershipID == 0 {
		return NewUnauthorizedError(c, "Dealership not found")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid quote ID", nil)
	}

	if err := h.quoteService.DeleteQuote(dealershipID, id); err != nil {
		return h.quoteError(c, err, "Failed to delete quote")
	}

	return c.NoContent(http.StatusNoContent)
}

// quoteError maps service errors onto problem responses
func (h *QuoteHandler) quoteError(c echo.Context, err error, internalDetail string) error {
	if validationErr, ok := service.IsQuoteValidationError(err); ok {
		return NewValidationError(c, "Validation failed", violationErrors(validationErr.Violations))
	}

	switch {
	case errors.Is(err, domain.ErrQuoteNotFound):
		return NewNotFoundError(c, "Quote not found")
	case errors.Is(err, domain.ErrDealershipNotFound):
		return NewNotFoundError(c, "Dealership not found")
	case errors.Is(err, domain.ErrListingRequired):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "listingId", Message: "Listing ID must be a positive integer"},
		})
	case errors.Is(err, domain.ErrQuoteLabelTooLong):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "label", Message: "Label must be 120 characters or less"},
		})
	case errors.Is(err, domain.ErrQuoteCalculation):
		return NewCalculationError(c, err.Error())
	case errors.Is(err, domain.ErrExportNotConfigured):
		return NewUnavailableError(c, "Schedule export is not available")
	}

	log.Error().
		Err(err).
		Int32("dealership_id", middleware.GetDealershipID(c)).
		Msg(internalDetail)
	return NewInternalError(c, internalDetail)
}

func parseListingID(c echo.Context) (int32, bool) {
	id, err := strconv.ParseInt(c.Param("listingId"), 10, 32)
	if err != nil || id <= 0 {
		return 0, false
	}
	return int32(id), true
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func toQuoteParamsResponse(params financing.LoanParameters) QuoteParamsResponse {
	resp := QuoteParamsResponse{
		Price:        formatAmount(params.Price),
		DownPayment:  formatAmount(params.DownPayment),
		TradeInValue: formatAmount(params.TradeInValue),
		Fees:         formatAmount(params.Fees),
		FinanceFees:  params.FinanceFees,
		APR:          formatAmount(params.APR),
		TermMonths:   int(params.TermMonths),
		Frequency:    params.Frequency.String(),
		Jurisdiction: params.Jurisdiction,
	}
	if params.TaxRateOverride != nil {
		rate := formatAmount(*params.TaxRateOverride)
		resp.TaxRate = &rate
	}
	return resp
}

func toQuoteResponse(quote *domain.FinancingQuote) QuoteResponse {
	return QuoteResponse{
		ID:                quote.ID.String(),
		ListingID:         quote.ListingID,
		Label:             quote.Label,
		Params:            toQuoteParamsResponse(quote.Params),
		Jurisdiction:      quote.Jurisdiction,
		TaxRate:           quote.TaxRate.String(),
		TaxableAmount:     quote.TaxableAmount.StringFixed(2),
		TaxAmount:         quote.TaxAmount.StringFixed(2),
		FinancedPrincipal: quote.FinancedPrincipal.StringFixed(2),
		PaymentAmount:     quote.PaymentAmount.StringFixed(2),
		NumberOfPayments:  quote.NumberOfPayments,
		TotalLoanCost:     quote.TotalLoanCost.StringFixed(2),
		TotalInterest:     quote.TotalInterest.StringFixed(2),
		CreatedAt:         quote.CreatedAt,
	}
}
