package financing

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Field names reported in violations; they match the calculator request body
const (
	FieldPrice       = "price"
	FieldDownPayment = "downPayment"
	FieldAPR         = "apr"
	FieldTermMonths  = "termMonths"
	FieldFees        = "fees"
)

// LoanParameters are the raw loan inputs as received from a caller.
// Amounts are float64 so that NaN and infinities reach Validate unchanged.
type LoanParameters struct {
	Price           float64   `json:"price"`
	DownPayment     float64   `json:"downPayment"`
	TradeInValue    float64   `json:"tradeInValue"`
	Fees            float64   `json:"fees"`
	FinanceFees     bool      `json:"financeFees"`
	APR             float64   `json:"apr"`
	TermMonths      float64   `json:"termMonths"`
	Frequency       Frequency `json:"frequency"`
	Jurisdiction    string    `json:"jurisdiction,omitempty"`
	TaxRateOverride *float64  `json:"taxRateOverride,omitempty"`
}

// Violation is a single failed check
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationOutcome lists every violated constraint; Violations is empty iff Valid
type ValidationOutcome struct {
	Valid      bool        `json:"valid"`
	Violations []Violation `json:"violations"`
}

// Errors returns the violation messages in check order
func (o ValidationOutcome) Errors() []string {
	messages := make([]string, len(o.Violations))
	for i, v := range o.Violations {
		messages[i] = v.Message
	}
	return messages
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Validate checks params against cfg. Every check runs, so all violations are reported together.
// Trade-in and jurisdiction are not looked at here.
func Validate(params LoanParameters, cfg Config) ValidationOutcome {
	violations := []Violation{}
	add := func(field, format string, args ...interface{}) {
		violations = append(violations, Violation{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	priceValid := false
	var price decimal.Decimal
	switch {
	case !isFinite(params.Price):
		add(FieldPrice, "Vehicle price must be a finite number")
	case params.Price <= 0:
		add(FieldPrice, "Vehicle price must be greater than zero")
	default:
		price = decimal.NewFromFloat(params.Price)
		if price.LessThan(cfg.MinPrice) || price.GreaterThan(cfg.MaxPrice) {
			add(FieldPrice, "Vehicle price must be between %s and %s", money(cfg.MinPrice), money(cfg.MaxPrice))
		} else {
			priceValid = true
		}
	}

	if !isFinite(params.DownPayment) {
		add(FieldDownPayment, "Down payment must be a finite number")
	} else {
		down := decimal.NewFromFloat(params.DownPayment)
		if down.LessThan(cfg.MinDownPayment) {
			add(FieldDownPayment, "Down payment must be at least %s", money(cfg.MinDownPayment))
		} else if priceValid && down.GreaterThan(price) {
			add(FieldDownPayment, "Down payment cannot exceed the vehicle price")
		}
	}

	if !isFinite(params.APR) {
		add(FieldAPR, "APR must be a finite number")
	} else {
		apr := decimal.NewFromFloat(params.APR)
		if apr.LessThan(cfg.MinAPR) || apr.GreaterThan(cfg.MaxAPR) {
			add(FieldAPR, "APR must be between %s%% and %s%%", cfg.MinAPR.String(), cfg.MaxAPR.String())
		}
	}

	if !isFinite(params.TermMonths) {
		add(FieldTermMonths, "Loan term must be a finite number")
	} else if params.TermMonths != math.Trunc(params.TermMonths) || !cfg.TermAllowed(int(params.TermMonths)) {
		add(FieldTermMonths, "Loan term must be one of %s months", termList(cfg.AllowedTerms))
	}

	if !isFinite(params.Fees) {
		add(FieldFees, "Fees must be a finite number")
	} else if decimal.NewFromFloat(params.Fees).LessThan(cfg.MinFees) {
		add(FieldFees, "Fees must be at least %s", money(cfg.MinFees))
	}

	return ValidationOutcome{
		Valid:      len(violations) == 0,
		Violations: violations,
	}
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func termList(terms []int) string {
	parts := make([]string, len(terms))
	for i, term := range terms {
		parts[i] = strconv.Itoa(term)
	}
	return strings.Join(parts, ", ")
}
