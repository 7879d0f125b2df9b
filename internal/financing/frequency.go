package financing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrUnknownFrequency is returned when a payment frequency is not Monthly or BiWeekly
var ErrUnknownFrequency = errors.New("unknown payment frequency")

// Frequency is how often a loan payment is made
type Frequency int

const (
	Monthly Frequency = iota
	BiWeekly
)

const (
	monthsPerYear         = 12
	biWeeklyPaymentsCount = 26
)

// ParseFrequency accepts "monthly", "bi-weekly" or "biweekly" in any case
func ParseFrequency(s string) (Frequency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "monthly":
		return Monthly, nil
	case "bi-weekly", "biweekly":
		return BiWeekly, nil
	default:
		return Monthly, fmt.Errorf("%w: %q", ErrUnknownFrequency, s)
	}
}

// String returns the canonical wire name of the frequency
func (f Frequency) String() string {
	switch f {
	case Monthly:
		return "monthly"
	case BiWeekly:
		return "bi-weekly"
	default:
		return fmt.Sprintf("Frequency(%d)", int(f))
	}
}

// Valid reports whether f is one of the two supported frequencies
func (f Frequency) Valid() bool {
	return f == Monthly || f == BiWeekly
}

// PaymentsPerYear returns 12 for Monthly and 26 for BiWeekly
func (f Frequency) PaymentsPerYear() int {
	switch f {
	case Monthly:
		return monthsPerYear
	case BiWeekly:
		return biWeeklyPaymentsCount
	default:
		return 0
	}
}

// TotalPayments converts a term in months into a payment count.
// Bi-weekly counts are round(termMonths / 12 * 26), not twice the monthly count.
func (f Frequency) TotalPayments(termMonths int) int {
	switch f {
	case Monthly:
		return termMonths
	case BiWeekly:
		return int(decimal.NewFromInt(int64(termMonths)).
			Mul(decimal.NewFromInt(biWeeklyPaymentsCount)).
			Div(decimal.NewFromInt(monthsPerYear)).
			Round(0).
			IntPart())
	default:
		return 0
	}
}

// MarshalText implements encoding.TextMarshaler
func (f Frequency) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownFrequency, int(f))
	}
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (f *Frequency) UnmarshalText(text []byte) error {
	parsed, err := ParseFrequency(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
