package domain

import "errors"

// Domain errors
var (
	ErrDealershipNotFound = errors.New("dealership not found")
)

// Validation constants
const (
	MaxQuoteLabelLength = 120
)
