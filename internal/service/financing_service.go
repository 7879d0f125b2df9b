package service

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dafibh/autolot/autolot-backend/internal/domain"
	"github.com/dafibh/autolot/autolot-backend/internal/financing"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const quoteCacheKeyPrefix = "quote:"

// JurisdictionRate is one entry of the published tax table
type JurisdictionRate struct {
	Code string          `json:"code"`
	Rate decimal.Decimal `json:"rate"`
}

// Bounds are the validation limits published to calculator forms
type Bounds struct {
	MinPrice       decimal.Decimal `json:"minPrice"`
	MaxPrice       decimal.Decimal `json:"maxPrice"`
	MinAPR         decimal.Decimal `json:"minApr"`
	MaxAPR         decimal.Decimal `json:"maxApr"`
	MinDownPayment decimal.Decimal `json:"minDownPayment"`
	MinFees        decimal.Decimal `json:"minFees"`
	AllowedTerms   []int           `json:"allowedTerms"`
}

// FinancingService runs the loan calculator against a fixed configuration
type FinancingService struct {
	cfg         financing.Config
	fingerprint []byte
	cache       domain.QuoteCache
	cacheTTL    time.Duration
}

// NewFinancingService creates a new FinancingService. cfg is copied, so later changes
// by the caller do not leak into calculations.
func NewFinancingService(cfg financing.Config) *FinancingService {
	cfg = cfg.Clone()
	return &FinancingService{
		cfg:         cfg,
		fingerprint: configFingerprint(cfg),
	}
}

// SetCache enables memoization of calculator results. A nil cache disables it.
func (s *FinancingService) SetCache(cache domain.QuoteCache, ttl time.Duration) {
	s.cache = cache
	s.cacheTTL = ttl
}

// Config returns a copy of the active calculator configuration
func (s *FinancingService) Config() financing.Config {
	return s.cfg.Clone()
}

// Bounds returns the validation limits of the active configuration
func (s *FinancingService) Bounds() Bounds {
	return Bounds{
		MinPrice:       s.cfg.MinPrice,
		MaxPrice:       s.cfg.MaxPrice,
		MinAPR:         s.cfg.MinAPR,
		MaxAPR:         s.cfg.MaxAPR,
		MinDownPayment: s.cfg.MinDownPayment,
		MinFees:        s.cfg.MinFees,
		AllowedTerms:   append([]int(nil), s.cfg.AllowedTerms...),
	}
}

// Jurisdictions lists the configured tax rates ordered by code
func (s *FinancingService) Jurisdictions() []JurisdictionRate {
	codes := s.cfg.TaxRates.Codes()
	rates := make([]JurisdictionRate, 0, len(codes))
	for _, code := range codes {
		rates = append(rates, JurisdictionRate{Code: code, Rate: s.cfg.TaxRates[code]})
	}
	return rates
}

// Calculate produces a quote for params. Cache failures are logged and never fail the call.
func (s *FinancingService) Calculate(ctx context.Context, params financing.LoanParameters, withSchedule bool) financing.Quote {
	opts := financing.CalculateOptions{IncludeSchedule: withSchedule}
	if s.cache == nil {
		return financing.Calculate(params, s.cfg, opts)
	}

	key, ok := s.cacheKey(params, withSchedule)
	if !ok {
		return financing.Calculate(params, s.cfg, opts)
	}

	if data, found, err := s.cache.Get(ctx, key); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Quote cache read failed")
	} else if found {
		var cached financing.Quote
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached
		}
		log.Warn().Str("key", key).Msg("Discarding unreadable cached quote")
	}

	quote := financing.Calculate(params, s.cfg, opts)

	data, err := json.Marshal(quote)
	if err != nil {
		return quote
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Quote cache write failed")
	}
	return quote
}

// cacheKey hashes the config fingerprint with the request. Parameters that cannot be
// encoded (NaN, infinities, unknown frequencies) are not cacheable.
func (s *FinancingService) cacheKey(params financing.LoanParameters, withSchedule bool) (string, bool) {
	encoded, err := json.Marshal(params)
	if err != nil {
		return "", false
	}

	h := xxhash.New()
	_, _ = h.Write(s.fingerprint)
	_, _ = h.Write(encoded)
	_, _ = h.WriteString(strconv.FormatBool(withSchedule))

	sum := h.Sum(nil)
	return quoteCacheKeyPrefix + hex.EncodeToString(sum), true
}

func configFingerprint(cfg financing.Config) []byte {
	h := xxhash.New()
	for _, d := range []decimal.Decimal{cfg.MinPrice, cfg.MaxPrice, cfg.MinAPR, cfg.MaxAPR, cfg.MinDownPayment, cfg.MinFees} {
		_, _ = h.WriteString(d.String())
		_, _ = h.WriteString("|")
	}
	for _, term := range cfg.AllowedTerms {
		_, _ = h.WriteString(strconv.Itoa(term))
		_, _ = h.WriteString(",")
	}
	for _, code := range cfg.TaxRates.Codes() {
		_, _ = h.WriteString(code)
		_, _ = h.WriteString("=")
		_, _ = h.WriteString(cfg.TaxRates[code].String())
		_, _ = h.WriteString(";")
	}
	return h.Sum(nil)
}
