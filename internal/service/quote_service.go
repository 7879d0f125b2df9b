package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dafibh/autolot/autolot-backend/internal/domain"
	"github.com/dafibh/autolot/autolot-backend/internal/financing"
	"github.com/dafibh/autolot/autolot-backend/internal/repository/storage"
	"github.com/dafibh/autolot/autolot-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ExportURLExpiry is how long a schedule download link stays valid
const ExportURLExpiry = 15 * time.Minute

var scheduleCSVHeader = []string{"payment", "amount", "principal", "interest", "balance"}

// QuoteValidationError carries every violation of a rejected quote request
type QuoteValidationError struct {
	Violations []financing.Violation
}

func (e *QuoteValidationError) Error() string {
	messages := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		messages[i] = v.Message
	}
	return fmt.Sprintf("%s: %s", domain.ErrQuoteInvalid, strings.Join(messages, "; "))
}

func (e *QuoteValidationError) Unwrap() error {
	return domain.ErrQuoteInvalid
}

// ScheduleExport is a downloadable rendering of a quote's schedule
type ScheduleExport struct {
	ObjectPath string    `json:"objectPath"`
	URL        string    `json:"url"`
	ExpiresAt  time.Time `json:"expiresAt"`
	Rows       int       `json:"rows"`
}

// QuoteService handles saved financing quotes attached to vehicle listings
type QuoteService struct {
	quoteRepo      domain.QuoteRepository
	dealershipRepo domain.DealershipRepository
	financing      *FinancingService
	exports        storage.ExportRepository
	eventPublisher websocket.EventPublisher
}

// NewQuoteService creates a new QuoteService. exports may be nil when S3 is not configured.
func NewQuoteService(quoteRepo domain.QuoteRepository, dealershipRepo domain.DealershipRepository, financingService *FinancingService, exports storage.ExportRepository) *QuoteService {
	return &QuoteService{
		quoteRepo:      quoteRepo,
		dealershipRepo: dealershipRepo,
		financing:      financingService,
		exports:        exports,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *QuoteService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// publishEvent publishes a WebSocket event if a publisher is configured
func (s *QuoteService) publishEvent(dealershipID int32, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(dealershipID, event)
	}
}

// ExportEnabled indicates whether schedule exports are supported (storage configured)
func (s *QuoteService) ExportEnabled() bool {
	return s != nil && s.exports != nil
}

// CreateQuoteInput contains input for saving a quote
type CreateQuoteInput struct {
	ListingID int32
	Params    financing.LoanParameters
	Label     *string
}

// CreateQuote calculates and stores a quote. Without a jurisdiction or explicit tax rate
// the dealership's default jurisdiction is used.
func (s *QuoteService) CreateQuote(ctx context.Context, dealershipID int32, input CreateQuoteInput) (*domain.FinancingQuote, error) {
	if input.ListingID <= 0 {
		return nil, domain.ErrListingRequired
	}

	var label *string
	if input.Label != nil {
		trimmed := strings.TrimSpace(*input.Label)
		if len(trimmed) > domain.MaxQuoteLabelLength {
			return nil, domain.ErrQuoteLabelTooLong
		}
		if trimmed != "" {
			label = &trimmed
		}
	}

	params := input.Params
	if strings.TrimSpace(params.Jurisdiction) == "" && params.TaxRateOverride == nil {
		dealership, err := s.dealershipRepo.GetByID(dealershipID)
		if err != nil {
			return nil, err
		}
		params.Jurisdiction = dealership.DefaultJurisdiction
	}

	quote := s.financing.Calculate(ctx, params, false)
	if !quote.Validation.Valid {
		return nil, &QuoteValidationError{Violations: quote.Validation.Violations}
	}
	if quote.Error != "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrQuoteCalculation, quote.Error)
	}

	record := domain.NewFinancingQuote(dealershipID, input.ListingID, label, params, quote)
	if err := record.Validate(); err != nil {
		return nil, err
	}

	created, err := s.quoteRepo.Create(record)
	if err != nil {
		return nil, err
	}

	log.Info().
		Int32("dealership_id", dealershipID).
		Int32("listing_id", created.ListingID).
		Str("quote_id", created.ID.String()).
		Str("payment_amount", created.PaymentAmount.StringFixed(2)).
		Msg("Financing quote saved")

	s.publishEvent(dealershipID, websocket.QuoteCreated(created))

	return created, nil
}

// GetQuote retrieves a quote by ID
func (s *QuoteService) GetQuote(dealershipID int32, id uuid.UUID) (*domain.FinancingQuote, error) {
	return s.quoteRepo.GetByID(dealershipID, id)
}

// ListQuotesByListing retrieves all live quotes for a listing, newest first
func (s *QuoteService) ListQuotesByListing(dealershipID int32, listingID int32) ([]*domain.FinancingQuote, error) {
	if listingID <= 0 {
		return nil, domain.ErrListingRequired
	}
	return s.quoteRepo.GetByListing(dealershipID, listingID)
}

// DeleteQuote soft-deletes a quote
func (s *QuoteService) DeleteQuote(dealershipID int32, id uuid.UUID) error {
	if err := s.quoteRepo.SoftDelete(dealershipID, id); err != nil {
		return err
	}

	s.publishEvent(dealershipID, websocket.QuoteDeleted(map[string]interface{}{
		"id": id,
	}))

	return nil
}

// GetSchedule rebuilds the amortization schedule of a stored quote from its saved terms.
// Later configuration changes do not affect quotes that were already issued.
func (s *QuoteService) GetSchedule(ctx context.Context, dealershipID int32, id uuid.UUID) (*domain.FinancingQuote, []financing.ScheduleEntry, error) {
	record, err := s.quoteRepo.GetByID(dealershipID, id)
	if err != nil {
		return nil, nil, err
	}

	schedule := financing.GenerateSchedule(
		record.FinancedPrincipal,
		record.PeriodicRate,
		record.PaymentAmount,
		int(record.NumberOfPayments),
	)
	return record, schedule, nil
}

// ExportSchedule uploads the schedule of a stored quote as CSV and returns a temporary link
func (s *QuoteService) ExportSchedule(ctx context.Context, dealershipID int32, id uuid.UUID) (*ScheduleExport, error) {
	if !s.ExportEnabled() {
		return nil, domain.ErrExportNotConfigured
	}

	record, schedule, err := s.GetSchedule(ctx, dealershipID, id)
	if err != nil {
		return nil, err
	}

	data, err := RenderScheduleCSV(schedule)
	if err != nil {
		return nil, fmt.Errorf("failed to render schedule: %w", err)
	}

	objectPath := fmt.Sprintf("quotes/%d/%s/%s.csv", dealershipID, record.ID, uuid.New())
	if _, err := s.exports.Upload(ctx, objectPath, bytes.NewReader(data), "text/csv", int64(len(data))); err != nil {
		return nil, fmt.Errorf("failed to upload schedule: %w", err)
	}

	url, err := s.exports.GeneratePresignedURL(ctx, objectPath, ExportURLExpiry)
	if err != nil {
		return nil, err
	}

	return &ScheduleExport{
		ObjectPath: objectPath,
		URL:        url,
		ExpiresAt:  time.Now().UTC().Add(ExportURLExpiry),
		Rows:       len(schedule),
	}, nil
}

// RenderScheduleCSV writes one header row then one row per payment, amounts with two places
func RenderScheduleCSV(schedule []financing.ScheduleEntry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(scheduleCSVHeader); err != nil {
		return nil, err
	}
	for _, row := range schedule {
		record := []string{
			strconv.Itoa(row.PaymentNumber),
			row.PaymentAmount.StringFixed(2),
			row.PrincipalPortion.StringFixed(2),
			row.InterestPortion.StringFixed(2),
			row.RemainingBalance.StringFixed(2),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// IsQuoteValidationError extracts the violations of a rejected quote request
func IsQuoteValidationError(err error) (*QuoteValidationError, bool) {
	var validationErr *QuoteValidationError
	if errors.As(err, &validationErr) {
		return validationErr, true
	}
	return nil, false
}
