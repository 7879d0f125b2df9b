package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dafibh/autolot/autolot-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const quoteColumns = `id, dealership_id, listing_id, label, params, jurisdiction, tax_rate, taxable_amount,
	tax_amount, financed_principal, periodic_rate, payment_amount, number_of_payments, total_loan_cost,
	total_interest, created_at, updated_at, deleted_at`

// QuoteRepository implements domain.QuoteRepository using PostgreSQL
type QuoteRepository struct {
	pool *pgxpool.Pool
}

// NewQuoteRepository creates a new QuoteRepository
func NewQuoteRepository(pool *pgxpool.Pool) *QuoteRepository {
	return &QuoteRepository{pool: pool}
}

// Create inserts a calculated quote
func (r *QuoteRepository) Create(quote *domain.FinancingQuote) (*domain.FinancingQuote, error) {
	ctx := context.Background()

	params, err := json.Marshal(quote.Params)
	if err != nil {
		return nil, fmt.Errorf("failed to encode quote params: %w", err)
	}

	numerics := make([]pgtype.Numeric, 0, 8)
	for _, d := range []struct {
		name  string
		value decimal.Decimal
	}{
		{"tax_rate", quote.TaxRate},
		{"taxable_amount", quote.TaxableAmount},
		{"tax_amount", quote.TaxAmount},
		{"financed_principal", quote.FinancedPrincipal},
		{"periodic_rate", quote.PeriodicRate},
		{"payment_amount", quote.PaymentAmount},
		{"total_loan_cost", quote.TotalLoanCost},
		{"total_interest", quote.TotalInterest},
	} {
		num, err := decimalToPgNumeric(d.value)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", d.name, err)
		}
		numerics = append(numerics, num)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO financing_quotes (
			dealership_id, listing_id, label, params, jurisdiction, tax_rate, taxable_amount,
			tax_amount, financed_principal, periodic_rate, payment_amount, number_of_payments, total_loan_cost,
			total_interest
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING `+quoteColumns,
		quote.DealershipID,
		quote.ListingID,
		stringPtrToPgText(quote.Label),
		params,
		quote.Jurisdiction,
		numerics[0], numerics[1], numerics[2], numerics[3], numerics[4], numerics[5],
		quote.NumberOfPayments,
		numerics[6], numerics[7],
	)

	created, err := scanQuote(row)
	if err != nil {
		if isPgForeignKeyViolation(err) {
			return nil, domain.ErrDealershipNotFound
		}
		return nil, err
	}
	return created, nil
}

// GetByID retrieves a live quote within a dealership
func (r *QuoteRepository) GetByID(dealershipID int32, id uuid.UUID) (*domain.FinancingQuote, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		SELECT `+quoteColumns+`
		FROM financing_quotes
		WHERE id = $1 AND dealership_id = $2 AND deleted_at IS NULL`,
		uuidToPg(id), dealershipID,
	)

	quote, err := scanQuote(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrQuoteNotFound
		}
		return nil, err
	}
	return quote, nil
}

// GetByListing retrieves the live quotes of a listing, newest first
func (r *QuoteRepository) GetByListing(dealershipID int32, listingID int32) ([]*domain.FinancingQuote, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `
		SELECT `+quoteColumns+`
		FROM financing_quotes
		WHERE dealership_id = $1 AND listing_id = $2 AND deleted_at IS NULL
		ORDER BY created_at DESC`,
		dealershipID, listingID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	quotes := make([]*domain.FinancingQuote, 0)
	for rows.Next() {
		quote, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, quote)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return quotes, nil
}

// SoftDelete marks a quote as deleted
func (r *QuoteRepository) SoftDelete(dealershipID int32, id uuid.UUID) error {
	ctx := context.Background()
	tag, err := r.pool.Exec(ctx, `
		UPDATE financing_quotes
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND dealership_id = $2 AND deleted_at IS NULL`,
		uuidToPg(id), dealershipID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuoteNotFound
	}
	return nil
}

func scanQuote(row pgx.Row) (*domain.FinancingQuote, error) {
	var (
		id                                                   pgtype.UUID
		label                                                pgtype.Text
		params                                               []byte
		taxRate, taxableAmount, taxAmount, financedPrincipal pgtype.Numeric
		periodicRate, paymentAmount                          pgtype.Numeric
		totalLoanCost, totalInterest                         pgtype.Numeric
		createdAt, updatedAt, deletedAt                      pgtype.Timestamptz
		quote                                                domain.FinancingQuote
	)

	err := row.Scan(
		&id,
		&quote.DealershipID,
		&quote.ListingID,
		&label,
		&params,
		&quote.Jurisdiction,
		&taxRate,
		&taxableAmount,
		&taxAmount,
		&financedPrincipal,
		&periodicRate,
		&paymentAmount,
		&quote.NumberOfPayments,
		&totalLoanCost,
		&totalInterest,
		&createdAt,
		&updatedAt,
		&deletedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(params, &quote.Params); err != nil {
		return nil, fmt.Errorf("failed to decode quote params: %w", err)
	}

	quote.ID = id.Bytes
	quote.Label = pgTextToStringPtr(label)
	quote.TaxRate = pgNumericToDecimal(taxRate)
	quote.TaxableAmount = pgNumericToDecimal(taxableAmount)
	quote.TaxAmount = pgNumericToDecimal(taxAmount)
	quote.FinancedPrincipal = pgNumericToDecimal(financedPrincipal)
	quote.PeriodicRate = pgNumericToDecimal(periodicRate)
	quote.PaymentAmount = pgNumericToDecimal(paymentAmount)
	quote.TotalLoanCost = pgNumericToDecimal(totalLoanCost)
	quote.TotalInterest = pgNumericToDecimal(totalInterest)
	quote.CreatedAt = createdAt.Time
	quote.UpdatedAt = updatedAt.Time
	quote.DeletedAt = pgTimestamptzToTimePtr(deletedAt)

	return &quote, nil
}
