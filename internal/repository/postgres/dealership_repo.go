package postgres

import (
	"context"
	"errors"

	"github.com/dafibh/autolot/autolot-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dealershipColumns = `id, auth0_id, name, default_jurisdiction, created_at, updated_at`

// DealershipRepository implements domain.DealershipRepository using PostgreSQL
type DealershipRepository struct {
	pool *pgxpool.Pool
}

// NewDealershipRepository creates a new DealershipRepository
func NewDealershipRepository(pool *pgxpool.Pool) *DealershipRepository {
	return &DealershipRepository{pool: pool}
}

// GetByAuth0ID retrieves the dealership owned by an Auth0 subject
func (r *DealershipRepository) GetByAuth0ID(auth0ID string) (*domain.Dealership, error) {
	row := r.pool.QueryRow(context.Background(),
		`SELECT `+dealershipColumns+` FROM dealerships WHERE auth0_id = $1`, auth0ID)
	return scanDealership(row)
}

// GetByID retrieves a dealership by its ID
func (r *DealershipRepository) GetByID(id int32) (*domain.Dealership, error) {
	row := r.pool.QueryRow(context.Background(),
		`SELECT `+dealershipColumns+` FROM dealerships WHERE id = $1`, id)
	return scanDealership(row)
}

func scanDealership(row pgx.Row) (*domain.Dealership, error) {
	var (
		dealership           domain.Dealership
		createdAt, updatedAt pgtype.Timestamptz
	)
	err := row.Scan(
		&dealership.ID,
		&dealership.Auth0ID,
		&dealership.Name,
		&dealership.DefaultJurisdiction,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDealershipNotFound
		}
		return nil, err
	}
	dealership.CreatedAt = createdAt.Time
	dealership.UpdatedAt = updatedAt.Time
	return &dealership, nil
}
