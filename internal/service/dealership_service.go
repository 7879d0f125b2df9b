package service

import (
	"github.com/dafibh/autolot/autolot-backend/internal/domain"
	"github.com/rs/zerolog/log"
)

// DealershipService resolves the dealership behind an authenticated dealer
type DealershipService struct {
	dealershipRepo domain.DealershipRepository
}

// NewDealershipService creates a new DealershipService
func NewDealershipService(dealershipRepo domain.DealershipRepository) *DealershipService {
	return &DealershipService{dealershipRepo: dealershipRepo}
}

// GetDealershipByAuth0ID retrieves the dealership owned by an Auth0 subject
func (s *DealershipService) GetDealershipByAuth0ID(auth0ID string) (*domain.Dealership, error) {
	dealership, err := s.dealershipRepo.GetByAuth0ID(auth0ID)
	if err != nil {
		log.Debug().Err(err).Str("auth0_id", auth0ID).Msg("Dealership lookup failed")
		return nil, err
	}
	return dealership, nil
}

// GetDealershipIDByAuth0ID satisfies the auth middleware and socket token lookups
func (s *DealershipService) GetDealershipIDByAuth0ID(auth0ID string) (int32, error) {
	dealership, err := s.GetDealershipByAuth0ID(auth0ID)
	if err != nil {
		return 0, err
	}
	return dealership.ID, nil
}

// GetDealership retrieves a dealership by ID
func (s *DealershipService) GetDealership(id int32) (*domain.Dealership, error) {
	return s.dealershipRepo.GetByID(id)
}
