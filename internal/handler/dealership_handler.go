package handler

import (
	"errors"
	"net/http"

	"github.com/dafibh/autolot/autolot-backend/internal/domain"
	"github.com/dafibh/autolot/autolot-backend/internal/middleware"
	"github.com/dafibh/autolot/autolot-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// DealershipHandler exposes the signed-in dealership
type DealershipHandler struct {
	dealershipService *service.DealershipService
}

// NewDealershipHandler creates a new DealershipHandler
func NewDealershipHandler(dealershipService *service.DealershipService) *DealershipHandler {
	return &DealershipHandler{dealershipService: dealershipService}
}

// DealershipResponse represents the dealership response
type DealershipResponse struct {
	ID                  int32  `json:"id"`
	Name                string `json:"name"`
	DefaultJurisdiction string `json:"defaultJurisdiction"`
}

// GetDealership handles GET /api/v1/dealership
func (h *DealershipHandler) GetDealership(c echo.Context) error {
	dealershipID := middleware.GetDealershipID(c)
	if dealershipID == 0 {
		return NewUnauthorizedError(c, "Dealership not found")
	}

	dealership, err := h.dealershipService.GetDealership(dealershipID)
	if err != nil {
		if errors.Is(err, domain.ErrDealershipNotFound) {
			return NewNotFoundError(c, "Dealership not found")
		}
		log.Error().Err(err).Int32("dealership_id", dealershipID).Msg("Failed to get dealership")
		return NewInternalError(c, "Failed to get dealership")
	}

	return c.JSON(http.StatusOK, DealershipResponse{
		ID:                  dealership.ID,
		Name:                dealership.Name,
		DefaultJurisdiction: dealership.DefaultJurisdiction,
	})
}
