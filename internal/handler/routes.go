package handler

import (
	"github.com/dafibh/autolot/autolot-backend/internal/middleware"
	"github.com/labstack/echo/v4"
)

// Handlers groups the route handlers registered under /api/v1
type Handlers struct {
	Financing  *FinancingHandler
	Quote      *QuoteHandler
	Dealership *DealershipHandler
	WebSocket  *WebSocketHandler
}

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, calculatorLimiter *middleware.RateLimiter, h Handlers) {
	// WebSocket (token optional, validated by the handler)
	e.GET("/ws", h.WebSocket.HandleWS)

	// API version 1
	api := e.Group("/api/v1")

	// Calculator routes (public)
	calculator := api.Group("/financing")
	calculator.GET("/config", h.Financing.GetConfig)
	calculator.POST("/calculate", h.Financing.Calculate, middleware.RateLimitMiddleware(calculatorLimiter))
	calculator.POST("/schedule", h.Financing.CalculateSchedule, middleware.RateLimitMiddleware(calculatorLimiter))

	// Dealership routes (protected)
	dealership := api.Group("/dealership")
	dealership.Use(authMiddleware.Authenticate())
	dealership.GET("", h.Dealership.GetDealership)

	// Listing quote routes (protected)
	listings := api.Group("/listings")
	listings.Use(authMiddleware.Authenticate())
	listings.POST("/:listingId/quotes", h.Quote.CreateQuote)
	listings.GET("/:listingId/quotes", h.Quote.ListQuotes)

	// Quote routes (protected)
	quotes := api.Group("/quotes")
	quotes.Use(authMiddleware.Authenticate())
	quotes.GET("/:id", h.Quote.GetQuote)
	quotes.GET("/:id/schedule", h.Quote.GetSchedule)
	quotes.POST("/:id/export", h.Quote.ExportSchedule)
	quotes.DELETE("/:id", h.Quote.DeleteQuote)
}
