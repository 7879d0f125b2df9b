package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dafibh/autolot/autolot-backend/internal/config"
	"github.com/dafibh/autolot/autolot-backend/internal/handler"
	"github.com/dafibh/autolot/autolot-backend/internal/middleware"
	"github.com/dafibh/autolot/autolot-backend/internal/repository/cache"
	"github.com/dafibh/autolot/autolot-backend/internal/repository/postgres"
	"github.com/dafibh/autolot/autolot-backend/internal/repository/storage"
	"github.com/dafibh/autolot/autolot-backend/internal/service"
	"github.com/dafibh/autolot/autolot-backend/internal/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	financingCfg, err := config.LoadFinancing(cfg.FinancingConfigPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.FinancingConfigPath).Msg("Failed to load financing configuration")
	}
	log.Info().
		Ints("terms", financingCfg.AllowedTerms).
		Int("jurisdictions", len(financingCfg.TaxRates)).
		Msg("Loaded financing configuration")

	// Connect to database
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	// Verify database connection
	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Connected to database")

	// Initialize repositories
	dealershipRepo := postgres.NewDealershipRepository(pool)
	quoteRepo := postgres.NewQuoteRepository(pool)

	// Initialize services
	financingService := service.NewFinancingService(financingCfg)
	dealershipService := service.NewDealershipService(dealershipRepo)

	// Calculator cache is optional
	if cfg.Redis.Addr != "" {
		quoteCache, err := cache.NewRedisQuoteCache(context.Background(), cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis unavailable, calculator cache disabled")
		} else {
			defer quoteCache.Close()
			financingService.SetCache(quoteCache, cfg.Redis.TTL)
			log.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", cfg.Redis.TTL).Msg("Calculator cache enabled")
		}
	}

	// Schedule exports are optional
	var exportRepo storage.ExportRepository
	if cfg.S3.Bucket != "" {
		s3Repo, err := storage.NewS3ExportRepository(context.Background(), cfg.S3)
		if err != nil {
			log.Warn().Err(err).Str("bucket", cfg.S3.Bucket).Msg("S3 unavailable, schedule exports disabled")
		} else {
			exportRepo = s3Repo
			log.Info().Str("bucket", cfg.S3.Bucket).Msg("Schedule exports enabled")
		}
	}

	quoteService := service.NewQuoteService(quoteRepo, dealershipRepo, financingService, exportRepo)

	// Real-time events
	hub := websocket.NewHub()
	quoteService.SetEventPublisher(hub)

	// Initialize auth middleware
	authMiddleware, err := middleware.NewAuthMiddleware(cfg.Auth0Domain, cfg.Auth0Audience, dealershipService)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create auth middleware")
	}

	wsValidator, err := websocket.NewAuth0JWTValidator(cfg.Auth0Domain, cfg.Auth0Audience, dealershipService)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create WebSocket token validator")
	}

	calculatorLimiter := middleware.NewRateLimiterWithConfig(cfg.CalculatorRateLimit, middleware.DefaultBurstSize)
	defer calculatorLimiter.Stop()

	// Initialize handlers
	handlers := handler.Handlers{
		Financing:  handler.NewFinancingHandler(financingService),
		Quote:      handler.NewQuoteHandler(quoteService),
		Dealership: handler.NewDealershipHandler(dealershipService),
		WebSocket:  handler.NewWebSocketHandler(hub, wsValidator, financingService, calculatorLimiter, cfg.CORSOrigins),
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Request ID middleware
	e.Use(echomiddleware.RequestID())

	// CORS middleware
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		ExposeHeaders:    []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Security headers middleware (helmet-like)
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	// Request logging middleware with zerolog
	e.Use(zerologMiddleware())

	// Recovery middleware
	e.Use(echomiddleware.Recover())

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":            "ok",
			"websocket_clients": hub.TotalClientCount(),
			"exports":           quoteService.ExportEnabled(),
		})
	})

	// Register API routes
	handler.RegisterRoutes(e, authMiddleware, calculatorLimiter, handlers)

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Sockets are hijacked connections, so Shutdown does not close them
	hub.CloseAll()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// zerologMiddleware returns a middleware that logs requests using zerolog
func zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			log.Info().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Msg("request")

			return nil
		}
	}
}
