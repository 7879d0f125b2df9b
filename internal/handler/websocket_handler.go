package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dafibh/autolot/autolot-backend/internal/middleware"
	"github.com/dafibh/autolot/autolot-backend/internal/service"
	"github.com/dafibh/autolot/autolot-backend/internal/websocket"
	ws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// calculateMessageType is the only inbound message a socket accepts
const calculateMessageType = "calculate"

const rateLimitedMessage = "too many calculator requests, slow down"

// JWTValidator validates JWT tokens and returns the dealership ID
type JWTValidator interface {
	ValidateToken(ctx context.Context, token string) (dealershipID int32, err error)
}

// CalculatorMessage is a live calculator request sent over the socket
type CalculatorMessage struct {
	Type            string           `json:"type"`
	RequestID       string           `json:"requestId"`
	Params          CalculateRequest `json:"params"`
	IncludeSchedule bool             `json:"includeSchedule"`
}

// CalculatorReply answers a calculator request. Exactly one of Errors, Error or Quote is set.
type CalculatorReply struct {
	Valid  bool               `json:"valid"`
	Errors []ValidationError  `json:"errors,omitempty"`
	Error  string             `json:"error,omitempty"`
	Quote  *CalculateResponse `json:"quote,omitempty"`
}

// WebSocketHandler handles WebSocket connections
type WebSocketHandler struct {
	hub              *websocket.Hub
	validator        JWTValidator
	financingService *service.FinancingService
	limiter          *middleware.RateLimiter
	allowedOrigins   map[string]bool
	upgrader         ws.Upgrader
}

// NewWebSocketHandler creates a new WebSocketHandler. Calculator messages are throttled per
// connection by limiter; a nil limiter disables throttling.
func NewWebSocketHandler(hub *websocket.Hub, validator JWTValidator, financingService *service.FinancingService, limiter *middleware.RateLimiter, allowedOrigins []string) *WebSocketHandler {
	// Build origin lookup map
	originMap := make(map[string]bool)
	for _, origin := range allowedOrigins {
		originMap[origin] = true
	}

	h := &WebSocketHandler{
		hub:              hub,
		validator:        validator,
		financingService: financingService,
		limiter:          limiter,
		allowedOrigins:   originMap,
	}

	h.upgrader = ws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}

	return h
}

// checkOrigin validates the request origin against allowed origins
func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// Allow requests with no Origin header (e.g., same-origin or non-browser clients)
		return true
	}

	if h.allowedOrigins[origin] {
		return true
	}

	log.Warn().
		Str("origin", origin).
		Msg("WebSocket connection rejected: origin not allowed")
	return false
}

// HandleWS handles WebSocket connection requests at GET /ws.
// Without a token the socket is calculator-only and receives no dealership events.
func (h *WebSocketHandler) HandleWS(c echo.Context) error {
	dealershipID := websocket.AnonymousDealershipID

	if token := c.QueryParam("token"); token != "" {
		id, err := h.validator.ValidateToken(c.Request().Context(), token)
		if err != nil {
			log.Debug().Err(err).Msg("WebSocket connection rejected: invalid token")
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		}
		dealershipID = id
	}

	// Upgrade HTTP connection to WebSocket
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return err
	}

	// Create client and register with hub
	client := websocket.NewClient(conn, dealershipID, h.hub, h.HandleCalculatorMessage)
	h.hub.Register(client)

	log.Info().
		Int32("dealership_id", dealershipID).
		Str("client_id", client.ID()).
		Msg("WebSocket client connected")

	// Start read/write pumps in goroutines
	go client.WritePump()
	go client.ReadPump()

	return nil
}

// HandleCalculatorMessage runs one calculator request and returns the encoded reply event
func (h *WebSocketHandler) HandleCalculatorMessage(ctx context.Context, client websocket.ClientInterface, data []byte) []byte {
	var msg CalculatorMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return encodeEvent(client, websocket.CalculatorError("", "message is not valid JSON"))
	}
	if msg.Type != calculateMessageType {
		return encodeEvent(client, websocket.CalculatorError(msg.RequestID, "unsupported message type"))
	}

	if h.limiter != nil && !h.limiter.Allow("ws:"+client.ID()) {
		log.Warn().
			Str("client_id", client.ID()).
			Int32("dealership_id", client.DealershipID()).
			Msg("Calculator rate limit exceeded")
		return encodeEvent(client, websocket.CalculatorError(msg.RequestID, rateLimitedMessage))
	}

	params, fieldErrors := msg.Params.toParams()
	if len(fieldErrors) > 0 {
		return encodeEvent(client, websocket.CalculatorResult(msg.RequestID, CalculatorReply{Errors: fieldErrors}))
	}

	quote := h.financingService.Calculate(ctx, params, msg.IncludeSchedule)

	var reply CalculatorReply
	switch {
	case !quote.Validation.Valid:
		reply.Errors = violationErrors(quote.Validation.Violations)
	case quote.Error != "":
		reply.Error = quote.Error
	default:
		resp := toCalculateResponse(quote)
		reply.Valid = true
		reply.Quote = &resp
	}
	return encodeEvent(client, websocket.CalculatorResult(msg.RequestID, reply))
}

func encodeEvent(client websocket.ClientInterface, event websocket.Event) []byte {
	data, err := event.ToJSON()
	if err != nil {
		log.Error().
			Err(err).
			Str("client_id", client.ID()).
			Str("event_type", event.Type).
			Msg("Failed to encode calculator reply")
		return nil
	}
	return data
}
