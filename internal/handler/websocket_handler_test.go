package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dafibh/autolot/autolot-backend/internal/financing"
	"github.com/dafibh/autolot/autolot-backend/internal/middleware"
	"github.com/dafibh/autolot/autolot-backend/internal/service"
	"github.com/dafibh/autolot/autolot-backend/internal/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockJWTValidator is a test double for JWT validation
type mockJWTValidator struct {
	dealershipID int32
	err          error
	calls        int
}

func (m *mockJWTValidator) ValidateToken(ctx context.Context, token string) (int32, error) {
	m.calls++
	return m.dealershipID, m.err
}

// fakeClient stands in for a socket connection when calling the message handler directly
type fakeClient struct {
	id           string
	dealershipID int32
}

func (f *fakeClient) ID() string {
	if f.id == "" {
		return "client-1"
	}
	return f.id
}

func (f *fakeClient) DealershipID() int32 { return f.dealershipID }
func (f *fakeClient) Send(data []byte) error { return nil }
func (f *fakeClient) Close() error { return nil }

type calculatorReplyEvent struct {
	Type      string          `json:"type"`
	RequestID string          `json:"requestId"`
	Payload   CalculatorReply `json:"payload"`
}

var testAllowedOrigins = []string{"http://localhost:3000", "https://autolot.app"}

func newWebSocketHandler(validator JWTValidator) *WebSocketHandler {
	financingService := service.NewFinancingService(financing.DefaultConfig())
	return NewWebSocketHandler(websocket.NewHub(), validator, financingService, nil, testAllowedOrigins)
}

func TestWebSocketHandler_HandleWS_NoTokenIsAnonymous(t *testing.T) {
	e := echo.New()
	validator := &mockJWTValidator{dealershipID: 1}
	h := newWebSocketHandler(validator)

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.HandleWS(c)

	// Not an upgrade request, so gorilla rejects it after the auth step is skipped
	assert.Error(t, err)
	_, isHTTPError := err.(*echo.HTTPError)
	assert.False(t, isHTTPError)
	assert.Equal(t, 0, validator.calls)
}

func TestWebSocketHandler_HandleWS_InvalidToken(t *testing.T) {
	e := echo.New()
	validator := &mockJWTValidator{err: websocket.ErrInvalidToken}
	h := newWebSocketHandler(validator)

	req := httptest.NewRequest(http.MethodGet, "/ws?token=invalid-jwt", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.HandleWS(c)

	assert.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestWebSocketHandler_HandleWS_ValidToken_NoUpgrade(t *testing.T) {
	e := echo.New()
	validator := &mockJWTValidator{dealershipID: 42}
	h := newWebSocketHandler(validator)

	req := httptest.NewRequest(http.MethodGet, "/ws?token=valid-jwt", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.HandleWS(c)

	// gorilla/websocket returns an error when upgrade fails (no upgrade headers)
	assert.Error(t, err)
	assert.NotContains(t, err.Error(), "invalid token")
	assert.Equal(t, 1, validator.calls)
}

func TestWebSocketHandler_CheckOrigin(t *testing.T) {
	h := newWebSocketHandler(&mockJWTValidator{dealershipID: 1})

	tests := []struct {
		name     string
		origin   string
		expected bool
	}{
		{"allowed origin", "http://localhost:3000", true},
		{"allowed origin https", "https://autolot.app", true},
		{"disallowed origin", "https://evil.com", false},
		{"empty origin (same-origin)", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.expected, h.checkOrigin(req))
		})
	}
}

func TestHandleCalculatorMessage_Result(t *testing.T) {
	h := newWebSocketHandler(&mockJWTValidator{})
	msg := `{"type":"calculate","requestId":"r-1","params":{"price":"20000","apr":"6.15","termMonths":"60","taxRate":"0"},"includeSchedule":true}`

	reply := h.HandleCalculatorMessage(context.Background(), &fakeClient{}, []byte(msg))
	require.NotNil(t, reply)

	var evt calculatorReplyEvent
	require.NoError(t, json.Unmarshal(reply, &evt))
	assert.Equal(t, "calculator.result", evt.Type)
	assert.Equal(t, "r-1", evt.RequestID)
	assert.True(t, evt.Payload.Valid)
	require.NotNil(t, evt.Payload.Quote)
	assert.Equal(t, "388.05", evt.Payload.Quote.Payment.PaymentAmount)
	assert.Len(t, evt.Payload.Quote.Schedule, 60)
}

func TestHandleCalculatorMessage_Violations(t *testing.T) {
	h := newWebSocketHandler(&mockJWTValidator{})
	msg := `{"type":"calculate","requestId":"r-2","params":{"price":"500","apr":"6.15","termMonths":"60"}}`

	reply := h.HandleCalculatorMessage(context.Background(), &fakeClient{}, []byte(msg))

	var evt calculatorReplyEvent
	require.NoError(t, json.Unmarshal(reply, &evt))
	assert.Equal(t, "calculator.result", evt.Type)
	assert.False(t, evt.Payload.Valid)
	assert.Nil(t, evt.Payload.Quote)
	require.Len(t, evt.Payload.Errors, 1)
	assert.Equal(t, "price", evt.Payload.Errors[0].Field)
}

func TestHandleCalculatorMessage_CalculationError(t *testing.T) {
	h := newWebSocketHandler(&mockJWTValidator{})
	msg := `{"type":"calculate","requestId":"r-3","params":{"price":"20000","apr":"5","termMonths":"60","tradeInValue":"-1"}}`

	reply := h.HandleCalculatorMessage(context.Background(), &fakeClient{}, []byte(msg))

	var evt calculatorReplyEvent
	require.NoError(t, json.Unmarshal(reply, &evt))
	assert.False(t, evt.Payload.Valid)
	assert.Equal(t, "Trade-in value cannot be negative", evt.Payload.Error)
}

func TestHandleCalculatorMessage_Unreadable(t *testing.T) {
	tests := []struct {
		name      string
		msg       string
		requestID string
		message   string
	}{
		{"not json", `{"type":`, "", "message is not valid JSON"},
		{"unknown type", `{"type":"subscribe","requestId":"r-4"}`, "r-4", "unsupported message type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newWebSocketHandler(&mockJWTValidator{})

			reply := h.HandleCalculatorMessage(context.Background(), &fakeClient{}, []byte(tt.msg))

			var evt struct {
				Type      string            `json:"type"`
				RequestID string            `json:"requestId"`
				Payload   map[string]string `json:"payload"`
			}
			require.NoError(t, json.Unmarshal(reply, &evt))
			assert.Equal(t, "calculator.error", evt.Type)
			assert.Equal(t, tt.requestID, evt.RequestID)
			assert.Equal(t, tt.message, evt.Payload["message"])
		})
	}
}

func TestHandleCalculatorMessage_RateLimitedPerClient(t *testing.T) {
	limiter := middleware.NewRateLimiterWithConfig(60, 3)
	defer limiter.Stop()
	financingService := service.NewFinancingService(financing.DefaultConfig())
	h := NewWebSocketHandler(websocket.NewHub(), &mockJWTValidator{}, financingService, limiter, testAllowedOrigins)

	noisy := &fakeClient{id: "client-noisy"}
	msg := []byte(`{"type":"calculate","requestId":"burst","params":{"price":"20000","apr":"6.15","termMonths":"60","taxRate":"0"}}`)

	var types []string
	for i := 0; i < 5; i++ {
		var evt struct {
			Type    string         `json:"type"`
			Payload map[string]any `json:"payload"`
		}
		require.NoError(t, json.Unmarshal(h.HandleCalculatorMessage(context.Background(), noisy, msg), &evt))
		types = append(types, evt.Type)
		if evt.Type == "calculator.error" {
			assert.Equal(t, rateLimitedMessage, evt.Payload["message"])
		}
	}
	assert.Equal(t, []string{
		"calculator.result", "calculator.result", "calculator.result",
		"calculator.error", "calculator.error",
	}, types)

	// Another connection has its own budget
	reply := h.HandleCalculatorMessage(context.Background(), &fakeClient{id: "client-quiet"}, msg)
	var evt calculatorReplyEvent
	require.NoError(t, json.Unmarshal(reply, &evt))
	assert.Equal(t, "calculator.result", evt.Type)
	assert.True(t, evt.Payload.Valid)
}
