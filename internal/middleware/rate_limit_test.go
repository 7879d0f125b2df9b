package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiterWithConfig(10, 5) // 10 per minute, burst of 5
	defer rl.Stop()

	for i := 0; i < 5; i++ {
		if !rl.Allow("ip:10.0.0.1") {
			t.Errorf("Request %d should be allowed", i+1)
		}
	}

	if rl.Allow("ip:10.0.0.1") {
		t.Error("Request 6 should be rate limited")
	}
}

func TestRateLimiter_DifferentClients(t *testing.T) {
	rl := NewRateLimiterWithConfig(10, 3)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("ip:10.0.0.1"))
	}
	assert.False(t, rl.Allow("ip:10.0.0.1"))

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("ip:10.0.0.2"), "second client keeps its full burst")
	}
}

func TestRateLimiter_GetStateUnknownClient(t *testing.T) {
	rl := NewRateLimiterWithConfig(10, 4)
	defer rl.Stop()

	remaining, _ := rl.GetState("ip:unknown")
	assert.Equal(t, 4, remaining)
}

func TestRateLimiter_StopTwice(t *testing.T) {
	rl := NewRateLimiterWithConfig(10, 4)
	rl.Stop()
	assert.NotPanics(t, rl.Stop)
}

func calculatorRequest(e *echo.Echo, ip string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/financing/calculate", nil)
	req.Header.Set(echo.HeaderXRealIP, ip)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestRateLimitMiddleware_LimitsByIP(t *testing.T) {
	e := echo.New()
	rl := NewRateLimiterWithConfig(60, 2)
	defer rl.Stop()

	handler := RateLimitMiddleware(rl)(func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	for i := 0; i < 2; i++ {
		c, rec := calculatorRequest(e, "203.0.113.5")
		assert.NoError(t, handler(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "60", rec.Header().Get("X-RateLimit-Limit"))
		assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Remaining"))
	}

	c, rec := calculatorRequest(e, "203.0.113.5")
	assert.NoError(t, handler(c))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), errorTypeRateLimit)

	c, rec = calculatorRequest(e, "198.51.100.9")
	assert.NoError(t, handler(c))
	assert.Equal(t, http.StatusOK, rec.Code, "other clients are unaffected")
}

func TestRateLimitMiddleware_KeysDealersByDealership(t *testing.T) {
	e := echo.New()
	rl := NewRateLimiterWithConfig(60, 1)
	defer rl.Stop()

	handler := RateLimitMiddleware(rl)(func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	asDealer := func(id int32) (echo.Context, *httptest.ResponseRecorder) {
		c, rec := calculatorRequest(e, "192.0.2.1")
		ctx := context.WithValue(c.Request().Context(), DealershipIDKey, id)
		c.SetRequest(c.Request().WithContext(ctx))
		return c, rec
	}

	c, rec := asDealer(1)
	assert.NoError(t, handler(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	// Same office IP, different dealership
	c, rec = asDealer(2)
	assert.NoError(t, handler(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	c, rec = asDealer(1)
	assert.NoError(t, handler(c))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
