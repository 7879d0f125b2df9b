package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/dafibh/autolot/autolot-backend/internal/middleware"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

// setupAuthContextWithDealership sets up the context the auth middleware would leave behind
func setupAuthContextWithDealership(c echo.Context, auth0ID string, dealershipID int32) {
	claims := &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{
			Subject: auth0ID,
		},
		CustomClaims: &middleware.CustomClaims{
			Email: "sales@maplemotors.test",
			Name:  "Maple Motors",
		},
	}
	ctx := context.WithValue(c.Request().Context(), middleware.ClaimsKey, claims)
	ctx = context.WithValue(ctx, middleware.Auth0IDKey, auth0ID)
	if dealershipID > 0 {
		ctx = context.WithValue(ctx, middleware.DealershipIDKey, dealershipID)
	}
	c.SetRequest(c.Request().WithContext(ctx))
}

func newJSONContext(e *echo.Echo, method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) ProblemDetails {
	t.Helper()
	var problem ProblemDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	return problem
}

func problemFields(problem ProblemDetails) []string {
	fields := make([]string, len(problem.Errors))
	for i, e := range problem.Errors {
		fields[i] = e.Field
	}
	return fields
}
