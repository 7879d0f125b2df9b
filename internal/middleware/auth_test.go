package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTokenValidator struct {
	subject string
	err     error
	claims  interface{}
}

func (f *fakeTokenValidator) ValidateToken(ctx context.Context, token string) (interface{}, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.claims != nil {
		return f.claims, nil
	}
	return &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{Subject: f.subject},
	}, nil
}

type mockDealershipProvider struct {
	dealershipID int32
	err          error
	calledWith   string
}

func (m *mockDealershipProvider) GetDealershipIDByAuth0ID(auth0ID string) (int32, error) {
	m.calledWith = auth0ID
	if m.err != nil {
		return 0, m.err
	}
	return m.dealershipID, nil
}

func runAuth(t *testing.T, mw *AuthMiddleware, header string) (*httptest.ResponseRecorder, echo.Context, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/quotes/abc", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	var seen echo.Context
	err := mw.Authenticate()(func(c echo.Context) error {
		called = true
		seen = c
		return c.String(http.StatusOK, "ok")
	})(c)
	require.NoError(t, err)
	return rec, seen, called
}

func assertUnauthorized(t *testing.T, rec *httptest.ResponseRecorder, detail string) {
	t.Helper()
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var problem problemDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, errorTypeUnauthorized, problem.Type)
	assert.Equal(t, detail, problem.Detail)
	assert.Equal(t, "/api/v1/quotes/abc", problem.Instance)
}

func TestAuthenticate_MissingHeader(t *testing.T) {
	mw := NewAuthMiddlewareWithValidator(&fakeTokenValidator{subject: "auth0|1"}, nil)

	rec, _, called := runAuth(t, mw, "")

	assert.False(t, called)
	assertUnauthorized(t, rec, "missing authorization header")
}

func TestAuthenticate_BadHeaderFormat(t *testing.T) {
	mw := NewAuthMiddlewareWithValidator(&fakeTokenValidator{subject: "auth0|1"}, nil)

	for _, header := range []string{"invalid-token", "Basic abc", "Bearer "} {
		t.Run(header, func(t *testing.T) {
			rec, _, called := runAuth(t, mw, header)
			assert.False(t, called)
			assertUnauthorized(t, rec, "invalid authorization header format")
		})
	}
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	mw := NewAuthMiddlewareWithValidator(&fakeTokenValidator{err: errors.New("expired")}, nil)

	rec, _, called := runAuth(t, mw, "Bearer abc")

	assert.False(t, called)
	assertUnauthorized(t, rec, "invalid token")
}

func TestAuthenticate_UnexpectedClaimsType(t *testing.T) {
	mw := NewAuthMiddlewareWithValidator(&fakeTokenValidator{claims: "not-claims"}, nil)

	rec, _, called := runAuth(t, mw, "Bearer abc")

	assert.False(t, called)
	assertUnauthorized(t, rec, "invalid claims")
}

func TestAuthenticate_UnknownDealership(t *testing.T) {
	provider := &mockDealershipProvider{err: errors.New("dealership not found")}
	mw := NewAuthMiddlewareWithValidator(&fakeTokenValidator{subject: "auth0|ghost"}, provider)

	rec, _, called := runAuth(t, mw, "Bearer abc")

	assert.False(t, called)
	assert.Equal(t, "auth0|ghost", provider.calledWith)
	assertUnauthorized(t, rec, "no dealership is linked to this account")
}

func TestAuthenticate_InjectsIdentity(t *testing.T) {
	provider := &mockDealershipProvider{dealershipID: 42}
	mw := NewAuthMiddlewareWithValidator(&fakeTokenValidator{subject: "auth0|dealer"}, provider)

	rec, c, called := runAuth(t, mw, "bearer abc")

	require.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "auth0|dealer", GetAuth0ID(c))
	assert.Equal(t, int32(42), GetDealershipID(c))
	require.NotNil(t, GetClaims(c))
	assert.Equal(t, "auth0|dealer", GetClaims(c).RegisteredClaims.Subject)
}

func TestAuthenticate_NilProviderSkipsDealership(t *testing.T) {
	mw := NewAuthMiddlewareWithValidator(&fakeTokenValidator{subject: "auth0|dealer"}, nil)

	_, c, called := runAuth(t, mw, "Bearer abc")

	require.True(t, called)
	assert.Equal(t, int32(0), GetDealershipID(c))
}

func TestContextGetters_Empty(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	assert.Equal(t, "", GetAuth0ID(c))
	assert.Nil(t, GetClaims(c))
	assert.Equal(t, int32(0), GetDealershipID(c))
}

func TestCustomClaims_Validate(t *testing.T) {
	claims := &CustomClaims{Email: "sales@lot.example", Name: "Sales"}
	assert.NoError(t, claims.Validate(context.Background()))
}
