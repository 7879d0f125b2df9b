package websocket

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
)

// ErrInvalidToken is returned when JWT validation fails
var ErrInvalidToken = errors.New("invalid token")

// ErrDealershipNotFound is returned when no dealership belongs to the token subject
var ErrDealershipNotFound = errors.New("dealership not found")

// DealershipLookup resolves the dealership owned by an Auth0 subject
type DealershipLookup interface {
	GetDealershipIDByAuth0ID(auth0ID string) (dealershipID int32, err error)
}

// CustomClaims contains the custom claims from Auth0 JWT
type CustomClaims struct{}

// Validate implements validator.CustomClaims
func (c CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// Auth0JWTValidator validates Auth0 JWT tokens for WebSocket connections
type Auth0JWTValidator struct {
	validator        *validator.Validator
	dealershipLookup DealershipLookup
}

// NewAuth0JWTValidator creates a new Auth0JWTValidator
func NewAuth0JWTValidator(domain, audience string, lookup DealershipLookup) (*Auth0JWTValidator, error) {
	issuerURL, err := url.Parse("https://" + domain + "/")
	if err != nil {
		return nil, err
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

	jwtValidator, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{audience},
		validator.WithCustomClaims(func() validator.CustomClaims {
			return &CustomClaims{}
		}),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, err
	}

	return &Auth0JWTValidator{
		validator:        jwtValidator,
		dealershipLookup: lookup,
	}, nil
}

// ValidateToken validates a JWT token and returns the dealership it belongs to
func (v *Auth0JWTValidator) ValidateToken(ctx context.Context, token string) (int32, error) {
	claims, err := v.validator.ValidateToken(ctx, token)
	if err != nil {
		return 0, ErrInvalidToken
	}

	validatedClaims, ok := claims.(*validator.ValidatedClaims)
	if !ok {
		return 0, ErrInvalidToken
	}

	dealershipID, err := v.dealershipLookup.GetDealershipIDByAuth0ID(validatedClaims.RegisteredClaims.Subject)
	if err != nil {
		return 0, ErrDealershipNotFound
	}

	return dealershipID, nil
}
