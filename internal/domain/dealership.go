package domain

import "time"

// Dealership is the tenant that owns listings and saved quotes
type Dealership struct {
	ID                  int32     `json:"id"`
	Auth0ID             string    `json:"-"`
	Name                string    `json:"name"`
	DefaultJurisdiction string    `json:"defaultJurisdiction"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

type DealershipRepository interface {
	GetByAuth0ID(auth0ID string) (*Dealership, error)
	GetByID(id int32) (*Dealership, error)
}
