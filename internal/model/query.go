package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidQuery is wrapped by every LocationQuery validation failure.
var ErrInvalidQuery = errors.New("invalid location query")

var validate = validator.New(validator.WithRequiredStructEnabled())

// QueryKind tags the variant held by a LocationQuery.
type QueryKind string

const (
	QueryKindCity        QueryKind = "city"
	QueryKindCoordinates QueryKind = "coordinates"
)

// Coordinates is a WGS84 position in decimal degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

// Validate rejects out-of-range and NaN coordinates.
func (c Coordinates) Validate() error {
	return validate.Struct(c)
}

// LocationQuery is either a city name or a coordinate pair, selected by Kind.
type LocationQuery struct {
	Kind      QueryKind `json:"kind"`
	Name      string    `json:"name,omitempty"`
	Latitude  float64   `json:"latitude,omitempty"`
	Longitude float64   `json:"longitude,omitempty"`
}

func CityQuery(name string) LocationQuery {
	return LocationQuery{Kind: QueryKindCity, Name: strings.TrimSpace(name)}
}

func CoordinatesQuery(latitude, longitude float64) LocationQuery {
	return LocationQuery{Kind: QueryKindCoordinates, Latitude: latitude, Longitude: longitude}
}

// Coordinates returns the coordinate pair of a coordinates query.
func (q LocationQuery) Coordinates() Coordinates {
	return Coordinates{Latitude: q.Latitude, Longitude: q.Longitude}
}

// Validate checks the invariants of the variant selected by Kind.
func (q LocationQuery) Validate() error {
	switch q.Kind {
	case QueryKindCity:
		if err := validate.Var(strings.TrimSpace(q.Name), "required"); err != nil {
			return fmt.Errorf("%w: city name must not be empty", ErrInvalidQuery)
		}
		return nil
	case QueryKindCoordinates:
		if err := q.Coordinates().Validate(); err != nil {
			return fmt.Errorf("%w: latitude must be within [-90,90] and longitude within [-180,180]", ErrInvalidQuery)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown query kind %q", ErrInvalidQuery, q.Kind)
	}
}
