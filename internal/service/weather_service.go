package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"

	"github.com/fakhrymubarak/weather-now/internal/model"
	"github.com/fakhrymubarak/weather-now/internal/repository"
)

// GeolocationProvider supplies the caller's position. Both calls may fail; nothing retries them.
type GeolocationProvider interface {
	RequestPermission(ctx context.Context) (model.PermissionStatus, error)
	GetCurrentPosition(ctx context.Context) (model.Coordinates, error)
}

// WeatherAPIClient performs the single outbound weather request.
type WeatherAPIClient interface {
	Fetch(ctx context.Context, params url.Values) (*model.OpenWeatherMapResponse, error)
}

var _ WeatherAPIClient = (repository.WeatherRepository)(nil)

// WeatherResolver turns a location query, or the current position, into an observation.
// It holds no per-call state and is safe for concurrent use.
type WeatherResolver struct {
	Client   WeatherAPIClient
	Location GeolocationProvider
}

func NewWeatherResolver(client WeatherAPIClient, location GeolocationProvider) *WeatherResolver {
	return &WeatherResolver{
		Client:   client,
		Location: location,
	}
}

// ResolveByQuery validates the query, fetches the weather once and normalizes the payload.
// Every failure is a *ResolutionError.
func (r *WeatherResolver) ResolveByQuery(ctx context.Context, query model.LocationQuery) (*model.WeatherObservation, error) {
	if err := query.Validate(); err != nil {
		return nil, newResolutionError(KindInvalidQuery, err)
	}
	if r.Client == nil {
		return nil, newResolutionError(KindNetworkFailure, errors.New("weather client not configured"))
	}

	data, err := r.Client.Fetch(ctx, QueryParams(query))
	if err != nil {
		if errors.Is(err, repository.ErrLocationNotFound) {
			return nil, newResolutionError(KindLocationNotFound, err)
		}
		return nil, newResolutionError(KindNetworkFailure, err)
	}

	obs, err := Normalize(data)
	if err != nil {
		return nil, newResolutionError(KindNetworkFailure, err)
	}
	return obs, nil
}

// ResolveByCurrentLocation asks for location permission, reads the position and resolves it.
// A denial returns before any network call.
func (r *WeatherResolver) ResolveByCurrentLocation(ctx context.Context) (*model.WeatherObservation, error) {
	if r.Location == nil {
		return nil, newResolutionError(KindLocationUnavailable, errors.New("no geolocation provider"))
	}

	status, err := r.Location.RequestPermission(ctx)
	if err != nil {
		return nil, newResolutionError(KindLocationUnavailable, err)
	}
	if status != model.PermissionGranted {
		return nil, newResolutionError(KindLocationPermissionDenied, errors.New("permission to access location was denied"))
	}

	pos, err := r.Location.GetCurrentPosition(ctx)
	if err != nil {
		return nil, newResolutionError(KindLocationUnavailable, err)
	}
	if err := pos.Validate(); err != nil {
		return nil, newResolutionError(KindLocationUnavailable, fmt.Errorf("provider returned invalid position: %w", err))
	}

	return r.ResolveByQuery(ctx, model.CoordinatesQuery(pos.Latitude, pos.Longitude))
}

// QueryParams builds the location selector: q for a city, lat and lon for coordinates.
func QueryParams(query model.LocationQuery) url.Values {
	params := url.Values{}
	switch query.Kind {
	case model.QueryKindCity:
		params.Set("q", query.Name)
	case model.QueryKindCoordinates:
		params.Set("lat", formatDegrees(query.Latitude))
		params.Set("lon", formatDegrees(query.Longitude))
	}
	return params
}

func formatDegrees(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Normalize maps a raw payload onto a WeatherObservation.
func Normalize(data *model.OpenWeatherMapResponse) (*model.WeatherObservation, error) {
	if data == nil {
		return nil, fmt.Errorf("%w: empty response", repository.ErrMalformedPayload)
	}
	if err := data.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrMalformedPayload, err)
	}
	return &model.WeatherObservation{
		LocationName:       *data.Name,
		TemperatureCelsius: *data.Main.Temp,
		HumidityPercent:    *data.Main.Humidity,
		WindSpeedKph:       WindSpeedKph(*data.Wind.Speed),
		IconID:             data.Weather[0].Icon,
	}, nil
}

// WindSpeedKph converts m/s to km/h, rounded to two decimals with halves rounded away from zero.
func WindSpeedKph(metersPerSecond float64) float64 {
	return math.Round(metersPerSecond*3.6*100) / 100
}
