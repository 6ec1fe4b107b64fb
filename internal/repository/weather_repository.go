package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/fakhrymubarak/weather-now/internal/config"
	"github.com/fakhrymubarak/weather-now/internal/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Custom error types
var (
	ErrLocationNotFound = errors.New("location not found")
	ErrAPIKeyMissing    = errors.New("API key missing")
	ErrExternalAPI      = errors.New("external API error")
	ErrMalformedPayload = errors.New("malformed weather payload")
)

const tracerName = "github.com/fakhrymubarak/weather-now/internal/repository"

// APIError is returned for any non-200 answer from OpenWeatherMap.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("weather API returned status %d", e.StatusCode)
	}
	return e.Message
}

// Unwrap classifies the status: 404 is a missing location, anything else an upstream failure.
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return ErrLocationNotFound
	}
	return ErrExternalAPI
}

// WeatherRepository fetches raw current-weather payloads from OpenWeatherMap.
type WeatherRepository interface {
	Fetch(ctx context.Context, params url.Values) (*model.OpenWeatherMapResponse, error)
}

// weatherRepository implements WeatherRepository
type weatherRepository struct {
	httpClient *http.Client
	tracer     trace.Tracer
	logger     *zap.SugaredLogger
}

// NewWeatherRepository creates a new weather repository instance
func NewWeatherRepository(httpClient ...*http.Client) WeatherRepository {
	client := &http.Client{Timeout: config.GetOpenWeatherTimeout()}
	if len(httpClient) > 0 && httpClient[0] != nil {
		client = httpClient[0]
	}
	return &weatherRepository{
		httpClient: client,
		tracer:     otel.Tracer(tracerName),
		logger:     config.GetLogger(),
	}
}

// Fetch issues one GET against the current-weather endpoint. params carries the location
// selector (q, or lat and lon); the API key and metric units are added here.
func (r *weatherRepository) Fetch(ctx context.Context, params url.Values) (*model.OpenWeatherMapResponse, error) {
	ctx, span := r.tracer.Start(ctx, "openweathermap.fetch")
	defer span.End()
	span.SetAttributes(attribute.String("weather.params", params.Encode()))

	data, err := r.fetch(ctx, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.Warnw("Weather fetch failed", "params", params.Encode(), "error", err)
		return nil, err
	}
	span.SetStatus(codes.Ok, "")
	r.logger.Debugw("Weather fetched", "params", params.Encode(), "location", *data.Name)
	return data, nil
}

func (r *weatherRepository) fetch(ctx context.Context, params url.Values) (*model.OpenWeatherMapResponse, error) {
	apiKey := config.GetOpenWeatherMapAPIKey()
	if apiKey == "" {
		return nil, ErrAPIKeyMissing
	}

	query := url.Values{}
	for key, values := range params {
		query[key] = append([]string(nil), values...)
	}
	query.Set("appid", apiKey)
	query.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, config.GetOpenWeatherApiUrl()+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExternalAPI, err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExternalAPI, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, newAPIError(resp)
	}

	var data model.OpenWeatherMapResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if err := data.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return &data, nil
}

func newAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var payload model.OpenWeatherMapError
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		apiErr.Message = payload.Message
	} else if len(body) > 0 {
		apiErr.Message = fmt.Sprintf("weather API returned status %d: %s", resp.StatusCode, string(body))
	}
	return apiErr
}
