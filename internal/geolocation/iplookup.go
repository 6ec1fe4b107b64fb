package geolocation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/fakhrymubarak/weather-now/internal/config"
	"github.com/fakhrymubarak/weather-now/internal/model"
	"go.uber.org/zap"
)

// IPLookupProvider approximates the host position from its public IP address.
// Permission is the geolocation.ip_lookup.enabled setting.
type IPLookupProvider struct {
	httpClient *http.Client
	url        string
	enabled    bool
	logger     *zap.SugaredLogger
}

func NewIPLookupProvider(httpClient ...*http.Client) *IPLookupProvider {
	client := &http.Client{Timeout: config.GetIPLookupTimeout()}
	if len(httpClient) > 0 && httpClient[0] != nil {
		client = httpClient[0]
	}
	return &IPLookupProvider{
		httpClient: client,
		url:        config.GetIPLookupUrl(),
		enabled:    config.IsIPLookupEnabled(),
		logger:     config.GetLogger(),
	}
}

func (p *IPLookupProvider) RequestPermission(ctx context.Context) (model.PermissionStatus, error) {
	if p.enabled {
		return model.PermissionGranted, nil
	}
	return model.PermissionDenied, nil
}

func (p *IPLookupProvider) GetCurrentPosition(ctx context.Context) (model.Coordinates, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return model.Coordinates{}, fmt.Errorf("%w: %v", ErrPositionUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.Warnw("IP geolocation request failed", "error", err)
		return model.Coordinates{}, fmt.Errorf("%w: %v", ErrPositionUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.Coordinates{}, fmt.Errorf("%w: lookup returned status %d", ErrPositionUnavailable, resp.StatusCode)
	}

	var body struct {
		Status  string  `json:"status"`
		Message string  `json:"message"`
		Lat     float64 `json:"lat"`
		Lon     float64 `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return model.Coordinates{}, fmt.Errorf("%w: %v", ErrPositionUnavailable, err)
	}
	if body.Status != "success" {
		return model.Coordinates{}, fmt.Errorf("%w: %s", ErrPositionUnavailable, body.Message)
	}

	p.logger.Debugw("IP geolocation resolved", "lat", body.Lat, "lon", body.Lon)
	return model.Coordinates{Latitude: body.Lat, Longitude: body.Lon}, nil
}
