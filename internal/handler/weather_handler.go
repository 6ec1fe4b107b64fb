package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/fakhrymubarak/weather-now/internal/config"
	"github.com/fakhrymubarak/weather-now/internal/geolocation"
	"github.com/fakhrymubarak/weather-now/internal/middleware"
	"github.com/fakhrymubarak/weather-now/internal/model"
	"github.com/fakhrymubarak/weather-now/internal/service"
	"go.uber.org/zap"
)

// ObservationView is the JSON shape of a successful lookup.
type ObservationView struct {
	model.WeatherObservation
	IconURL string `json:"icon_url"`
}

type WeatherHandler struct {
	Client          service.WeatherAPIClient
	Devices         *geolocation.Registry
	IconURLTemplate string
	logger          *zap.SugaredLogger
}

func NewWeatherHandler(client service.WeatherAPIClient, devices *geolocation.Registry) *WeatherHandler {
	return &WeatherHandler{
		Client:          client,
		Devices:         devices,
		IconURLTemplate: config.GetOpenWeatherIconUrl(),
		logger:          config.GetLogger(),
	}
}

func (h *WeatherHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Errorw("could not encode json", "error", err)
	}
}

func (h *WeatherHandler) writeError(w http.ResponseWriter, statusCode int, errMsg string) {
	h.writeJSONResponse(w, statusCode, model.Response{
		Error:   &errMsg,
		Message: "Error",
	})
}

// StatusForKind maps a resolution failure onto an HTTP status.
func StatusForKind(kind service.ErrorKind) int {
	switch kind {
	case service.KindInvalidQuery:
		return http.StatusBadRequest
	case service.KindLocationPermissionDenied:
		return http.StatusForbidden
	case service.KindLocationNotFound:
		return http.StatusNotFound
	case service.KindLocationUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func (h *WeatherHandler) writeResolution(w http.ResponseWriter, obs *model.WeatherObservation, err error) {
	if err != nil {
		var re *service.ResolutionError
		if !errors.As(err, &re) {
			re = &service.ResolutionError{Kind: service.KindNetworkFailure, Message: err.Error(), Err: err}
		}
		h.logger.Warnw("Weather resolution failed", "kind", re.Kind.String(), "error", re.Message)
		errMsg := re.UserMessage()
		h.writeJSONResponse(w, StatusForKind(re.Kind), model.Response{
			Error:   &errMsg,
			Kind:    re.Kind.String(),
			Message: "Error",
		})
		return
	}

	h.writeJSONResponse(w, http.StatusOK, model.Response{
		Data:    ObservationView{WeatherObservation: *obs, IconURL: obs.IconURLFrom(h.IconURLTemplate)},
		Message: "Success",
	})
}

func invalidQuery(msg string) *service.ResolutionError {
	return &service.ResolutionError{Kind: service.KindInvalidQuery, Message: msg}
}

// queryFromRequest reads either city (or location) or a lat/lon pair.
func queryFromRequest(r *http.Request) (model.LocationQuery, error) {
	values := r.URL.Query()
	city := strings.TrimSpace(values.Get("city"))
	if city == "" {
		city = strings.TrimSpace(values.Get("location"))
	}
	latStr, lonStr := strings.TrimSpace(values.Get("lat")), strings.TrimSpace(values.Get("lon"))

	if latStr == "" && lonStr == "" {
		return model.CityQuery(city), nil
	}
	if city != "" {
		return model.LocationQuery{}, invalidQuery("use either city or lat/lon, not both")
	}
	if latStr == "" || lonStr == "" {
		return model.LocationQuery{}, invalidQuery("lat and lon must be given together")
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return model.LocationQuery{}, invalidQuery(fmt.Sprintf("invalid lat %q", latStr))
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return model.LocationQuery{}, invalidQuery(fmt.Sprintf("invalid lon %q", lonStr))
	}
	return model.CoordinatesQuery(lat, lon), nil
}

// HandleWeather serves GET /weather?city=<name> and GET /weather?lat=<lat>&lon=<lon>.
func (h *WeatherHandler) HandleWeather(w http.ResponseWriter, r *http.Request) {
	query, err := queryFromRequest(r)
	if err != nil {
		h.writeResolution(w, nil, err)
		return
	}
	obs, err := service.NewWeatherResolver(h.Client, nil).ResolveByQuery(r.Context(), query)
	h.writeResolution(w, obs, err)
}

// HandleCurrentWeather serves GET /weather/current for the device named in X-Device-ID.
func (h *WeatherHandler) HandleCurrentWeather(w http.ResponseWriter, r *http.Request) {
	deviceID := strings.TrimSpace(r.Header.Get(middleware.DeviceHeader))
	if deviceID == "" {
		h.writeResolution(w, nil, invalidQuery("missing "+middleware.DeviceHeader+" header"))
		return
	}
	var location service.GeolocationProvider
	if h.Devices != nil {
		location = h.Devices.Provider(deviceID)
	}
	obs, err := service.NewWeatherResolver(h.Client, location).ResolveByCurrentLocation(r.Context())
	h.writeResolution(w, obs, err)
}
