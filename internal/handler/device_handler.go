package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fakhrymubarak/weather-now/internal/geolocation"
	"github.com/fakhrymubarak/weather-now/internal/model"
	"github.com/go-chi/chi/v5"
)

type deviceResponse struct {
	DeviceID string `json:"device_id"`
}

type permissionRequest struct {
	Granted *bool `json:"granted"`
}

type positionRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (h *WeatherHandler) writeDeviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, geolocation.ErrUnknownDevice):
		h.writeError(w, http.StatusNotFound, "Unknown device")
	case errors.Is(err, geolocation.ErrPermissionNotGranted):
		h.writeError(w, http.StatusForbidden, "Location permission has not been granted")
	case errors.Is(err, geolocation.ErrInvalidPosition):
		h.writeError(w, http.StatusBadRequest, "Latitude must be within [-90,90] and longitude within [-180,180]")
	default:
		h.logger.Errorw("Device registry failure", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Device registry unavailable")
	}
}

// HandleRegisterDevice serves POST /devices.
func (h *WeatherHandler) HandleRegisterDevice(w http.ResponseWriter, r *http.Request) {
	deviceID, err := h.Devices.Register(r.Context())
	if err != nil {
		h.writeDeviceError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusCreated, model.Response{
		Data:    deviceResponse{DeviceID: deviceID},
		Message: "Success",
	})
}

// HandleSetPermission serves PUT /devices/{deviceID}/permission.
func (h *WeatherHandler) HandleSetPermission(w http.ResponseWriter, r *http.Request) {
	var req permissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Granted == nil {
		h.writeError(w, http.StatusBadRequest, "Body must be {\"granted\": true|false}")
		return
	}
	if err := h.Devices.SetPermission(r.Context(), chi.URLParam(r, "deviceID"), *req.Granted); err != nil {
		h.writeDeviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleReportPosition serves PUT /devices/{deviceID}/position.
func (h *WeatherHandler) HandleReportPosition(w http.ResponseWriter, r *http.Request) {
	var req positionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Latitude == nil || req.Longitude == nil {
		h.writeError(w, http.StatusBadRequest, "Body must be {\"latitude\": n, \"longitude\": n}")
		return
	}
	pos := model.Coordinates{Latitude: *req.Latitude, Longitude: *req.Longitude}
	if err := h.Devices.ReportPosition(r.Context(), chi.URLParam(r, "deviceID"), pos); err != nil {
		h.writeDeviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleForgetDevice serves DELETE /devices/{deviceID}.
func (h *WeatherHandler) HandleForgetDevice(w http.ResponseWriter, r *http.Request) {
	if err := h.Devices.Forget(r.Context(), chi.URLParam(r, "deviceID")); err != nil {
		h.writeDeviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
