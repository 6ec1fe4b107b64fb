package handler

import (
	"net/http"

	"github.com/fakhrymubarak/weather-now/internal/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// NewRouter wires the weather and device endpoints. Weather lookups from the same device
// supersede each other.
func NewRouter(h *WeatherHandler, logger *zap.SugaredLogger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	superseder := middleware.NewSuperseder()
	r.Group(func(r chi.Router) {
		r.Use(superseder.Middleware)
		r.Get("/weather", h.HandleWeather)
		r.Get("/weather/current", h.HandleCurrentWeather)
	})

	r.Route("/devices", func(r chi.Router) {
		r.Post("/", h.HandleRegisterDevice)
		r.Put("/{deviceID}/permission", h.HandleSetPermission)
		r.Put("/{deviceID}/position", h.HandleReportPosition)
		r.Delete("/{deviceID}", h.HandleForgetDevice)
	})

	return r
}
