package integrationtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/fakhrymubarak/weather-now/internal/config"
	"github.com/fakhrymubarak/weather-now/internal/geolocation"
	"github.com/fakhrymubarak/weather-now/internal/handler"
	"github.com/fakhrymubarak/weather-now/internal/redis"
	"github.com/fakhrymubarak/weather-now/internal/repository"
)

const testAPIKey = "test_api_key"

// mockOWMApi serves a tiny slice of the OpenWeatherMap current-weather API.
func mockOWMApi() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		w.Header().Set("Content-Type", "application/json")

		if q.Get("appid") != testAPIKey {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"cod":401,"message":"Invalid API key."}`))
			return
		}
		if q.Get("units") != "metric" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"cod":"400","message":"expected metric units"}`))
			return
		}

		var name string
		switch {
		case q.Get("q") == "London":
			name = "London"
		case q.Get("lat") == "48.8566" && q.Get("lon") == "2.3522":
			name = "Paris"
		case q.Get("q") == "Broken":
			_, _ = w.Write([]byte(`{"name":"Broken","main":{"temp":1}}`))
			return
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"cod":"404","message":"city not found"}`))
			return
		}

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"name":    name,
			"main":    map[string]interface{}{"temp": 15.5, "humidity": 82, "feels_like": 14.9},
			"wind":    map[string]interface{}{"speed": 4.1, "deg": 240},
			"weather": []map[string]interface{}{{"id": 803, "main": "Clouds", "description": "broken clouds", "icon": "04d"}},
		})
	}))
}

// setupIntegrationTestServer builds the production router against the configured Redis and
// OpenWeatherMap endpoints.
func setupIntegrationTestServer() *httptest.Server {
	h := handler.NewWeatherHandler(
		repository.NewWeatherRepository(),
		geolocation.NewRegistry(redis.GetClient()),
	)
	return httptest.NewServer(handler.NewRouter(h, config.GetLogger()))
}
