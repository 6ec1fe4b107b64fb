package repository

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/fakhrymubarak/weather-now/internal/config"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func cityParams(name string) url.Values {
	return url.Values{"q": []string{name}}
}

func TestNewWeatherRepository(t *testing.T) {
	repo := NewWeatherRepository()
	require.NotNil(t, repo)
	assert.Equal(t, config.GetOpenWeatherTimeout(), repo.(*weatherRepository).httpClient.Timeout)
}

func TestFetch_Success(t *testing.T) {
	t.Setenv("OPENWEATHERMAP_API_KEY", "testkey")

	var seen *http.Request
	repo := NewWeatherRepository(newMockHTTPClient(func(req *http.Request) *http.Response {
		seen = req
		return jsonResponse(http.StatusOK, parisPayload)
	}))

	data, err := repo.Fetch(context.Background(), cityParams("Paris"))
	require.NoError(t, err)

	assert.Equal(t, "Paris", *data.Name)
	assert.Equal(t, 20.5, *data.Main.Temp)
	assert.Equal(t, 55, *data.Main.Humidity)
	assert.Equal(t, 5.0, *data.Wind.Speed)
	assert.Equal(t, "01d", data.Weather[0].Icon)

	require.NotNil(t, seen)
	assert.Equal(t, http.MethodGet, seen.Method)
	assert.Equal(t, "api.openweathermap.org", seen.URL.Host)
	assert.Equal(t, "/data/2.5/weather", seen.URL.Path)
	q := seen.URL.Query()
	assert.Equal(t, "Paris", q.Get("q"))
	assert.Equal(t, "testkey", q.Get("appid"))
	assert.Equal(t, "metric", q.Get("units"))
	assert.False(t, q.Has("lat"))
	assert.False(t, q.Has("lon"))
}

func TestFetch_CoordinateParamsPassThrough(t *testing.T) {
	t.Setenv("OPENWEATHERMAP_API_KEY", "testkey")

	var rawQuery string
	repo := NewWeatherRepository(newMockHTTPClient(func(req *http.Request) *http.Response {
		rawQuery = req.URL.RawQuery
		return jsonResponse(http.StatusOK, parisPayload)
	}))

	params := url.Values{}
	params.Set("lat", "48.8566")
	params.Set("lon", "2.3522")
	_, err := repo.Fetch(context.Background(), params)
	require.NoError(t, err)

	assert.Equal(t, "appid=testkey&lat=48.8566&lon=2.3522&units=metric", rawQuery)
	// caller's params are not mutated
	assert.False(t, params.Has("appid"))
}

func TestFetch_NotFound(t *testing.T) {
	t.Setenv("OPENWEATHERMAP_API_KEY", "testkey")

	repo := NewWeatherRepository(newMockHTTPClient(func(req *http.Request) *http.Response {
		return jsonResponse(http.StatusNotFound, `{"cod": "404", "message": "city not found"}`)
	}))

	_, err := repo.Fetch(context.Background(), cityParams("InvalidCity12345"))
	require.Error(t, err)

	assert.True(t, errors.Is(err, ErrLocationNotFound))
	assert.False(t, errors.Is(err, ErrExternalAPI))
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "city not found", err.Error())
}

func TestFetch_UpstreamErrors(t *testing.T) {
	t.Setenv("OPENWEATHERMAP_API_KEY", "testkey")

	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{"cod": "500", "message": "server error"}`, wantMsg: "server error"},
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"cod":401,"message":"Invalid API key"}`, wantMsg: "Invalid API key"},
		{name: "bad gateway plain text", status: http.StatusBadGateway, body: "upstream down", wantMsg: "weather API returned status 502: upstream down"},
		{name: "empty body", status: http.StatusServiceUnavailable, body: "", wantMsg: "weather API returned status 503"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewWeatherRepository(newMockHTTPClient(func(req *http.Request) *http.Response {
				return jsonResponse(tt.status, tt.body)
			}))

			_, err := repo.Fetch(context.Background(), cityParams("London"))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrExternalAPI))
			assert.False(t, errors.Is(err, ErrLocationNotFound))
			assert.Equal(t, tt.wantMsg, err.Error())
		})
	}
}

func TestFetch_TransportError(t *testing.T) {
	t.Setenv("OPENWEATHERMAP_API_KEY", "testkey")

	repo := NewWeatherRepository(&http.Client{Transport: failingTransport{err: errConnectionRefused}})

	_, err := repo.Fetch(context.Background(), cityParams("London"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExternalAPI))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestFetch_MalformedPayload(t *testing.T) {
	t.Setenv("OPENWEATHERMAP_API_KEY", "testkey")

	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: "not-json"},
		{name: "wrong types", body: `{"name":"Paris","main":{"temp":"warm","humidity":55}}`},
		{name: "missing wind", body: `{"name":"Paris","main":{"temp":20.5,"humidity":55},"weather":[{"icon":"01d"}]}`},
		{name: "no conditions", body: `{"name":"Paris","main":{"temp":20.5,"humidity":55},"wind":{"speed":1},"weather":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewWeatherRepository(newMockHTTPClient(func(req *http.Request) *http.Response {
				return jsonResponse(http.StatusOK, tt.body)
			}))

			_, err := repo.Fetch(context.Background(), cityParams("Paris"))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedPayload))
		})
	}
}

func TestFetch_MissingAPIKey(t *testing.T) {
	t.Setenv("OPENWEATHERMAP_API_KEY", "")

	var calls int32
	repo := NewWeatherRepository(newMockHTTPClient(func(req *http.Request) *http.Response {
		atomic.AddInt32(&calls, 1)
		return jsonResponse(http.StatusOK, parisPayload)
	}))

	_, err := repo.Fetch(context.Background(), cityParams("Paris"))
	assert.ErrorIs(t, err, ErrAPIKeyMissing)
	assert.Equal(t, "API key missing", err.Error())
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestFetch_CancelledContext(t *testing.T) {
	t.Setenv("OPENWEATHERMAP_API_KEY", "testkey")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()
	viper.Set("openweathermap.api_url", srv.URL)
	defer viper.Set("openweathermap.api_url", "https://api.openweathermap.org/data/2.5/weather")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewWeatherRepository(srv.Client()).Fetch(ctx, cityParams("Paris"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExternalAPI))
	assert.Contains(t, err.Error(), "context canceled")
}

func TestFetch_UsesConfiguredEndpoint(t *testing.T) {
	t.Setenv("OPENWEATHERMAP_API_KEY", "testkey")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "Paris" || r.URL.Query().Get("appid") != "testkey" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"cod":"404","message":"city not found"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(parisPayload))
	}))
	defer srv.Close()
	viper.Set("openweathermap.api_url", srv.URL)
	defer viper.Set("openweathermap.api_url", "https://api.openweathermap.org/data/2.5/weather")

	repo := NewWeatherRepository(srv.Client())

	data, err := repo.Fetch(context.Background(), cityParams("Paris"))
	require.NoError(t, err)
	assert.Equal(t, "Paris", *data.Name)

	_, err = repo.Fetch(context.Background(), cityParams("Atlantis"))
	assert.ErrorIs(t, err, ErrLocationNotFound)
}

func TestFetch_RecordsSpan(t *testing.T) {
	t.Setenv("OPENWEATHERMAP_API_KEY", "testkey")

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	status := http.StatusOK
	repo := &weatherRepository{
		httpClient: newMockHTTPClient(func(req *http.Request) *http.Response {
			if status == http.StatusOK {
				return jsonResponse(status, parisPayload)
			}
			return jsonResponse(status, `{"cod":"404","message":"city not found"}`)
		}),
		tracer: tp.Tracer("test"),
		logger: config.GetLogger(),
	}

	_, err := repo.Fetch(context.Background(), cityParams("Paris"))
	require.NoError(t, err)
	status = http.StatusNotFound
	_, err = repo.Fetch(context.Background(), cityParams("Atlantis"))
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "openweathermap.fetch", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "city not found", spans[1].Status().Description)
	require.NotEmpty(t, spans[1].Events())
	assert.Equal(t, "exception", spans[1].Events()[0].Name)
}
