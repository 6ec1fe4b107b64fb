package handler

import (
	"context"
	"net/url"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/fakhrymubarak/weather-now/internal/geolocation"
	"github.com/fakhrymubarak/weather-now/internal/model"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type mockWeatherClient struct {
	mock.Mock
}

func (m *mockWeatherClient) Fetch(ctx context.Context, params url.Values) (*model.OpenWeatherMapResponse, error) {
	args := m.Called(ctx, params)
	resp, _ := args.Get(0).(*model.OpenWeatherMapResponse)
	return resp, args.Error(1)
}

func ptr[T any](v T) *T {
	return &v
}

func londonPayload() *model.OpenWeatherMapResponse {
	return &model.OpenWeatherMapResponse{
		Name:    ptr("London"),
		Main:    model.OpenWeatherMapMain{Temp: ptr(15.5), Humidity: ptr(82)},
		Wind:    model.OpenWeatherMapWind{Speed: ptr(4.1)},
		Weather: []model.OpenWeatherMapCondition{{Icon: "04d"}},
	}
}

func cityParams(name string) url.Values {
	return url.Values{"q": []string{name}}
}

// newTestHandler returns a handler backed by a fresh miniredis device registry.
func newTestHandler(t *testing.T) (*WeatherHandler, *mockWeatherClient, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redisv9.NewClient(&redisv9.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	weatherClient := new(mockWeatherClient)
	h := NewWeatherHandler(weatherClient, geolocation.NewRegistry(client))
	return h, weatherClient, mr
}

func newTestRouter(h *WeatherHandler) *routerUnderTest {
	return &routerUnderTest{handler: NewRouter(h, zap.NewNop().Sugar())}
}
