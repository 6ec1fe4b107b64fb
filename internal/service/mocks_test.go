package service

import (
	"context"
	"net/url"

	"github.com/fakhrymubarak/weather-now/internal/model"
	"github.com/stretchr/testify/mock"
)

type mockWeatherClient struct {
	mock.Mock
}

func (m *mockWeatherClient) Fetch(ctx context.Context, params url.Values) (*model.OpenWeatherMapResponse, error) {
	args := m.Called(ctx, params)
	resp, _ := args.Get(0).(*model.OpenWeatherMapResponse)
	return resp, args.Error(1)
}

type mockGeolocation struct {
	mock.Mock
}

func (m *mockGeolocation) RequestPermission(ctx context.Context) (model.PermissionStatus, error) {
	args := m.Called(ctx)
	return args.Get(0).(model.PermissionStatus), args.Error(1)
}

func (m *mockGeolocation) GetCurrentPosition(ctx context.Context) (model.Coordinates, error) {
	args := m.Called(ctx)
	return args.Get(0).(model.Coordinates), args.Error(1)
}

var (
	_ WeatherAPIClient    = (*mockWeatherClient)(nil)
	_ GeolocationProvider = (*mockGeolocation)(nil)
)

func ptr[T any](v T) *T {
	return &v
}

func payload(name string, temp float64, humidity int, wind float64, icon string) *model.OpenWeatherMapResponse {
	return &model.OpenWeatherMapResponse{
		Name:    ptr(name),
		Main:    model.OpenWeatherMapMain{Temp: ptr(temp), Humidity: ptr(humidity)},
		Wind:    model.OpenWeatherMapWind{Speed: ptr(wind)},
		Weather: []model.OpenWeatherMapCondition{{Icon: icon}},
	}
}
