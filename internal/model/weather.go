package model

import "fmt"

// DefaultIconURLTemplate is the OpenWeatherMap icon asset location.
const DefaultIconURLTemplate = "https://openweathermap.org/img/wn/%s.png"

// WeatherObservation is the normalized result of one successful resolution.
type WeatherObservation struct {
	LocationName       string  `json:"location_name"`
	TemperatureCelsius float64 `json:"temperature_celsius"`
	HumidityPercent    int     `json:"humidity_percent"`
	WindSpeedKph       float64 `json:"wind_speed_kph"`
	IconID             string  `json:"icon_id"`
}

// IconURL returns the icon asset URL for the observation.
func (o WeatherObservation) IconURL() string {
	return o.IconURLFrom(DefaultIconURLTemplate)
}

// IconURLFrom fills template (containing one %s) with the icon id.
func (o WeatherObservation) IconURLFrom(template string) string {
	if template == "" {
		template = DefaultIconURLTemplate
	}
	return fmt.Sprintf(template, o.IconID)
}
