package model

// OpenWeatherMapResponse is the subset of the /data/2.5/weather payload the resolver consumes.
// Required values are pointers so that an absent field is distinguishable from a zero one.
type OpenWeatherMapResponse struct {
	Name    *string                   `json:"name" validate:"required"`
	Main    OpenWeatherMapMain        `json:"main"`
	Wind    OpenWeatherMapWind        `json:"wind"`
	Weather []OpenWeatherMapCondition `json:"weather" validate:"required,min=1,dive"`
}

type OpenWeatherMapMain struct {
	Temp      *float64 `json:"temp" validate:"required"`
	FeelsLike float64  `json:"feels_like"`
	TempMin   float64  `json:"temp_min"`
	TempMax   float64  `json:"temp_max"`
	Pressure  int      `json:"pressure"`
	Humidity  *int     `json:"humidity" validate:"required,gte=0,lte=100"`
}

type OpenWeatherMapWind struct {
	Speed *float64 `json:"speed" validate:"required,gte=0"`
	Deg   int      `json:"deg"`
}

type OpenWeatherMapCondition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon" validate:"required"`
}

// Validate reports whether every field needed for normalization is present and in range.
func (r *OpenWeatherMapResponse) Validate() error {
	return validate.Struct(r)
}

// OpenWeatherMapError is the body OpenWeatherMap sends with non-2xx statuses.
// cod is a string for some errors and a number for others.
type OpenWeatherMapError struct {
	Cod     interface{} `json:"cod"`
	Message string      `json:"message"`
}
