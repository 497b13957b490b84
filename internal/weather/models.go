package weather

import (
	"time"
)

// Condition represents the coarse upstream weather category ("main" in OpenWeather payloads).
type Condition string

const (
	ConditionUnknown      Condition = "unknown"
	ConditionClear        Condition = "Clear"
	ConditionClouds       Condition = "Clouds"
	ConditionRain         Condition = "Rain"
	ConditionDrizzle      Condition = "Drizzle"
	ConditionSnow         Condition = "Snow"
	ConditionThunderstorm Condition = "Thunderstorm"
	ConditionFog          Condition = "Fog"
	ConditionMist         Condition = "Mist"
	ConditionHaze         Condition = "Haze"
)

// ParseCondition maps an upstream "main" value onto the known set, else ConditionUnknown.
func ParseCondition(s string) Condition {
	switch c := Condition(s); c {
	case ConditionClear, ConditionClouds, ConditionRain, ConditionDrizzle, ConditionSnow,
		ConditionThunderstorm, ConditionFog, ConditionMist, ConditionHaze:
		return c
	default:
		return ConditionUnknown
	}
}

// Coordinates is a point yielded by a location source.
type Coordinates struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// GeocodeResult is the resolved position of a postal code.
type GeocodeResult struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// Coordinates converts the result for the weather call.
func (g GeocodeResult) Coordinates() Coordinates {
	return Coordinates{Latitude: g.Latitude, Longitude: g.Longitude}
}

// WeatherSnapshot is a point-in-time reading in imperial units.
type WeatherSnapshot struct {
	Coordinates Coordinates `json:"coordinates"`
	FetchedAt   time.Time   `json:"fetchedAt"` // always UTC

	Temperature     float64 `json:"temperatureF"`
	FeelsLike       float64 `json:"feelsLikeF"`
	HumidityPercent int     `json:"humidityPercent"`
	PressureHPa     int     `json:"pressureHpa"`
	TempMin         float64 `json:"tempMinF"`
	TempMax         float64 `json:"tempMaxF"`

	ConditionMain        Condition `json:"conditionMain"`
	ConditionDescription string    `json:"conditionDescription"`

	WindSpeedMph         float64 `json:"windSpeedMph"`
	WindDirectionDegrees float64 `json:"windDirectionDegrees"`

	LocationName        string  `json:"locationName"`
	SunriseEpochSeconds int64   `json:"sunrise"`
	SunsetEpochSeconds  int64   `json:"sunset"`
	VisibilityMeters    float64 `json:"visibilityMeters"`
}
