// Package display turns a weather.WeatherSnapshot into the values a client renders.
// Every function here is total: unknown input falls back, it never fails.
package display

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/i474232898/weather-lookup/internal/weather"
)

// MetersPerMile is the divisor for visibility.
const MetersPerMile = 1609.34

var backgrounds = map[weather.Condition]string{
	weather.ConditionClear:        "https://images.unsplash.com/photo-1601297183305-6df142704ea2",
	weather.ConditionClouds:       "https://images.unsplash.com/photo-1534088568595-a066f410bcda",
	weather.ConditionRain:         "https://images.unsplash.com/photo-1519692933481-e162a57d6721",
	weather.ConditionSnow:         "https://images.unsplash.com/photo-1542601906990-b4d3fb778b09",
	weather.ConditionThunderstorm: "https://images.unsplash.com/photo-1605727216801-e27ce1d0cc28",
	weather.ConditionFog:          "https://images.unsplash.com/photo-1543968996-ee822b8176ba",
}

// Icon names.
const (
	IconSun            = "sun"
	IconCloud          = "cloud"
	IconCloudRain      = "cloud-rain"
	IconCloudSnow      = "cloud-snow"
	IconCloudLightning = "cloud-lightning"
	IconCloudFog       = "cloud-fog"
)

var compass = [8]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// Background returns the image for cond. Anything without an entry, including
// "" and "unknown", gets the Clear image.
func Background(cond weather.Condition) string {
	if u, ok := backgrounds[cond]; ok {
		return u
	}
	return backgrounds[weather.ConditionClear]
}

// Icon returns the icon name for cond, defaulting to the sun.
func Icon(cond weather.Condition) string {
	switch cond {
	case weather.ConditionClear:
		return IconSun
	case weather.ConditionClouds:
		return IconCloud
	case weather.ConditionRain, weather.ConditionDrizzle:
		return IconCloudRain
	case weather.ConditionSnow:
		return IconCloudSnow
	case weather.ConditionThunderstorm:
		return IconCloudLightning
	case weather.ConditionFog, weather.ConditionMist, weather.ConditionHaze:
		return IconCloudFog
	default:
		return IconSun
	}
}

// Round rounds half up (toward +Inf), matching how the client rounds for display.
func Round(x float64) int {
	return int(math.Floor(x + 0.5))
}

// WindDirection maps degrees to one of 8 compass points: round(deg/45) mod 8.
func WindDirection(deg float64) string {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return compass[0]
	}
	idx := Round(deg/45) % 8
	if idx < 0 {
		idx += 8
	}
	return compass[idx]
}

// VisibilityMiles converts meters to miles with one decimal, e.g. "10.0 mi".
func VisibilityMiles(meters float64) string {
	return strconv.FormatFloat(meters/MetersPerMile, 'f', 1, 64) + " mi"
}

// FormatClock renders epoch seconds as "6:42 AM" in loc (UTC when nil).
func FormatClock(epoch int64, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return time.Unix(epoch, 0).In(loc).Format("3:04 PM")
}

// Fahrenheit renders a rounded temperature, e.g. "72°F".
func Fahrenheit(f float64) string {
	return fmt.Sprintf("%d°F", Round(f))
}

// Card is the rendered weather panel.
type Card struct {
	Welcome       string            `json:"welcome"`
	LocationName  string            `json:"locationName"`
	Condition     weather.Condition `json:"condition"`
	Description   string            `json:"description"`
	Background    string            `json:"background"`
	Icon          string            `json:"icon"`
	Temperature   string            `json:"temperature"`
	FeelsLike     string            `json:"feelsLike"`
	Humidity      string            `json:"humidity"`
	Wind          string            `json:"wind"`
	WindDirection string            `json:"windDirection"`
	Visibility    string            `json:"visibility"`
	Pressure      string            `json:"pressure"`
	Sunrise       string            `json:"sunrise"`
	Sunset        string            `json:"sunset"`
	High          string            `json:"high"`
	Low           string            `json:"low"`
}

// NewCard builds the panel shown to name for snap, with clock times in loc.
func NewCard(name string, snap weather.WeatherSnapshot, loc *time.Location) Card {
	welcome := fmt.Sprintf("Here's your weather in %s:", snap.LocationName)
	if name != "" {
		welcome = fmt.Sprintf("Welcome, %s! Here's your weather in %s:", name, snap.LocationName)
	}

	return Card{
		Welcome:       welcome,
		LocationName:  snap.LocationName,
		Condition:     snap.ConditionMain,
		Description:   snap.ConditionDescription,
		Background:    Background(snap.ConditionMain),
		Icon:          Icon(snap.ConditionMain),
		Temperature:   Fahrenheit(snap.Temperature),
		FeelsLike:     Fahrenheit(snap.FeelsLike),
		Humidity:      fmt.Sprintf("%d%%", snap.HumidityPercent),
		Wind:          fmt.Sprintf("%d mph", Round(snap.WindSpeedMph)),
		WindDirection: WindDirection(snap.WindDirectionDegrees),
		Visibility:    VisibilityMiles(snap.VisibilityMeters),
		Pressure:      fmt.Sprintf("%d hPa", snap.PressureHPa),
		Sunrise:       FormatClock(snap.SunriseEpochSeconds, loc),
		Sunset:        FormatClock(snap.SunsetEpochSeconds, loc),
		High:          Fahrenheit(snap.TempMax),
		Low:           Fahrenheit(snap.TempMin),
	}
}
