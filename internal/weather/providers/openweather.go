package providers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/weather-lookup/internal/weather"
	"github.com/sony/gobreaker"
)

// DefaultOpenWeatherBaseURL is the public OpenWeather host.
const DefaultOpenWeatherBaseURL = "https://api.openweathermap.org"

// OpenWeatherProvider talks to OpenWeather's zip geocoding and current weather endpoints.
// It implements both weather.Geocoder and weather.CurrentProvider.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
	now     func() time.Time
}

func NewOpenWeatherProvider(client *http.Client, baseURL, apiKey string) *OpenWeatherProvider {
	if baseURL == "" {
		baseURL = DefaultOpenWeatherBaseURL
	}
	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		circuit: newCircuitBreaker("openweather"),
		now:     time.Now,
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

// GeocodePostalCode calls GET /geo/1.0/zip?zip={code},{country}&appid={key}.
func (p *OpenWeatherProvider) GeocodePostalCode(ctx context.Context, code, country string) (weather.GeocodeResult, error) {
	if p.apiKey == "" {
		return weather.GeocodeResult{}, weather.NewError(weather.ErrConfig, weather.MsgMissingAPIKey)
	}

	values := url.Values{}
	values.Set("zip", code+","+country)
	values.Set("appid", p.apiKey)
	u := fmt.Sprintf("%s/geo/1.0/zip?%s", p.baseURL, values.Encode())

	resp, err := doRequest(ctx, p.client, p.circuit, u, weather.MsgGeocodeFailed)
	if err != nil {
		var apiErr *weather.APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return weather.GeocodeResult{}, weather.NewError(weather.ErrNotFound, weather.MsgZipNotFound)
		}
		return weather.GeocodeResult{}, err
	}

	var payload struct {
		Zip     string   `json:"zip"`
		Name    string   `json:"name"`
		Lat     *float64 `json:"lat"`
		Lon     *float64 `json:"lon"`
		Country string   `json:"country"`
	}
	if err := decodeJSON(resp, &payload); err != nil {
		return weather.GeocodeResult{}, err
	}

	if payload.Lat == nil || payload.Lon == nil {
		return weather.GeocodeResult{}, weather.NewError(weather.ErrNotFound, weather.MsgZipNotFound)
	}

	return weather.GeocodeResult{
		Latitude:  *payload.Lat,
		Longitude: *payload.Lon,
	}, nil
}

// CurrentByCoordinates calls GET /data/2.5/weather?lat=&lon=&units=imperial&appid=.
func (p *OpenWeatherProvider) CurrentByCoordinates(ctx context.Context, coords weather.Coordinates) (weather.WeatherSnapshot, error) {
	if p.apiKey == "" {
		return weather.WeatherSnapshot{}, weather.NewError(weather.ErrConfig, weather.MsgMissingAPIKey)
	}

	values := url.Values{}
	values.Set("lat", strconv.FormatFloat(coords.Latitude, 'f', -1, 64))
	values.Set("lon", strconv.FormatFloat(coords.Longitude, 'f', -1, 64))
	values.Set("units", "imperial")
	values.Set("appid", p.apiKey)
	u := fmt.Sprintf("%s/data/2.5/weather?%s", p.baseURL, values.Encode())

	resp, err := doRequest(ctx, p.client, p.circuit, u, weather.MsgWeatherFailed)
	if err != nil {
		return weather.WeatherSnapshot{}, err
	}

	var payload struct {
		Main struct {
			Temp      float64 `json:"temp"`
			FeelsLike float64 `json:"feels_like"`
			TempMin   float64 `json:"temp_min"`
			TempMax   float64 `json:"temp_max"`
			Pressure  float64 `json:"pressure"`
			Humidity  float64 `json:"humidity"`
		} `json:"main"`
		Weather []struct {
			Main        string `json:"main"`
			Description string `json:"description"`
		} `json:"weather"`
		Wind struct {
			Speed float64 `json:"speed"`
			Deg   float64 `json:"deg"`
		} `json:"wind"`
		Name string `json:"name"`
		Sys  struct {
			Sunrise int64 `json:"sunrise"`
			Sunset  int64 `json:"sunset"`
		} `json:"sys"`
		Visibility float64 `json:"visibility"`
	}
	if err := decodeJSON(resp, &payload); err != nil {
		return weather.WeatherSnapshot{}, err
	}

	// A reading without a condition entry is not displayable.
	if len(payload.Weather) == 0 {
		return weather.WeatherSnapshot{}, fmt.Errorf("%w: response has no weather conditions", weather.ErrParse)
	}

	return weather.WeatherSnapshot{
		Coordinates:          coords,
		FetchedAt:            p.now().UTC(),
		Temperature:          payload.Main.Temp,
		FeelsLike:            payload.Main.FeelsLike,
		HumidityPercent:      int(math.Round(payload.Main.Humidity)),
		PressureHPa:          int(math.Round(payload.Main.Pressure)),
		TempMin:              payload.Main.TempMin,
		TempMax:              payload.Main.TempMax,
		ConditionMain:        weather.ParseCondition(payload.Weather[0].Main),
		ConditionDescription: payload.Weather[0].Description,
		WindSpeedMph:         payload.Wind.Speed,
		WindDirectionDegrees: payload.Wind.Deg,
		LocationName:         payload.Name,
		SunriseEpochSeconds:  payload.Sys.Sunrise,
		SunsetEpochSeconds:   payload.Sys.Sunset,
		VisibilityMeters:     payload.Visibility,
	}, nil
}
