package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/i474232898/weather-lookup/internal/common"
	"github.com/i474232898/weather-lookup/internal/weather"
	"github.com/kelvins/geocoder"
	"github.com/sony/gobreaker"
)

// GoogleGeocoder resolves postal codes with the Google Geocoding API.
type GoogleGeocoder struct {
	name    string
	apiKey  string
	circuit *gobreaker.CircuitBreaker

	// lookup is geocoder.Geocoding, swappable in tests.
	lookup func(geocoder.Address) (geocoder.Location, error)
}

// NewGoogleGeocoder sets the library's package-level key; a process runs with one key.
func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	if apiKey != "" {
		geocoder.ApiKey = apiKey
	}
	return &GoogleGeocoder{
		name:    "google",
		apiKey:  apiKey,
		circuit: newCircuitBreaker("google-geocoder"),
		lookup:  geocoder.Geocoding,
	}
}

func (g *GoogleGeocoder) Name() string {
	return g.name
}

// GeocodePostalCode implements weather.Geocoder.
func (g *GoogleGeocoder) GeocodePostalCode(ctx context.Context, code, country string) (weather.GeocodeResult, error) {
	if g.apiKey == "" {
		return weather.GeocodeResult{}, fmt.Errorf("%w: google geocoder api key is not configured", weather.ErrConfig)
	}

	type outcome struct {
		loc geocoder.Location
		err error
	}
	addr := geocoder.Address{PostalCode: code, Country: country}

	// The library is not context aware and its HTTP client has no timeout. The
	// wait happens inside the breaker so hung calls count as failures.
	result, err := g.circuit.Execute(func() (interface{}, error) {
		done := make(chan outcome, 1)
		go func() {
			loc, err := g.lookup(addr)
			done <- outcome{loc: loc, err: err}
		}()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case out := <-done:
			if out.err != nil {
				return nil, classifyGoogleError(out.err)
			}
			return out.loc, nil
		}
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return weather.GeocodeResult{}, fmt.Errorf("%w: %w", weather.ErrAPI, errCircuitOpen)
		}
		return weather.GeocodeResult{}, err
	}

	loc := result.(geocoder.Location)
	if loc.Latitude == 0 && loc.Longitude == 0 {
		return weather.GeocodeResult{}, weather.NewError(weather.ErrNotFound, weather.MsgZipNotFound)
	}

	return weather.GeocodeResult{
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
	}, nil
}

// classifyGoogleError maps Google status strings onto the lookup taxonomy.
func classifyGoogleError(err error) error {
	msg := err.Error()
	switch {
	case common.HasAny(msg, "ZERO_RESULTS"):
		return weather.NewError(weather.ErrNotFound, weather.MsgZipNotFound)
	case common.HasAny(msg, "REQUEST_DENIED", "INVALID_REQUEST"):
		return &weather.APIError{Status: 400, Message: weather.MsgGeocodeFailed}
	default:
		return &weather.APIError{Status: 502, Message: weather.MsgGeocodeFailed}
	}
}
