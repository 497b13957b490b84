package weather

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// DefaultCountry is the country postal codes are interpreted in unless configured otherwise.
const DefaultCountry = "US"

// Config is the injected lookup configuration. APIKey is the OpenWeather credential;
// an empty key makes every lookup fail with ErrConfig before any network call.
type Config struct {
	APIKey  string
	Country string
}

// Service resolves user input (postal code, coordinates or device location)
// into a current WeatherSnapshot.
type Service struct {
	cfg      Config
	geocoder Geocoder
	current  CurrentProvider
}

// NewService creates a new Service.
func NewService(cfg Config, geocoder Geocoder, current CurrentProvider) *Service {
	if cfg.Country == "" {
		cfg.Country = DefaultCountry
	}
	return &Service{
		cfg:      cfg,
		geocoder: geocoder,
		current:  current,
	}
}

// Country returns the fixed geocoding country.
func (s *Service) Country() string {
	return s.cfg.Country
}

func (s *Service) checkCredential() error {
	if strings.TrimSpace(s.cfg.APIKey) == "" {
		return NewError(ErrConfig, MsgMissingAPIKey)
	}
	return nil
}

// GeocodePostalCode validates code and resolves it to coordinates.
func (s *Service) GeocodePostalCode(ctx context.Context, code string) (GeocodeResult, error) {
	if err := ValidatePostalCode(code); err != nil {
		return GeocodeResult{}, err
	}
	if err := s.checkCredential(); err != nil {
		return GeocodeResult{}, err
	}
	if s.geocoder == nil {
		return GeocodeResult{}, fmt.Errorf("%w: no geocoder configured", ErrConfig)
	}

	res, err := s.geocoder.GeocodePostalCode(ctx, code, s.cfg.Country)
	if err != nil {
		log.Printf("DEBUG: geocoder %s failed for %s,%s: %v", s.geocoder.Name(), code, s.cfg.Country, err)
		return GeocodeResult{}, err
	}
	return res, nil
}

// ResolveByPostalCode runs validate -> geocode -> fetch weather.
func (s *Service) ResolveByPostalCode(ctx context.Context, code string) (WeatherSnapshot, error) {
	geo, err := s.GeocodePostalCode(ctx, code)
	if err != nil {
		return WeatherSnapshot{}, err
	}
	return s.ResolveByCoordinates(ctx, geo.Latitude, geo.Longitude)
}

// ResolveByCoordinates fetches current conditions for lat/lon.
func (s *Service) ResolveByCoordinates(ctx context.Context, lat, lon float64) (WeatherSnapshot, error) {
	if err := s.checkCredential(); err != nil {
		return WeatherSnapshot{}, err
	}
	if s.current == nil {
		return WeatherSnapshot{}, fmt.Errorf("%w: no weather provider configured", ErrConfig)
	}

	coords := Coordinates{Latitude: lat, Longitude: lon}
	snap, err := s.current.CurrentByCoordinates(ctx, coords)
	if err != nil {
		log.Printf("DEBUG: provider %s failed for %.4f,%.4f: %v", s.current.Name(), lat, lon, err)
		return WeatherSnapshot{}, err
	}
	return snap, nil
}

// ResolveByDeviceLocation asks src for coordinates and fetches weather for them.
func (s *Service) ResolveByDeviceLocation(ctx context.Context, src LocationSource) (WeatherSnapshot, error) {
	if src == nil {
		return WeatherSnapshot{}, NewError(ErrLocationUnavailable, MsgLocationNotFound)
	}
	coords, err := src.RequestLocation(ctx)
	if err != nil {
		return WeatherSnapshot{}, err
	}
	return s.ResolveByCoordinates(ctx, coords.Latitude, coords.Longitude)
}
