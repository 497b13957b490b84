package weather

import (
	"context"
)

// Geocoder resolves a postal code within a fixed country to coordinates
// (e.g. OpenWeather's zip endpoint, Google geocoding).
type Geocoder interface {
	Name() string
	GeocodePostalCode(ctx context.Context, code, country string) (GeocodeResult, error)
}

// CurrentProvider fetches current conditions for a point, in imperial units.
type CurrentProvider interface {
	Name() string
	CurrentByCoordinates(ctx context.Context, coords Coordinates) (WeatherSnapshot, error)
}

// LocationSource abstracts the device-location capability. It yields coordinates,
// or fails with ErrPermissionDenied / ErrLocationUnavailable.
type LocationSource interface {
	RequestLocation(ctx context.Context) (Coordinates, error)
}
