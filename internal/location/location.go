// Package location provides weather.LocationSource implementations: a static
// device position from configuration and a position reported by the client platform.
package location

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/i474232898/weather-lookup/internal/weather"
)

// Static is the host device position. A nil position means the capability was
// never granted.
type Static struct {
	coords *weather.Coordinates
}

// NewStatic returns a source yielding lat/lon.
func NewStatic(lat, lon float64) *Static {
	return &Static{coords: &weather.Coordinates{Latitude: lat, Longitude: lon}}
}

// Denied returns a source that always refuses.
func Denied() *Static {
	return &Static{}
}

func (s *Static) RequestLocation(ctx context.Context) (weather.Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return weather.Coordinates{}, fmt.Errorf("%w: %v", weather.ErrLocationUnavailable, err)
	}
	if s == nil || s.coords == nil {
		return weather.Coordinates{}, fmt.Errorf("%w: no device location configured", weather.ErrPermissionDenied)
	}
	if err := validate(*s.coords); err != nil {
		return weather.Coordinates{}, err
	}
	return *s.coords, nil
}

// Reported is the outcome of the client's own platform location request.
type Reported struct {
	Latitude  *float64
	Longitude *float64
	Denied    bool
	Error     string
}

func (r Reported) RequestLocation(ctx context.Context) (weather.Coordinates, error) {
	switch {
	case r.Denied:
		return weather.Coordinates{}, fmt.Errorf("%w: refused by client", weather.ErrPermissionDenied)
	case strings.TrimSpace(r.Error) != "":
		return weather.Coordinates{}, fmt.Errorf("%w: %s", weather.ErrLocationUnavailable, r.Error)
	case r.Latitude == nil || r.Longitude == nil:
		return weather.Coordinates{}, fmt.Errorf("%w: client sent no coordinates", weather.ErrLocationUnavailable)
	}

	c := weather.Coordinates{Latitude: *r.Latitude, Longitude: *r.Longitude}
	if err := validate(c); err != nil {
		return weather.Coordinates{}, err
	}
	return c, nil
}

func validate(c weather.Coordinates) error {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) ||
		c.Latitude < -90 || c.Latitude > 90 || c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("%w: coordinates out of range (%v, %v)", weather.ErrLocationUnavailable, c.Latitude, c.Longitude)
	}
	return nil
}
