package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/i474232898/weather-lookup/internal/weather"
)

// Geocoder backends.
const (
	GeocoderOpenWeather = "openweather"
	GeocoderGoogle      = "google"
)

type AppConfig struct {
	// OpenWeatherAPIKey may be empty; lookups then fail with a configuration error.
	OpenWeatherAPIKey  string
	OpenWeatherBaseURL string

	// PostalCountry is the single country every postal code is resolved in.
	PostalCountry string

	Geocoder             string
	GoogleGeocoderAPIKey string

	HTTPTimeout   time.Duration
	LookupTimeout time.Duration

	// DisplayTimezone is used for sunrise/sunset times.
	DisplayTimezone *time.Location

	// DeviceLatitude/DeviceLongitude are nil unless both are configured.
	DeviceLatitude  *float64
	DeviceLongitude *float64

	// Session retention.
	SessionMaxAge        time.Duration
	SessionSweepInterval time.Duration

	// Inbound throttle per client IP.
	RateLimitRPS   float64
	RateLimitBurst int

	Port string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = strings.TrimSpace(os.Getenv("OPENWEATHER_API_KEY"))
	cfg.OpenWeatherBaseURL = getenvDefault("OPENWEATHER_BASE_URL", "https://api.openweathermap.org")
	cfg.PostalCountry = strings.ToUpper(getenvDefault("POSTAL_COUNTRY", weather.DefaultCountry))

	cfg.Geocoder = strings.ToLower(getenvDefault("GEOCODER", GeocoderOpenWeather))
	switch cfg.Geocoder {
	case GeocoderOpenWeather, GeocoderGoogle:
	default:
		return nil, fmt.Errorf("invalid GEOCODER %q: want %q or %q", cfg.Geocoder, GeocoderOpenWeather, GeocoderGoogle)
	}
	cfg.GoogleGeocoderAPIKey = os.Getenv("GOOGLE_GEOCODER_API_KEY")
	if cfg.Geocoder == GeocoderGoogle && cfg.GoogleGeocoderAPIKey == "" {
		return nil, fmt.Errorf("GEOCODER=google requires GOOGLE_GEOCODER_API_KEY")
	}

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.LookupTimeout, err = getenvDuration("LOOKUP_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.SessionMaxAge, err = getenvDuration("SESSION_MAX_AGE", "30m"); err != nil {
		return nil, err
	}
	if cfg.SessionSweepInterval, err = getenvDuration("SESSION_SWEEP_INTERVAL", "1m"); err != nil {
		return nil, err
	}

	tz, err := time.LoadLocation(getenvDefault("DISPLAY_TIMEZONE", "Local"))
	if err != nil {
		return nil, fmt.Errorf("invalid DISPLAY_TIMEZONE: %w", err)
	}
	cfg.DisplayTimezone = tz

	if err := loadDeviceLocation(cfg); err != nil {
		return nil, err
	}

	if cfg.RateLimitRPS, err = getenvFloat("RATE_LIMIT_RPS", 5); err != nil {
		return nil, err
	}
	cfg.RateLimitBurst = getenvInt("RATE_LIMIT_BURST", 10)

	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

// WeatherConfig is the slice of configuration injected into weather.Service.
func (c *AppConfig) WeatherConfig() weather.Config {
	return weather.Config{
		APIKey:  c.OpenWeatherAPIKey,
		Country: c.PostalCountry,
	}
}

// HasDeviceLocation reports whether a static device position is configured.
func (c *AppConfig) HasDeviceLocation() bool {
	return c.DeviceLatitude != nil && c.DeviceLongitude != nil
}

func loadDeviceLocation(cfg *AppConfig) error {
	latStr := os.Getenv("DEVICE_LATITUDE")
	lonStr := os.Getenv("DEVICE_LONGITUDE")
	if latStr == "" && lonStr == "" {
		return nil
	}
	if latStr == "" || lonStr == "" {
		return fmt.Errorf("DEVICE_LATITUDE and DEVICE_LONGITUDE must be set together")
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil || lat < -90 || lat > 90 {
		return fmt.Errorf("invalid DEVICE_LATITUDE %q", latStr)
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil || lon < -180 || lon > 180 {
		return fmt.Errorf("invalid DEVICE_LONGITUDE %q", lonStr)
	}
	cfg.DeviceLatitude = &lat
	cfg.DeviceLongitude = &lon
	return nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
