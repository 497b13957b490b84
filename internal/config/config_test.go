package config

import (
	"testing"
	"time"
)

var allKeys = []string{
	"OPENWEATHER_API_KEY", "OPENWEATHER_BASE_URL", "POSTAL_COUNTRY", "GEOCODER",
	"GOOGLE_GEOCODER_API_KEY", "HTTP_TIMEOUT", "LOOKUP_TIMEOUT", "DISPLAY_TIMEZONE",
	"DEVICE_LATITUDE", "DEVICE_LONGITUDE", "SESSION_MAX_AGE", "SESSION_SWEEP_INTERVAL",
	"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "PORT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.OpenWeatherAPIKey != "" {
		t.Fatalf("expected empty key, got %q", cfg.OpenWeatherAPIKey)
	}
	if cfg.OpenWeatherBaseURL != "https://api.openweathermap.org" || cfg.PostalCountry != "US" {
		t.Fatalf("unexpected upstream defaults %+v", cfg)
	}
	if cfg.Geocoder != GeocoderOpenWeather {
		t.Fatalf("geocoder = %q", cfg.Geocoder)
	}
	if cfg.HTTPTimeout != 10*time.Second || cfg.LookupTimeout != 15*time.Second {
		t.Fatalf("unexpected timeouts %v %v", cfg.HTTPTimeout, cfg.LookupTimeout)
	}
	if cfg.SessionMaxAge != 30*time.Minute || cfg.SessionSweepInterval != time.Minute {
		t.Fatalf("unexpected session settings %v %v", cfg.SessionMaxAge, cfg.SessionSweepInterval)
	}
	if cfg.HasDeviceLocation() {
		t.Fatalf("device location should be unset")
	}
	if cfg.RateLimitRPS != 5 || cfg.RateLimitBurst != 10 || cfg.Port != "8080" {
		t.Fatalf("unexpected server settings %+v", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENWEATHER_API_KEY", "  abc  ")
	t.Setenv("POSTAL_COUNTRY", "de")
	t.Setenv("DISPLAY_TIMEZONE", "UTC")
	t.Setenv("DEVICE_LATITUDE", "40.7")
	t.Setenv("DEVICE_LONGITUDE", "-73.99")
	t.Setenv("LOOKUP_TIMEOUT", "3s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wc := cfg.WeatherConfig()
	if wc.APIKey != "abc" || wc.Country != "DE" {
		t.Fatalf("unexpected weather config %+v", wc)
	}
	if cfg.DisplayTimezone != time.UTC {
		t.Fatalf("timezone = %v", cfg.DisplayTimezone)
	}
	if !cfg.HasDeviceLocation() || *cfg.DeviceLatitude != 40.7 || *cfg.DeviceLongitude != -73.99 {
		t.Fatalf("unexpected device location")
	}
	if cfg.LookupTimeout != 3*time.Second {
		t.Fatalf("lookup timeout = %v", cfg.LookupTimeout)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string][][2]string{
		"unknown geocoder":       {{"GEOCODER", "bing"}},
		"google without key":     {{"GEOCODER", "google"}},
		"bad duration":           {{"HTTP_TIMEOUT", "soon"}},
		"bad timezone":           {{"DISPLAY_TIMEZONE", "Mars/Olympus"}},
		"half a device location": {{"DEVICE_LATITUDE", "40"}},
		"latitude out of range":  {{"DEVICE_LATITUDE", "91"}, {"DEVICE_LONGITUDE", "0"}},
		"bad rps":                {{"RATE_LIMIT_RPS", "fast"}},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for _, kv := range env {
				t.Setenv(kv[0], kv[1])
			}
			if _, err := Load(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadGoogleGeocoder(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEOCODER", "Google")
	t.Setenv("GOOGLE_GEOCODER_API_KEY", "g")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Geocoder != GeocoderGoogle || cfg.GoogleGeocoderAPIKey != "g" {
		t.Fatalf("unexpected geocoder config %+v", cfg)
	}
}
