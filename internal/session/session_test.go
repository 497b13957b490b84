package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/i474232898/weather-lookup/internal/display"
	"github.com/i474232898/weather-lookup/internal/weather"
)

type fakeResolver struct {
	mu      sync.Mutex
	zips    []string
	located int

	byZip    map[string]weather.WeatherSnapshot
	zipErr   error
	device   weather.WeatherSnapshot
	deviceFn func(ctx context.Context) (weather.WeatherSnapshot, error)

	// when set, the lookup for that zip waits until the channel is closed
	block map[string]chan struct{}
}

func (f *fakeResolver) ResolveByPostalCode(ctx context.Context, code string) (weather.WeatherSnapshot, error) {
	f.mu.Lock()
	f.zips = append(f.zips, code)
	wait := f.block[code]
	f.mu.Unlock()

	if wait != nil {
		<-wait
	}
	if f.zipErr != nil {
		return weather.WeatherSnapshot{}, f.zipErr
	}
	return f.byZip[code], nil
}

func (f *fakeResolver) ResolveByDeviceLocation(ctx context.Context, src weather.LocationSource) (weather.WeatherSnapshot, error) {
	f.mu.Lock()
	f.located++
	f.mu.Unlock()

	if f.deviceFn != nil {
		return f.deviceFn(ctx)
	}
	if _, err := src.RequestLocation(ctx); err != nil {
		return weather.WeatherSnapshot{}, err
	}
	return f.device, nil
}

func (f *fakeResolver) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.zips) + f.located
}

type denySource struct{}

func (denySource) RequestLocation(context.Context) (weather.Coordinates, error) {
	return weather.Coordinates{}, fmt.Errorf("%w: no", weather.ErrPermissionDenied)
}

type fixedSource struct{}

func (fixedSource) RequestLocation(context.Context) (weather.Coordinates, error) {
	return weather.Coordinates{Latitude: 1, Longitude: 2}, nil
}

var newYork = weather.WeatherSnapshot{
	Temperature:          72.3,
	FeelsLike:            71.6,
	HumidityPercent:      48,
	PressureHPa:          1016,
	ConditionMain:        weather.ConditionClear,
	ConditionDescription: "clear sky",
	WindDirectionDegrees: 230,
	LocationName:         "New York",
	VisibilityMeters:     16093.4,
}

var seattle = weather.WeatherSnapshot{
	Temperature:   51,
	ConditionMain: weather.ConditionRain,
	LocationName:  "Seattle",
}

func TestSubmitShowsWeather(t *testing.T) {
	r := &fakeResolver{byZip: map[string]weather.WeatherSnapshot{"10001": newYork}}
	s := New("s1", r, Options{})

	v := s.Submit(context.Background(), "Ana", "10001")

	if v.Error != "" || v.Loading {
		t.Fatalf("unexpected state %+v", v)
	}
	if v.Weather == nil {
		t.Fatalf("expected weather card")
	}
	if v.Weather.Welcome != "Welcome, Ana! Here's your weather in New York:" {
		t.Fatalf("welcome = %q", v.Weather.Welcome)
	}
	if v.Weather.Temperature != "72°F" || v.Background != display.Background(weather.ConditionClear) {
		t.Fatalf("unexpected card %+v", v.Weather)
	}
	if snap, ok := s.Snapshot(); !ok || snap.LocationName != "New York" {
		t.Fatalf("snapshot not stored: %+v %v", snap, ok)
	}
}

func TestSubmitValidation(t *testing.T) {
	cases := []struct {
		name, zip, want string
	}{
		{"", "10001", weather.MsgEnterName},
		{"   ", "10001", weather.MsgEnterName},
		{"Ana", "", weather.MsgEnterZip},
		{"Ana", "1234", weather.MsgInvalidZip},
		{"Ana", "10001-1234", weather.MsgInvalidZip},
	}
	for _, tc := range cases {
		r := &fakeResolver{}
		s := New("s", r, Options{})
		v := s.Submit(context.Background(), tc.name, tc.zip)
		if v.Error != tc.want {
			t.Errorf("Submit(%q, %q) error = %q, want %q", tc.name, tc.zip, v.Error, tc.want)
		}
		if v.Loading || v.Weather != nil {
			t.Errorf("Submit(%q, %q) unexpected state %+v", tc.name, tc.zip, v)
		}
		if r.calls() != 0 {
			t.Errorf("Submit(%q, %q) reached the resolver", tc.name, tc.zip)
		}
	}
}

func TestSubmitFailureClearsPreviousWeather(t *testing.T) {
	r := &fakeResolver{byZip: map[string]weather.WeatherSnapshot{"10001": newYork}}
	s := New("s", r, Options{})
	s.Submit(context.Background(), "Ana", "10001")

	r.zipErr = weather.NewError(weather.ErrNotFound, weather.MsgZipNotFound)
	v := s.Submit(context.Background(), "Ana", "00000")

	if v.Error != weather.MsgZipNotFound {
		t.Fatalf("error = %q", v.Error)
	}
	if v.Weather != nil || v.Loading {
		t.Fatalf("stale weather kept: %+v", v)
	}
	if _, ok := s.Snapshot(); ok {
		t.Fatalf("snapshot kept after failure")
	}
}

func TestResetKeepsName(t *testing.T) {
	r := &fakeResolver{byZip: map[string]weather.WeatherSnapshot{"10001": newYork}}
	s := New("s", r, Options{})
	s.Submit(context.Background(), "Ana", "10001")

	v := s.Reset()
	if v.Name != "Ana" {
		t.Fatalf("name = %q", v.Name)
	}
	if v.Zip != "" || v.Error != "" || v.Weather != nil || v.Loading {
		t.Fatalf("unexpected state after reset %+v", v)
	}
}

func TestStaleResultIsDropped(t *testing.T) {
	slow := make(chan struct{})
	r := &fakeResolver{
		byZip: map[string]weather.WeatherSnapshot{"10001": newYork, "98101": seattle},
		block: map[string]chan struct{}{"10001": slow},
	}
	s := New("s", r, Options{})

	first := make(chan View)
	go func() { first <- s.Submit(context.Background(), "Ana", "10001") }()

	waitFor(t, func() bool { return s.View().Loading })

	v := s.Submit(context.Background(), "Ana", "98101")
	if v.Weather == nil || v.Weather.LocationName != "Seattle" {
		t.Fatalf("expected Seattle, got %+v", v.Weather)
	}

	close(slow)
	<-first

	v = s.View()
	if v.Weather == nil || v.Weather.LocationName != "Seattle" {
		t.Fatalf("late New York result overwrote the screen: %+v", v.Weather)
	}
	if v.Loading {
		t.Fatalf("loading left on by the stale lookup")
	}
}

func TestResetDropsInFlightResult(t *testing.T) {
	slow := make(chan struct{})
	r := &fakeResolver{
		byZip: map[string]weather.WeatherSnapshot{"10001": newYork},
		block: map[string]chan struct{}{"10001": slow},
	}
	s := New("s", r, Options{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Submit(context.Background(), "Ana", "10001")
	}()
	waitFor(t, func() bool { return s.View().Loading })

	s.Reset()
	close(slow)
	<-done

	if v := s.View(); v.Weather != nil || v.Loading {
		t.Fatalf("result applied after reset: %+v", v)
	}
}

func TestCloseDiscardsAsyncResult(t *testing.T) {
	release := make(chan struct{})
	r := &fakeResolver{
		deviceFn: func(ctx context.Context) (weather.WeatherSnapshot, error) {
			<-release
			return newYork, nil
		},
	}
	s := New("s", r, Options{})
	done := s.LocateAsync(fixedSource{}, false)

	s.Close()
	close(release)
	<-done

	if s.Alive() {
		t.Fatalf("session still alive")
	}
	if v := s.View(); v.Weather != nil {
		t.Fatalf("closed session was updated: %+v", v)
	}
}

func TestCloseCancelsLookup(t *testing.T) {
	r := &fakeResolver{
		deviceFn: func(ctx context.Context) (weather.WeatherSnapshot, error) {
			<-ctx.Done()
			return weather.WeatherSnapshot{}, ctx.Err()
		},
	}
	s := New("s", r, Options{})
	done := s.LocateAsync(fixedSource{}, false)

	s.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("lookup not cancelled by Close")
	}
}

func TestLookupTimeoutReleasesLoading(t *testing.T) {
	r := &fakeResolver{
		deviceFn: func(ctx context.Context) (weather.WeatherSnapshot, error) {
			<-ctx.Done()
			return weather.WeatherSnapshot{}, ctx.Err()
		},
	}
	s := New("s", r, Options{LookupTimeout: 10 * time.Millisecond})

	v := s.UseLocation(context.Background(), "Ana", fixedSource{})
	if v.Loading {
		t.Fatalf("loading still set after timeout")
	}
	if v.Error != weather.MsgWeatherFailed {
		t.Fatalf("error = %q", v.Error)
	}
}

func TestUseLocation(t *testing.T) {
	r := &fakeResolver{device: seattle}
	s := New("s", r, Options{})

	v := s.UseLocation(context.Background(), "", fixedSource{})
	if v.Weather == nil || v.Weather.Welcome != "Here's your weather in Seattle:" {
		t.Fatalf("unexpected card %+v", v.Weather)
	}

	v = s.UseLocation(context.Background(), "Ana", denySource{})
	if v.Error != weather.MsgLocationDenied || v.Weather != nil {
		t.Fatalf("unexpected state %+v", v)
	}
	if v.Name != "Ana" {
		t.Fatalf("name = %q", v.Name)
	}
}

func TestQuietLocateLeavesScreenAlone(t *testing.T) {
	r := &fakeResolver{}
	s := New("s", r, Options{})

	<-s.LocateAsync(denySource{}, true)

	v := s.View()
	if v.Error != "" || v.Loading || v.Weather != nil {
		t.Fatalf("quiet failure changed the screen: %+v", v)
	}
}

func TestQuietLocateKeepsErrorAndWeather(t *testing.T) {
	r := &fakeResolver{}
	s := New("s", r, Options{})

	s.Submit(context.Background(), "Ana", "123")
	<-s.LocateAsync(denySource{}, true)
	if v := s.View(); v.Error != weather.MsgInvalidZip || v.Loading {
		t.Fatalf("quiet failure replaced the error line: %+v", v)
	}

	r.byZip = map[string]weather.WeatherSnapshot{"10001": newYork}
	s.Submit(context.Background(), "Ana", "10001")
	<-s.LocateAsync(denySource{}, true)
	v := s.View()
	if v.Weather == nil || v.Weather.LocationName != "New York" || v.Error != "" {
		t.Fatalf("quiet failure changed the weather: %+v", v)
	}
}

func TestLocateAsyncShowsWeather(t *testing.T) {
	r := &fakeResolver{device: seattle}
	s := New("s", r, Options{})

	<-s.LocateAsync(fixedSource{}, true)

	v := s.View()
	if v.Weather == nil || v.Weather.LocationName != "Seattle" {
		t.Fatalf("unexpected state %+v", v)
	}
	if v.Background != display.Background(weather.ConditionRain) {
		t.Fatalf("background = %q", v.Background)
	}
}

func TestValidationFailureSupersedesLookup(t *testing.T) {
	slow := make(chan struct{})
	r := &fakeResolver{
		byZip: map[string]weather.WeatherSnapshot{"10001": newYork},
		block: map[string]chan struct{}{"10001": slow},
	}
	s := New("s", r, Options{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Submit(context.Background(), "Ana", "10001")
	}()
	waitFor(t, func() bool { return s.View().Loading })

	v := s.Submit(context.Background(), "Ana", "123")
	if v.Loading || v.Error != weather.MsgInvalidZip {
		t.Fatalf("unexpected state %+v", v)
	}

	close(slow)
	<-done
	if v := s.View(); v.Weather != nil || v.Error != weather.MsgInvalidZip {
		t.Fatalf("superseded result applied: %+v", v)
	}
}

func TestGenerationAdvances(t *testing.T) {
	r := &fakeResolver{zipErr: errors.New("boom")}
	s := New("s", r, Options{})

	g0 := s.View().Generation
	s.Submit(context.Background(), "Ana", "10001")
	g1 := s.View().Generation
	s.Reset()
	g2 := s.View().Generation
	if !(g0 < g1 && g1 < g2) {
		t.Fatalf("generation did not advance: %d %d %d", g0, g1, g2)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}
