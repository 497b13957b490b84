// Package session holds the per-client screen state of the lookup flow: entered
// name and zip, the loading flag, the error line and the current weather card.
package session

import (
	"context"
	"log"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/i474232898/weather-lookup/internal/display"
	"github.com/i474232898/weather-lookup/internal/weather"
)

// DefaultLookupTimeout bounds one complete lookup flow.
const DefaultLookupTimeout = 15 * time.Second

// Resolver is the lookup capability a session drives.
type Resolver interface {
	ResolveByPostalCode(ctx context.Context, code string) (weather.WeatherSnapshot, error)
	ResolveByDeviceLocation(ctx context.Context, src weather.LocationSource) (weather.WeatherSnapshot, error)
}

// Options configure a Session.
type Options struct {
	// Timezone used for sunrise/sunset; UTC when nil.
	Timezone *time.Location
	// LookupTimeout bounds each lookup; DefaultLookupTimeout when zero.
	LookupTimeout time.Duration
}

// View is the externally visible state of a session.
type View struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Zip        string        `json:"zip"`
	Loading    bool          `json:"loading"`
	Error      string        `json:"error,omitempty"`
	Background string        `json:"background"`
	Weather    *display.Card `json:"weather,omitempty"`
	Generation uint64        `json:"generation"`
}

// Session is one client's lookup screen. Only the response belonging to the
// latest generation may change what is displayed.
type Session struct {
	id       string
	resolver Resolver
	opts     Options
	now      func() time.Time

	generation *atomic.Uint64
	alive      *atomic.Bool

	mu         sync.Mutex
	name       string
	zip        string
	loading    bool
	errMsg     string
	snapshot   *weather.WeatherSnapshot
	card       *display.Card
	cancel     context.CancelFunc
	lastActive time.Time
}

// New creates a live session.
func New(id string, resolver Resolver, opts Options) *Session {
	if opts.LookupTimeout <= 0 {
		opts.LookupTimeout = DefaultLookupTimeout
	}
	if opts.Timezone == nil {
		opts.Timezone = time.UTC
	}
	s := &Session{
		id:         id,
		resolver:   resolver,
		opts:       opts,
		now:        time.Now,
		generation: atomic.NewUint64(0),
		alive:      atomic.NewBool(true),
	}
	s.lastActive = s.now()
	return s
}

func (s *Session) ID() string { return s.id }

// Alive reports whether the session has not been closed.
func (s *Session) Alive() bool { return s.alive.Load() }

// LastActive returns when the client last touched the session.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// View returns a snapshot of the screen state.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Snapshot returns the raw reading behind the current card, if any.
func (s *Session) Snapshot() (weather.WeatherSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot == nil {
		return weather.WeatherSnapshot{}, false
	}
	return *s.snapshot, true
}

func (s *Session) viewLocked() View {
	v := View{
		ID:         s.id,
		Name:       s.name,
		Zip:        s.zip,
		Loading:    s.loading,
		Error:      s.errMsg,
		Background: display.Background(weather.ConditionClear),
		Generation: s.generation.Load(),
	}
	if s.card != nil {
		card := *s.card
		v.Weather = &card
		v.Background = card.Background
	}
	return v
}

// Submit runs the name + zip flow. Input problems are reported without any lookup.
func (s *Session) Submit(ctx context.Context, name, zip string) View {
	s.mu.Lock()
	s.lastActive = s.now()
	s.name = name
	s.zip = zip

	err := weather.ValidateName(name)
	if err == nil {
		err = weather.ValidatePostalCode(zip)
	}
	if err != nil {
		s.supersedeLocked()
		s.failLocked(err)
		v := s.viewLocked()
		s.mu.Unlock()
		return v
	}

	gen, lookupCtx := s.beginLocked(ctx)
	s.mu.Unlock()

	s.run(lookupCtx, gen, func(ctx context.Context) (weather.WeatherSnapshot, error) {
		return s.resolver.ResolveByPostalCode(ctx, zip)
	}, false)

	return s.View()
}

// UseLocation runs the device-location flow synchronously with src. An empty
// name leaves the stored name unchanged.
func (s *Session) UseLocation(ctx context.Context, name string, src weather.LocationSource) View {
	s.mu.Lock()
	s.lastActive = s.now()
	if name != "" {
		s.name = name
	}
	gen, lookupCtx := s.beginLocked(ctx)
	s.mu.Unlock()

	s.run(lookupCtx, gen, func(ctx context.Context) (weather.WeatherSnapshot, error) {
		return s.resolver.ResolveByDeviceLocation(ctx, src)
	}, false)

	return s.View()
}

// LocateAsync queries src on its own goroutine and returns immediately. With
// quiet set, a failure is only logged and the error line and weather are left
// as they were. The returned channel is closed once the attempt has finished.
func (s *Session) LocateAsync(src weather.LocationSource, quiet bool) <-chan struct{} {
	done := make(chan struct{})

	s.mu.Lock()
	s.lastActive = s.now()
	prevErr := s.errMsg
	gen, lookupCtx := s.beginLocked(context.Background())
	if quiet {
		s.errMsg = prevErr
	}
	s.mu.Unlock()

	go func() {
		defer close(done)
		s.run(lookupCtx, gen, func(ctx context.Context) (weather.WeatherSnapshot, error) {
			return s.resolver.ResolveByDeviceLocation(ctx, src)
		}, quiet)
	}()
	return done
}

// Reset is "search again": it clears the weather, the zip and the error line,
// keeps the name, and drops whatever lookup is still in flight.
func (s *Session) Reset() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastActive = s.now()
	s.supersedeLocked()
	s.snapshot = nil
	s.card = nil
	s.zip = ""
	s.errMsg = ""
	return s.viewLocked()
}

// Close tears the session down. Late results are discarded.
func (s *Session) Close() {
	if !s.alive.CAS(true, false) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.supersedeLocked()
}

// supersedeLocked invalidates the in-flight lookup, if any, without starting a new one.
func (s *Session) supersedeLocked() {
	s.generation.Inc()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.loading = false
}

// beginLocked supersedes any in-flight lookup and starts a new generation.
func (s *Session) beginLocked(parent context.Context) (uint64, context.Context) {
	if s.cancel != nil {
		s.cancel()
	}
	gen := s.generation.Inc()
	ctx, cancel := context.WithTimeout(parent, s.opts.LookupTimeout)
	s.cancel = cancel
	s.loading = true
	s.errMsg = ""
	return gen, ctx
}

func (s *Session) run(
	ctx context.Context,
	gen uint64,
	lookup func(context.Context) (weather.WeatherSnapshot, error),
	quiet bool,
) {
	defer s.release(gen)

	snap, err := lookup(ctx)

	if !s.alive.Load() {
		log.Printf("DEBUG: session %s closed; dropping lookup result", s.id)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation.Load() {
		log.Printf("DEBUG: session %s: dropping stale result of generation %d", s.id, gen)
		return
	}
	if err != nil {
		if quiet {
			log.Printf("INFO: session %s: location lookup failed: %v", s.id, err)
			return
		}
		s.failLocked(err)
		return
	}

	card := display.NewCard(s.name, snap, s.opts.Timezone)
	s.snapshot = &snap
	s.card = &card
	s.errMsg = ""
}

// release clears the loading flag if gen still owns it. Runs on every exit path.
func (s *Session) release(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation.Load() {
		return
	}
	s.loading = false
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// failLocked shows err and clears any weather left from before.
func (s *Session) failLocked(err error) {
	s.errMsg = weather.UserMessage(err)
	s.snapshot = nil
	s.card = nil
}
