package scheduler

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// DefaultInterval is used when no positive sweep interval is configured.
const DefaultInterval = time.Minute

// Evictor removes idle sessions and reports how many it removed.
type Evictor interface {
	EvictIdle() int
}

// Scheduler periodically tears down idle sessions.
type Scheduler struct {
	scheduler *gocron.Scheduler
	evictor   Evictor
	interval  time.Duration
}

// New creates a new Scheduler.
func New(evictor Evictor, interval time.Duration) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		scheduler: s,
		evictor:   evictor,
		interval:  interval,
	}
}

// Start schedules the sweep job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(s.interval).WaitForSchedule().Do(s.sweep)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) sweep() {
	if n := s.evictor.EvictIdle(); n > 0 {
		log.Printf("scheduler: evicted %d idle sessions", n)
	}
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
