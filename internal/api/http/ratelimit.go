package httpapi

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

// clientLimiter is a token bucket for one client IP.
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles inbound requests per client IP.
type RateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientLimiter
	rps       float64
	burst     int
	expiry    time.Duration
	lastPrune time.Time
	now       func() time.Time
}

// NewRateLimiter allows rps requests per second per IP with bursts up to burst.
// A non-positive rps disables limiting.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		clients: make(map[string]*clientLimiter),
		rps:     rps,
		burst:   burst,
		expiry:  10 * time.Minute,
		now:     time.Now,
	}
}

// Allow reports whether a request from ip may proceed now.
func (r *RateLimiter) Allow(ip string) bool {
	if r.rps <= 0 {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	cl, ok := r.clients[ip]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rate.Limit(r.rps), r.burst)}
		r.clients[ip] = cl
	}
	cl.lastSeen = now

	// Forget clients that went quiet, at most once per expiry period.
	if now.Sub(r.lastPrune) >= r.expiry {
		for k, v := range r.clients {
			if now.Sub(v.lastSeen) > r.expiry {
				delete(r.clients, k)
			}
		}
		r.lastPrune = now
	}

	return cl.limiter.AllowN(now, 1)
}

// Handler is the Fiber middleware.
func (r *RateLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !r.Allow(c.IP()) {
			return fiber.NewError(fiber.StatusTooManyRequests, "too many requests")
		}
		return c.Next()
	}
}
