package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

const (
	limiterSweepInterval = 3 * time.Minute
	limiterStaleAfter    = 5 * time.Minute
)

// clientLimiter holds a rate limiter and the last time it was seen.
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter provides per-IP token-bucket rate limiting for an endpoint
// group. Each auth endpoint group gets its own instance so a flood of
// login attempts cannot starve the other screens.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*clientLimiter
	rate     rate.Limit
	burst    int
}

// NewRateLimiter creates a new per-IP rate limiter.
func NewRateLimiter(r rate.Limit, burst int) *RateLimiter {
	rl := &RateLimiter{
		limiters: make(map[string]*clientLimiter),
		rate:     r,
		burst:    burst,
	}
	go rl.sweepLoop()
	return rl
}

// limiterFor returns the rate limiter for the given IP, creating one if
// needed.
func (rl *RateLimiter) limiterFor(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if l, exists := rl.limiters[ip]; exists {
		l.lastSeen = time.Now()
		return l.limiter
	}

	limiter := rate.NewLimiter(rl.rate, rl.burst)
	rl.limiters[ip] = &clientLimiter{limiter: limiter, lastSeen: time.Now()}
	return limiter
}

// sweepLoop drops limiters for IPs not seen recently.
func (rl *RateLimiter) sweepLoop() {
	ticker := time.NewTicker(limiterSweepInterval)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		for ip, l := range rl.limiters {
			if time.Since(l.lastSeen) > limiterStaleAfter {
				delete(rl.limiters, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// Middleware returns an Echo middleware that enforces the rate limit.
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			limiter := rl.limiterFor(c.RealIP())

			if !limiter.Allow() {
				retryAfter := max(int(1.0/float64(rl.rate)), 1)
				c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}

			return next(c)
		}
	}
}
