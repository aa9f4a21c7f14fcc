package ratelimiter

import (
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Throttle decides whether a repeated event should be reported.
//
// It wraps a token bucket from golang.org/x/time/rate. Events that find the
// bucket empty are counted instead of reported, and the count is handed to
// the caller with the next event that is allowed through, so a log line can
// say how many similar reports were dropped.
//
// Throttle only gates reporting. Callers keep doing whatever work caused the
// event; nothing here sleeps or waits.
//
// Thread safety:
// All methods are safe for concurrent use.
type Throttle struct {
	limiter    *rate.Limiter
	suppressed atomic.Uint64
}

// New creates a Throttle allowing perSecond reports per second with the
// given burst.
//
// perSecond = 0 disables throttling: every event is reported.
func New(perSecond float64, burst int) *Throttle {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}

	return &Throttle{
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Allow reports whether the current event should be reported.
//
// When it returns true, suppressed is the number of events dropped since the
// last allowed one, and the counter is reset.
func (t *Throttle) Allow() (ok bool, suppressed uint64) {
	return t.AllowAt(time.Now())
}

// AllowAt is Allow with an explicit clock, used by tests.
func (t *Throttle) AllowAt(now time.Time) (ok bool, suppressed uint64) {
	if !t.limiter.AllowN(now, 1) {
		t.suppressed.Add(1)
		return false, 0
	}
	return true, t.suppressed.Swap(0)
}

// Suppressed returns the number of events dropped since the last allowed one.
func (t *Throttle) Suppressed() uint64 {
	return t.suppressed.Load()
}
