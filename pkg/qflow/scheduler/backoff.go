package scheduler

import (
	"time"

	"golang.org/x/time/rate"
)

// Backoff implements spec.md §5's geometrically-backed-off timer for
// display-size re-measurement: factor 1.3, capped at 11 rounds, after
// which the caller should stop retrying and accept the last measured
// value.
type Backoff struct {
	base   time.Duration
	factor float64
	round  int
	maxRounds int
}

// NewBackoff creates a Backoff starting at base with the documented
// factor (1.3) and round cap (11).
func NewBackoff(base time.Duration) *Backoff {
	return &Backoff{base: base, factor: 1.3, maxRounds: 11}
}

// Next returns the delay for the next round and whether the caller
// should still retry (false once maxRounds has been reached).
func (b *Backoff) Next() (delay time.Duration, retry bool) {
	if b.round >= b.maxRounds {
		return 0, false
	}
	mult := 1.0
	for i := 0; i < b.round; i++ {
		mult *= b.factor
	}
	b.round++
	return time.Duration(float64(b.base) * mult), true
}

// Reset restarts the round counter, e.g. once a measurement has
// settled and a fresh remeasure cycle begins.
func (b *Backoff) Reset() { b.round = 0 }

// RescheduleLimiter rate-limits how fast a reschedule storm (repeated
// SubmitForBlock calls for the same id, e.g. from gContentPositionCycleCount-
// style feedback) can resubmit work, independent of the cycle-loop
// guard's hard cap.
type RescheduleLimiter struct {
	limiter *rate.Limiter
}

// NewRescheduleLimiter allows up to ratePerSecond reschedules per
// second, with a burst of burst.
func NewRescheduleLimiter(ratePerSecond float64, burst int) *RescheduleLimiter {
	return &RescheduleLimiter{limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst)}
}

// Allow reports whether a reschedule may proceed right now.
func (r *RescheduleLimiter) Allow() bool { return r.limiter.Allow() }
