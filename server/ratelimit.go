package server

import "golang.org/x/time/rate"

// RateLimiter bounds tool calls with a token bucket.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a limiter allowing perSecond calls with the given
// burst. A perSecond of 0 or less means unlimited; a burst below 1 is
// raised to 1.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	rl := &RateLimiter{}
	if perSecond > 0 {
		rl.limiter = rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
	}
	return rl
}

// Allow reports whether a call may proceed now without waiting.
func (rl *RateLimiter) Allow() bool {
	if rl == nil || rl.limiter == nil {
		return true
	}
	return rl.limiter.Allow()
}
