package di

import (
	"time"

	"github.com/icecave/forwardcore/src/ratelimit"
)

// RateLimiter returns the shared per-client rate limiter, or nil if the
// configuration disables rate limiting (RateLimitRequestsPerSecond <= 0).
func (con *Container) RateLimiter() *ratelimit.Limiter {
	config := con.Config()
	if config.RateLimitRequestsPerSecond <= 0 {
		return nil
	}

	var limiter *ratelimit.Limiter
	result := con.get(
		"ratelimit.limiter",
		func() (interface{}, error) {
			limiter = ratelimit.New(config.RateLimitRequestsPerSecond, config.RateLimitBurst, 10*time.Minute)
			return limiter, nil
		},
		func() error {
			limiter.Close()
			return nil
		},
	)
	return result.(*ratelimit.Limiter)
}
