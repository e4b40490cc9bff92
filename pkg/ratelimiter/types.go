package ratelimiter

import "time"

// Result contains the result of a rate limit check.
type Result struct {
	Limit     int       // bucket capacity
	Remaining int       // negative when the request was denied
	ResetAt   time.Time // next refill
}

// Allowed returns whether the request is allowed based on remaining tokens.
func (r *Result) Allowed() bool {
	return r.Remaining >= 0
}

// RetryAfter returns how long to wait before the next request.
// Returns 0 if the request was allowed.
func (r *Result) RetryAfter() time.Duration {
	if r.Allowed() {
		return 0
	}
	return time.Until(r.ResetAt)
}

// Config defines the token bucket configuration.
type Config struct {
	Capacity       int           // Maximum tokens the bucket can hold (burst limit)
	RefillRate     int           // Number of tokens added per refill interval
	RefillInterval time.Duration // How often tokens are added
}

// Settings is the env-driven configuration of the service's two buckets:
// anonymous generation per IP and auth endpoints per IP.
type Settings struct {
	AnonCapacity int           `env:"RATELIMIT_ANON_CAPACITY" envDefault:"10"`
	AnonInterval time.Duration `env:"RATELIMIT_ANON_INTERVAL" envDefault:"24h"`
	AuthCapacity int           `env:"RATELIMIT_AUTH_CAPACITY" envDefault:"20"`
	AuthInterval time.Duration `env:"RATELIMIT_AUTH_INTERVAL" envDefault:"1m"`
}

// Anonymous returns a bucket that refills completely once per interval.
func (s Settings) Anonymous() Config {
	return Config{Capacity: s.AnonCapacity, RefillRate: s.AnonCapacity, RefillInterval: s.AnonInterval}
}

func (s Settings) Auth() Config {
	return Config{Capacity: s.AuthCapacity, RefillRate: s.AuthCapacity, RefillInterval: s.AuthInterval}
}
