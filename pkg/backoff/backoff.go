package backoff

import (
	"math"
	"math/rand/v2"
	"time"
)

// ExponentialJitter returns base*2^(attempt-1) capped at max, with +/-20% jitter.
func ExponentialJitter(base, max time.Duration, attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}
	if base <= 0 {
		return 0
	}
	mul := math.Pow(2, float64(attempt-1))
	d := max
	if f := float64(base) * mul; f < float64(max) {
		d = time.Duration(f)
	}

	j := int64(float64(d) * 0.2)
	if j <= 0 {
		return d
	}
	return d - time.Duration(j) + time.Duration(rand.Int64N(2*j))
}

// Retrier tracks consecutive failures of one loop.
type Retrier struct {
	Base     time.Duration
	Max      time.Duration
	failures int
}

// Fail records a failure and returns how long to wait before retrying.
func (r *Retrier) Fail() time.Duration {
	r.failures++
	return ExponentialJitter(r.Base, r.Max, r.failures)
}

func (r *Retrier) Reset() { r.failures = 0 }

func (r *Retrier) Failures() int { return r.failures }
