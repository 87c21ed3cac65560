// Package priority orders pending requests by a priority that ages with
// wait time. Lower values are more urgent; class 0 is the most urgent.
package priority

import (
	"corequeue/internal/domain"
	"time"
)

// Scale spreads the integer classes so the decayed values stay comparable.
const Scale = 1000

// agingThreshold is the wait after which priority starts to decay. Dividing
// only past this point keeps the divisor >= 1, so there is no singularity
// right after arrival and the curve is continuous at the threshold.
const agingThreshold = time.Second

// Effective returns the priority of a request with class base that arrived at
// arrival, as seen at now.
func Effective(base int, arrival, now time.Time) float64 {
	p := float64(base) * Scale
	elapsed := now.Sub(arrival)
	if elapsed <= agingThreshold {
		return p
	}
	return p / elapsed.Seconds()
}

func EffectiveOf(r domain.ScheduledRequest, now time.Time) float64 {
	return Effective(r.BasePriority, r.ArrivalTime, now)
}

// Compare orders a and b at now: -1 when a is more urgent, 1 when b is, 0 on a tie.
func Compare(a, b domain.ScheduledRequest, now time.Time) int {
	pa, pb := EffectiveOf(a, now), EffectiveOf(b, now)
	switch {
	case pa < pb:
		return -1
	case pa > pb:
		return 1
	default:
		return 0
	}
}

// Expired reports whether r waited longer than timeout at now. A zero timeout
// disables expiry.
func Expired(r domain.ScheduledRequest, now time.Time, timeout time.Duration) bool {
	return timeout > 0 && now.Sub(r.ArrivalTime) > timeout
}
