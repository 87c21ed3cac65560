package priority

import (
	"corequeue/internal/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func req(id string, base int, arrival time.Time) domain.ScheduledRequest {
	return domain.ScheduledRequest{ID: id, Operation: "ping", BasePriority: base, ArrivalTime: arrival}
}

func TestEffectiveStaysScaledDuringFirstSecond(t *testing.T) {
	t0 := time.Unix(1_700_000_000, 0)

	assert.Equal(t, 3000.0, Effective(3, t0, t0))
	assert.Equal(t, 3000.0, Effective(3, t0, t0.Add(500*time.Millisecond)))
	assert.Equal(t, 3000.0, Effective(3, t0, t0.Add(time.Second)))
}

func TestEffectiveDecaysAfterThreshold(t *testing.T) {
	t0 := time.Unix(1_700_000_000, 0)

	assert.InDelta(t, 1500.0, Effective(3, t0, t0.Add(2*time.Second)), 1e-9)
	assert.InDelta(t, 300.0, Effective(3, t0, t0.Add(10*time.Second)), 1e-9)

	// just past the threshold the divisor is barely above one
	p := Effective(3, t0, t0.Add(time.Second+time.Millisecond))
	assert.Less(t, p, 3000.0)
	assert.Greater(t, p, 2990.0)
}

func TestEffectiveClassZeroIsAlwaysMostUrgent(t *testing.T) {
	t0 := time.Now()
	for _, d := range []time.Duration{0, time.Second, time.Minute} {
		assert.Equal(t, 0.0, Effective(0, t0, t0.Add(d)))
	}
}

func TestEffectiveClockSkewBeforeArrival(t *testing.T) {
	t0 := time.Now()
	assert.Equal(t, 2000.0, Effective(2, t0, t0.Add(-time.Hour)))
}

func TestMonotoneAgingForEqualClass(t *testing.T) {
	t0 := time.Unix(1_700_000_000, 0)
	for base := 0; base <= 6; base++ {
		earlier := req("a", base, t0)
		later := req("b", base, t0.Add(1500*time.Millisecond))
		for step := 0; step < 40; step++ {
			now := t0.Add(time.Duration(step) * 250 * time.Millisecond).Add(1500 * time.Millisecond)
			require.LessOrEqual(t, EffectiveOf(earlier, now), EffectiveOf(later, now),
				"base=%d now=+%s", base, now.Sub(t0))
		}
	}
}

func TestMonotoneNonIncreasingOverTime(t *testing.T) {
	t0 := time.Unix(1_700_000_000, 0)
	r := req("a", 4, t0)
	prev := EffectiveOf(r, t0)
	for ms := 100; ms <= 60_000; ms += 100 {
		p := EffectiveOf(r, t0.Add(time.Duration(ms)*time.Millisecond))
		require.LessOrEqual(t, p, prev)
		prev = p
	}
}

func TestStarvationFreedom(t *testing.T) {
	t0 := time.Unix(1_700_000_000, 0)
	waiting := req("slow", 4, t0)

	// a fresh class-1 request arriving at any instant is eventually beaten
	for wait := time.Second; wait < time.Minute; wait += time.Second {
		now := t0.Add(wait)
		fresh := req("fresh", 1, now)
		if Compare(waiting, fresh, now) <= 0 {
			assert.GreaterOrEqual(t, wait, 4*time.Second)
			return
		}
	}
	t.Fatalf("class 4 request never overtook a fresh class 1 request")
}

func TestCompare(t *testing.T) {
	t0 := time.Unix(1_700_000_000, 0)
	a := req("a", 1, t0)
	b := req("b", 2, t0)

	assert.Equal(t, -1, Compare(a, b, t0))
	assert.Equal(t, 1, Compare(b, a, t0))
	assert.Equal(t, 0, Compare(a, req("c", 1, t0), t0))
}

func TestExpired(t *testing.T) {
	t0 := time.Unix(1_700_000_000, 0)
	r := req("a", 1, t0)

	assert.False(t, Expired(r, t0.Add(30*time.Second), 30*time.Second))
	assert.True(t, Expired(r, t0.Add(30*time.Second+time.Nanosecond), 30*time.Second))
	assert.False(t, Expired(r, t0.Add(time.Hour), 0))
}
