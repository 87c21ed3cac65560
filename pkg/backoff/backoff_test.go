package backoff

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExponentialJitterBounds(t *testing.T) {
	base := 100 * time.Millisecond
	max := 2 * time.Second

	for attempt := 1; attempt <= 10; attempt++ {
		want := base << (attempt - 1)
		if want > max {
			want = max
		}
		for i := 0; i < 50; i++ {
			d := ExponentialJitter(base, max, attempt)
			assert.GreaterOrEqual(t, d, want-want/5, "attempt %d", attempt)
			assert.Less(t, d, want+want/5, "attempt %d", attempt)
		}
	}
}

func TestExponentialJitterZeroBase(t *testing.T) {
	assert.Equal(t, time.Duration(0), ExponentialJitter(0, time.Second, 3))
}

func TestRetrierGrowsAndResets(t *testing.T) {
	r := Retrier{Base: 10 * time.Millisecond, Max: time.Second}

	first := r.Fail()
	r.Fail()
	third := r.Fail()
	assert.Equal(t, 3, r.Failures())
	assert.Greater(t, third, first)

	r.Reset()
	assert.Equal(t, 0, r.Failures())
	assert.Less(t, r.Fail(), 13*time.Millisecond)
}
