package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tolerance absorbs float rounding in the token bucket.
const tolerance = 5 * time.Millisecond

func TestNew_Interval(t *testing.T) {
	assert.Equal(t, 1200*time.Millisecond, New(50).Interval())
	assert.Equal(t, time.Second, New(60).Interval())
	assert.Equal(t, 50, New(50).RequestsPerMinute())
	assert.Zero(t, New(0).Interval())
	assert.Zero(t, New(-3).RequestsPerMinute())
}

func TestLimiter_FirstCallIsImmediate(t *testing.T) {
	l := New(1) // one call per minute

	start := time.Now()
	require.NoError(t, l.Wait(context.Background()))
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestLimiter_SpacesCalls(t *testing.T) {
	l := New(600) // 100ms interval
	k := 4

	start := time.Now()
	for i := 0; i < k; i++ {
		require.NoError(t, l.Wait(context.Background()))
	}
	elapsed := time.Since(start)

	minimum := time.Duration(k-1) * l.Interval()
	assert.GreaterOrEqual(t, elapsed, minimum-tolerance,
		"%d calls should take at least %v, took %v", k, minimum, elapsed)
}

func TestLimiter_ConcurrentCallersShareBudget(t *testing.T) {
	l := New(1200) // 50ms interval
	callers, perCaller := 3, 2

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perCaller; j++ {
				assert.NoError(t, l.Wait(context.Background()))
			}
		}()
	}
	wg.Wait()

	minimum := time.Duration(callers*perCaller-1) * l.Interval()
	assert.GreaterOrEqual(t, time.Since(start), minimum-tolerance)
}

func TestLimiter_Unlimited(t *testing.T) {
	l := New(0)

	start := time.Now()
	for i := 0; i < 100; i++ {
		require.NoError(t, l.Wait(context.Background()))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestLimiter_ContextDeadline(t *testing.T) {
	l := New(1)
	require.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := l.Wait(ctx)
	assert.Error(t, err, "waiting a full minute should not fit in the deadline")
}

func TestLimiter_Nil(t *testing.T) {
	var l *Limiter
	assert.NoError(t, l.Wait(context.Background()))
	assert.Zero(t, l.Interval())
}
