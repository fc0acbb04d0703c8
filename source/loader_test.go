package source

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/embedsync/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func descriptorsN(n int) []core.FileDescriptor {
	descriptors := make([]core.FileDescriptor, n)
	for i := range descriptors {
		descriptors[i] = core.FileDescriptor{Locator: fmt.Sprintf("/src/%02d.go", i)}
	}
	return descriptors
}

func collect(t *testing.T, l *Loader, descriptors []core.FileDescriptor) []Content {
	t.Helper()
	var got []Content
	err := l.Each(context.Background(), descriptors, func(c Content) error {
		got = append(got, c)
		return nil
	})
	require.NoError(t, err)
	return got
}

func TestLoader_PreservesOrder(t *testing.T) {
	for _, workers := range []int{0, 1, 3, 8} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			// Later files finish first to shake out ordering bugs.
			l, err := NewLoader(workers, WithReadFunc(func(locator string) (string, error) {
				var n int
				fmt.Sscanf(locator, "/src/%02d.go", &n)
				time.Sleep(time.Duration(10-n%10) * time.Millisecond)
				return "content of " + locator, nil
			}))
			require.NoError(t, err)
			defer l.Release()

			descriptors := descriptorsN(10)
			got := collect(t, l, descriptors)

			require.Len(t, got, 10)
			for i, c := range got {
				assert.Equal(t, descriptors[i], c.Descriptor)
				assert.Equal(t, "content of "+descriptors[i].Locator, c.Text)
			}
		})
	}
}

func TestLoader_BoundedConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	l, err := NewLoader(3, WithReadFunc(func(string) (string, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return "x", nil
	}))
	require.NoError(t, err)
	defer l.Release()

	collect(t, l, descriptorsN(12))

	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestLoader_ReadErrorsAreReported(t *testing.T) {
	boom := errors.New("permission denied")
	l, err := NewLoader(2, WithReadFunc(func(locator string) (string, error) {
		if locator == "/src/01.go" {
			return "", boom
		}
		return "ok", nil
	}))
	require.NoError(t, err)
	defer l.Release()

	got := collect(t, l, descriptorsN(3))

	require.Len(t, got, 3)
	assert.NoError(t, got[0].Err)
	assert.ErrorIs(t, got[1].Err, boom)
	assert.NoError(t, got[2].Err)
}

func TestLoader_CallbackErrorStops(t *testing.T) {
	l, err := NewLoader(2, WithReadFunc(func(string) (string, error) { return "x", nil }))
	require.NoError(t, err)
	defer l.Release()

	stop := errors.New("stop")
	calls := 0
	err = l.Each(context.Background(), descriptorsN(10), func(Content) error {
		calls++
		if calls == 3 {
			return stop
		}
		return nil
	})

	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 3, calls)
}

func TestLoader_ContextCanceled(t *testing.T) {
	l, err := NewLoader(2, WithReadFunc(func(string) (string, error) { return "x", nil }))
	require.NoError(t, err)
	defer l.Release()

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err = l.Each(ctx, descriptorsN(10), func(Content) error {
		calls++
		cancel()
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, calls, "the current window is delivered before stopping")
}

func TestNewLoader_Workers(t *testing.T) {
	l, err := NewLoader(-1)
	require.NoError(t, err)
	defer l.Release()
	assert.Equal(t, 1, l.Workers())
	assert.Nil(t, l.pool)
}
