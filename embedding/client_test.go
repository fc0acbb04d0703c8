package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/embedsync/ai/mock"
	"github.com/poiesic/embedsync/ratelimit"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sleepRecorder captures backoff delays instead of sleeping.
type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	return ctx.Err()
}

func (s *sleepRecorder) recorded() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

func newTestClient(t *testing.T, embedder *mock.MockEmbedder, opts ...Option) (*Client, *sleepRecorder) {
	t.Helper()
	client, err := NewClient(embedder, ratelimit.New(0), opts...)
	require.NoError(t, err)
	rec := &sleepRecorder{}
	client.sleep = rec.sleep
	return client, rec
}

// failTimes makes the embedder fail n times with err, then succeed.
func failTimes(embedder *mock.MockEmbedder, n int, err error) {
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		if embedder.CallCount() <= n {
			return nil, err
		}
		return mock.Vectors(texts, 4), nil
	}
}

func TestNewClient(t *testing.T) {
	t.Run("nil embedder", func(t *testing.T) {
		_, err := NewClient(nil, nil)
		assert.ErrorIs(t, err, ErrNilEmbedder)
	})

	t.Run("empty schedule", func(t *testing.T) {
		_, err := NewClient(mock.NewMockEmbedder(), nil, WithBackoff())
		assert.ErrorIs(t, err, ErrInvalidSchedule)
	})

	t.Run("negative delay", func(t *testing.T) {
		_, err := NewClient(mock.NewMockEmbedder(), nil, WithBackoff(time.Second, -time.Second))
		assert.ErrorIs(t, err, ErrInvalidSchedule)
	})

	t.Run("default schedule", func(t *testing.T) {
		client, err := NewClient(mock.NewMockEmbedder(), nil)
		require.NoError(t, err)
		assert.Equal(t, 3, client.MaxAttempts())
		assert.Equal(t, DefaultBackoff, client.schedule)
	})
}

func TestClient_Embed_Success(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	client, rec := newTestClient(t, embedder)

	vectors, err := client.Embed(context.Background(), []string{"a", "b"})

	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, mock.Vector("a", mock.DefaultDimensions), vectors[0])
	assert.Equal(t, 1, embedder.CallCount())
	assert.Empty(t, rec.recorded())
}

func TestClient_Embed_EmptyInput(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	client, _ := newTestClient(t, embedder)

	vectors, err := client.Embed(context.Background(), nil)

	assert.NoError(t, err)
	assert.Nil(t, vectors)
	assert.Zero(t, embedder.CallCount())
	assert.Zero(t, client.Attempts())
}

func TestClient_Embed_FailTwiceThenSucceed(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	failTimes(embedder, 2, errors.New("503 service unavailable"))
	client, rec := newTestClient(t, embedder)

	vectors, err := client.Embed(context.Background(), []string{"chunk"})

	require.NoError(t, err)
	assert.Len(t, vectors, 1)
	assert.Equal(t, 3, embedder.CallCount())
	assert.Equal(t, int64(3), client.Calls())
	assert.Equal(t, []time.Duration{time.Second, 4 * time.Second}, rec.recorded())
}

func TestClient_Embed_QuotaIsRetried(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	failTimes(embedder, 1, errors.New("429 Resource exhausted"))
	client, rec := newTestClient(t, embedder)

	_, err := client.Embed(context.Background(), []string{"chunk"})

	require.NoError(t, err)
	assert.Equal(t, 2, embedder.CallCount())
	assert.Equal(t, []time.Duration{time.Second}, rec.recorded())
}

func TestClient_Embed_Exhausted(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	cause := errors.New("connection reset by peer")
	failTimes(embedder, 100, cause)
	client, rec := newTestClient(t, embedder)

	vectors, err := client.Embed(context.Background(), []string{"chunk"})

	assert.Nil(t, vectors)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRetriesExhausted)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 3, embedder.CallCount())
	// No sleep after the final attempt.
	assert.Equal(t, []time.Duration{time.Second, 4 * time.Second}, rec.recorded())
}

func TestClient_Embed_MalformedFailsImmediately(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	cause := errors.New("400 Invalid argument: input too long")
	failTimes(embedder, 100, cause)
	client, rec := newTestClient(t, embedder)

	_, err := client.Embed(context.Background(), []string{"chunk"})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedRequest)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrRetriesExhausted)
	assert.Equal(t, 1, embedder.CallCount())
	assert.Empty(t, rec.recorded(), "malformed requests must not back off")
}

func TestClient_Embed_VectorCountMismatchIsRetried(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		if embedder.CallCount() == 1 {
			return mock.Vectors(texts[:1], 4), nil
		}
		return mock.Vectors(texts, 4), nil
	}
	client, _ := newTestClient(t, embedder)

	vectors, err := client.Embed(context.Background(), []string{"a", "b"})

	require.NoError(t, err)
	assert.Len(t, vectors, 2)
	assert.Equal(t, 2, embedder.CallCount())
}

func TestClient_Embed_ContextCanceled(t *testing.T) {
	t.Run("before first attempt", func(t *testing.T) {
		embedder := mock.NewMockEmbedder()
		client, _ := newTestClient(t, embedder)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := client.Embed(ctx, []string{"a"})

		assert.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, embedder.CallCount())
	})

	t.Run("during backoff", func(t *testing.T) {
		embedder := mock.NewMockEmbedder()
		failTimes(embedder, 100, errors.New("timeout"))
		client, err := NewClient(embedder, nil)
		require.NoError(t, err)
		ctx, cancel := context.WithCancel(context.Background())
		client.sleep = func(ctx context.Context, d time.Duration) error {
			cancel()
			return SleepContext(ctx, d)
		}

		_, err = client.Embed(ctx, []string{"a"})

		assert.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, ErrRetriesExhausted)
		assert.Equal(t, 1, embedder.CallCount())
	})
}

func TestClient_Embed_WaitsOnLimiterPerAttempt(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	failTimes(embedder, 1, errors.New("503"))
	// 6000 rpm is a 10ms interval.
	client, err := NewClient(embedder, ratelimit.New(6000), WithBackoff(0, 0))
	require.NoError(t, err)

	start := time.Now()
	_, err = client.Embed(context.Background(), []string{"a"})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond-2*time.Millisecond)
	assert.Equal(t, int64(2), client.Attempts())
}

func TestClient_Breaker(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	failTimes(embedder, 100, errors.New("503 service unavailable"))
	client, _ := newTestClient(t, embedder,
		WithBackoff(0, 0, 0, 0),
		WithBreaker(BreakerSettings{Name: "test", ConsecutiveFailures: 2, Timeout: time.Hour}),
	)

	_, err := client.Embed(context.Background(), []string{"a"})

	require.ErrorIs(t, err, ErrRetriesExhausted)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, embedder.CallCount(), "open breaker stops calls")
	assert.Equal(t, int64(4), client.Attempts())
	assert.Equal(t, int64(2), client.Calls())
}

func TestClient_Breaker_IgnoresMalformed(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	failTimes(embedder, 100, errors.New("400 bad request"))
	client, _ := newTestClient(t, embedder,
		WithBreaker(BreakerSettings{Name: "test", ConsecutiveFailures: 1, Timeout: time.Hour}),
	)

	for i := 0; i < 3; i++ {
		_, err := client.Embed(context.Background(), []string{fmt.Sprint(i)})
		assert.ErrorIs(t, err, ErrMalformedRequest)
	}
	assert.Equal(t, 3, embedder.CallCount(), "malformed requests never trip the breaker")
}

func TestClient_Probe(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		client, _ := newTestClient(t, mock.NewMockEmbedder())
		assert.NoError(t, client.Probe(context.Background()))
	})

	t.Run("failure", func(t *testing.T) {
		embedder := mock.NewMockEmbedder()
		failTimes(embedder, 100, errors.New("dial tcp: connection refused"))
		client, _ := newTestClient(t, embedder)

		err := client.Probe(context.Background())

		assert.ErrorIs(t, err, ErrInitialization)
		assert.ErrorIs(t, err, ErrRetriesExhausted)
	})
}

func TestSleepContext(t *testing.T) {
	assert.NoError(t, SleepContext(context.Background(), time.Millisecond))
	assert.NoError(t, SleepContext(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, SleepContext(ctx, time.Hour), context.Canceled)
}
