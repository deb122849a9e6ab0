package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRetriesUntilSuccess(t *testing.T) {
	var calls atomic.Int32
	done := make(chan Job[string], 1)
	q := NewQueue("test", func(ctx context.Context, job Job[string]) error {
		if calls.Add(1) < 3 {
			return errors.New("not yet")
		}
		done <- job
		return nil
	}, QueueConfig{MaxRetries: 3, RetryDelay: time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job[string]{Payload: "warm"}))
	select {
	case job := <-done:
		assert.Equal(t, "warm", job.Payload)
		assert.Equal(t, 2, job.Attempt)
		assert.NotEmpty(t, job.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("job never succeeded")
	}
}

func TestQueueCoalescesPendingKeys(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	q := NewQueue("test", func(ctx context.Context, job Job[int]) error {
		calls.Add(1)
		<-release
		return nil
	}, QueueConfig{BufferSize: 4})

	q.Start(context.Background())
	// Occupy the single worker so later jobs stay buffered.
	require.NoError(t, q.Enqueue(Job[int]{Key: "busy"}))
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)

	require.NoError(t, q.Enqueue(Job[int]{Key: "page-0", Payload: 1}))
	require.NoError(t, q.Enqueue(Job[int]{Key: "page-0", Payload: 2}))
	close(release)
	require.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, time.Millisecond)
	q.Stop()
	assert.Equal(t, int32(2), calls.Load())
}

func TestQueueRejectsBeforeStartAndWhenFull(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	q := NewQueue("test", func(ctx context.Context, job Job[int]) error {
		select {
		case <-block:
		case <-ctx.Done():
		}
		return nil
	}, QueueConfig{BufferSize: 1})
	assert.Error(t, q.Enqueue(Job[int]{}))

	q.Start(context.Background())
	defer q.Stop()
	require.NoError(t, q.Enqueue(Job[int]{}))
	require.Eventually(t, func() bool { return len(q.jobs) == 0 }, time.Second, time.Millisecond)
	require.NoError(t, q.Enqueue(Job[int]{}))
	assert.ErrorIs(t, q.Enqueue(Job[int]{}), ErrQueueFull)
}
