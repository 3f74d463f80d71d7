package workqueue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/ddpbfs.net/internal/domain"
)

func TestDrainReturnsBufferedInFIFOOrder(t *testing.T) {
	q := New(10, 10*time.Millisecond)
	ctx := context.Background()
	for _, c := range []string{"a", "b", "c", "d"} {
		require.NoError(t, q.Push(ctx, c))
	}

	got := q.Drain(ctx, 3, time.Second)
	assert.Equal(t, []domain.Candidate{"a", "b", "c"}, got)
	assert.Equal(t, 1, q.Len())
}

func TestDrainTimesOutWhenEmpty(t *testing.T) {
	q := New(4, 10*time.Millisecond)

	start := time.Now()
	got := q.Drain(context.Background(), 5, 50*time.Millisecond)

	assert.Empty(t, got)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	assert.False(t, q.Exhausted())
}

func TestDrainWaitsForFirstItem(t *testing.T) {
	q := New(4, 10*time.Millisecond)
	ctx := context.Background()

	go func() {
		time.Sleep(30 * time.Millisecond)
		_ = q.Push(ctx, "late")
	}()

	got := q.Drain(ctx, 5, time.Second)
	assert.Equal(t, []domain.Candidate{"late"}, got)
}

func TestDrainReturnsImmediatelyAfterProducerDone(t *testing.T) {
	q := New(10, time.Second)
	ctx := context.Background()
	require.NoError(t, q.Push(ctx, "a"))
	require.NoError(t, q.Push(ctx, "b"))
	q.CloseProducer()

	start := time.Now()
	got := q.Drain(ctx, 10, 5*time.Second)

	assert.Equal(t, []domain.Candidate{"a", "b"}, got)
	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, q.Exhausted())

	assert.Empty(t, q.Drain(ctx, 10, 5*time.Second))
}

func TestPushBlocksWhenFull(t *testing.T) {
	q := New(2, time.Millisecond)
	ctx := context.Background()
	require.NoError(t, q.Push(ctx, "a"))
	require.NoError(t, q.Push(ctx, "b"))

	pushed := make(chan struct{})
	go func() {
		_ = q.Push(ctx, "c")
		close(pushed)
	}()

	select {
	case <-pushed:
		t.Fatal("push should block on a full queue")
	case <-time.After(50 * time.Millisecond):
	}

	assert.Equal(t, []domain.Candidate{"a"}, q.Drain(ctx, 1, time.Second))

	select {
	case <-pushed:
	case <-time.After(time.Second):
		t.Fatal("push did not resume after space freed")
	}
	assert.Equal(t, []domain.Candidate{"b", "c"}, q.Drain(ctx, 5, time.Second))
}

func TestPushHonoursCancellation(t *testing.T) {
	q := New(1, time.Millisecond)
	require.NoError(t, q.Push(context.Background(), "a"))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- q.Push(ctx, "b") }()
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("push did not return on cancel")
	}
	assert.Equal(t, 1, q.Len())
}

func TestRequeueAppendsAtTailBeyondCapacity(t *testing.T) {
	q := New(2, time.Millisecond)
	ctx := context.Background()
	require.NoError(t, q.Push(ctx, "x"))
	require.NoError(t, q.Push(ctx, "y"))

	q.Requeue([]domain.Candidate{"aa", "ab", "ac"})

	assert.Equal(t, 5, q.Len())
	assert.Equal(t, []domain.Candidate{"x", "y", "aa", "ab", "ac"}, q.Drain(ctx, 10, time.Second))
}

func TestRequeueRevivesExhaustedQueue(t *testing.T) {
	q := New(2, time.Millisecond)
	q.CloseProducer()
	assert.True(t, q.Exhausted())

	q.Requeue([]domain.Candidate{"a"})
	assert.False(t, q.Exhausted())
	assert.Equal(t, []domain.Candidate{"a"}, q.Drain(context.Background(), 5, time.Second))
}

func TestConcurrentProducerConsumerLosesNothing(t *testing.T) {
	q := New(8, 5*time.Millisecond)
	ctx := context.Background()
	const total = 500

	go func() {
		for i := 0; i < total; i++ {
			_ = q.Push(ctx, string(rune('a'+i%26)))
		}
		q.CloseProducer()
	}()

	count := 0
	for !q.Exhausted() {
		count += len(q.Drain(ctx, 7, time.Second))
	}
	assert.Equal(t, total, count)
}
