package workqueue

import (
	"context"
	"sync"
	"time"

	"gitlab.com/ddpbfs.net/internal/domain"
)

// WorkQueue is a bounded FIFO of candidates between the generator and dispatch.
// Push blocks while the buffer is full; Requeue ignores the bound so reclaimed
// work can always be returned.
type WorkQueue struct {
	mu           sync.Mutex
	items        []domain.Candidate
	capacity     int
	linger       time.Duration
	producerDone bool
	// changed is closed and replaced whenever items or producerDone change
	changed chan struct{}
}

// New creates a queue holding at most capacity generated candidates.
// linger is how long Drain keeps collecting once the first item arrived.
func New(capacity int, linger time.Duration) *WorkQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &WorkQueue{
		items:    make([]domain.Candidate, 0, capacity),
		capacity: capacity,
		linger:   linger,
		changed:  make(chan struct{}),
	}
}

// notifyLocked wakes every goroutine waiting on the current state. Caller holds mu.
func (q *WorkQueue) notifyLocked() {
	close(q.changed)
	q.changed = make(chan struct{})
}

// Push appends c, blocking while the queue is full
func (q *WorkQueue) Push(ctx context.Context, c domain.Candidate) error {
	for {
		q.mu.Lock()
		if len(q.items) < q.capacity {
			q.items = append(q.items, c)
			q.notifyLocked()
			q.mu.Unlock()
			return nil
		}
		wait := q.changed
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-wait:
		}
	}
}

// Requeue appends a reclaimed batch at the tail in its original order
func (q *WorkQueue) Requeue(cs []domain.Candidate) {
	if len(cs) == 0 {
		return
	}
	q.mu.Lock()
	q.items = append(q.items, cs...)
	q.notifyLocked()
	q.mu.Unlock()
}

// CloseProducer records that the generator will not push anything else
func (q *WorkQueue) CloseProducer() {
	q.mu.Lock()
	if !q.producerDone {
		q.producerDone = true
		q.notifyLocked()
	}
	q.mu.Unlock()
}

// Exhausted reports that the generator has ended and nothing is buffered
func (q *WorkQueue) Exhausted() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.producerDone && len(q.items) == 0
}

func (q *WorkQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Drain returns up to max candidates. It waits up to timeout for the first one,
// then keeps taking while more arrive within the linger window. It returns
// immediately with what it has once the producer is done and the buffer is empty.
func (q *WorkQueue) Drain(ctx context.Context, max int, timeout time.Duration) []domain.Candidate {
	if max < 1 {
		return nil
	}
	out := make([]domain.Candidate, 0, max)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for len(out) < max {
		q.mu.Lock()
		if n := len(q.items); n > 0 {
			take := max - len(out)
			if take > n {
				take = n
			}
			out = append(out, q.items[:take]...)
			q.items = append(q.items[:0], q.items[take:]...)
			q.notifyLocked()
			q.mu.Unlock()

			if len(out) < max {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(q.linger)
			}
			continue
		}
		if q.producerDone {
			q.mu.Unlock()
			break
		}
		wait := q.changed
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return out
		case <-timer.C:
			return out
		case <-wait:
		}
	}
	return out
}
