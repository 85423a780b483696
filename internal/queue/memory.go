package queue

import (
	"context"
	"sync"
	"time"
)

// MemoryQueue is a bounded in-process queue. Items are lost on restart.
type MemoryQueue[T any] struct {
	items chan T
	done  chan struct{}
	once  sync.Once
}

// NewMemoryQueue creates a queue that buffers up to capacity items.
// Enqueue blocks while the buffer is full.
func NewMemoryQueue[T any](capacity int) *MemoryQueue[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &MemoryQueue[T]{
		items: make(chan T, capacity),
		done:  make(chan struct{}),
	}
}

func (q *MemoryQueue[T]) Enqueue(ctx context.Context, item T) error {
	select {
	case <-q.done:
		return ErrQueueClosed
	default:
	}

	select {
	case q.items <- item:
		return nil
	case <-q.done:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MemoryQueue[T]) Dequeue(ctx context.Context, max int) ([]T, error) {
	select {
	case item := <-q.items:
		return q.drain([]T{item}, max), nil
	case <-q.done:
		return q.closedRead(max)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *MemoryQueue[T]) DequeueWithTimeout(ctx context.Context, max int, timeout time.Duration) ([]T, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case item := <-q.items:
		return q.drain([]T{item}, max), nil
	case <-timer.C:
		return []T{}, nil
	case <-q.done:
		return q.closedRead(max)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *MemoryQueue[T]) Length(_ context.Context) (int, error) {
	return len(q.items), nil
}

// Close stops accepting items. Buffered items can still be dequeued so a
// worker can drain the queue during shutdown.
func (q *MemoryQueue[T]) Close() error {
	q.once.Do(func() { close(q.done) })
	return nil
}

// closedRead hands out what is left after Close, then reports ErrQueueClosed.
func (q *MemoryQueue[T]) closedRead(max int) ([]T, error) {
	items := q.drain(nil, max)
	if len(items) == 0 {
		return nil, ErrQueueClosed
	}
	return items, nil
}

func (q *MemoryQueue[T]) drain(items []T, max int) []T {
	for len(items) < max {
		select {
		case item := <-q.items:
			items = append(items, item)
		default:
			return items
		}
	}
	return items
}
