// Package queue provides the buffer between producers of usage records and
// the worker that persists them. Two backends exist: an in-process channel
// queue for single-node deployments and a Redis list for durable, shared
// queues.
package queue

import (
	"context"
	"errors"
	"time"
)

// ErrQueueClosed is returned when operating on a closed queue.
var ErrQueueClosed = errors.New("queue is closed")

// Queue is a FIFO of items of type T.
type Queue[T any] interface {
	// Enqueue appends one item.
	Enqueue(ctx context.Context, item T) error

	// Dequeue blocks until at least one item is available and returns up to max items.
	Dequeue(ctx context.Context, max int) ([]T, error)

	// DequeueWithTimeout is Dequeue bounded by timeout. An empty slice means nothing arrived.
	DequeueWithTimeout(ctx context.Context, max int, timeout time.Duration) ([]T, error)

	// Length returns the number of buffered items.
	Length(ctx context.Context) (int, error)

	Close() error
}
