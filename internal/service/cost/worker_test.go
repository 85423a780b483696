package cost

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/contentflow-backend/internal/domain"
	"github.com/heartmarshall/contentflow-backend/internal/queue"
)

func usageRec(contentID *uuid.UUID, success bool) domain.UsageRecord {
	return domain.UsageRecord{
		ID:        uuid.New(),
		ContentID: contentID,
		Provider:  "anthropic",
		Model:     "claude-sonnet-4-5",
		Purpose:   domain.UsagePurposeGeneration,
		Success:   success,
	}
}

func newTestWorker(q queue.Queue[domain.UsageRecord], usage *usageWriterMock, costs *costCacheMock) *Worker {
	w := NewWorker(slog.Default(), q, usage, costs, WorkerConfig{
		BatchSize:    10,
		BatchTimeout: 10 * time.Millisecond,
		MaxRetries:   2,
		RetryBackoff: time.Millisecond,
	})
	w.sleep = func(context.Context, time.Duration) error { return nil }
	return w
}

func TestWorker_ProcessBatch_RecomputesOncePerItem(t *testing.T) {
	t.Parallel()

	a, b := uuid.New(), uuid.New()
	usage := &usageWriterMock{}
	costs := &costCacheMock{}
	w := newTestWorker(queue.NewMemoryQueue[domain.UsageRecord](10), usage, costs)

	w.ProcessBatch(context.Background(), []domain.UsageRecord{
		usageRec(&a, true), usageRec(&a, true), usageRec(&b, false), usageRec(nil, true),
	})

	if got := len(usage.Stored()); got != 4 {
		t.Errorf("stored = %d, want 4", got)
	}
	calls := costs.Calls()
	if len(calls) != 1 || calls[0] != a {
		t.Errorf("recompute calls = %v, want only %s", calls, a)
	}
}

func TestWorker_ProcessBatch_FallsBackToRetries(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	usage := &usageWriterMock{
		InsertBatchFunc: func(context.Context, []domain.UsageRecord) error {
			return errors.New("batch failed")
		},
		InsertFunc: func(context.Context, domain.UsageRecord) error {
			// Every record fails once and then succeeds.
			if attempts.Add(1)%2 == 1 {
				return errors.New("transient")
			}
			return nil
		},
	}
	w := newTestWorker(queue.NewMemoryQueue[domain.UsageRecord](10), usage, &costCacheMock{})

	w.ProcessBatch(context.Background(), []domain.UsageRecord{usageRec(nil, true), usageRec(nil, true)})

	if got := len(usage.Stored()); got != 2 {
		t.Errorf("stored = %d, want 2", got)
	}
	if usage.insertCalls != 4 {
		t.Errorf("insert calls = %d, want 4", usage.insertCalls)
	}
}

func TestWorker_InsertWithRetry_GivesUp(t *testing.T) {
	t.Parallel()

	usage := &usageWriterMock{
		InsertFunc: func(context.Context, domain.UsageRecord) error { return errors.New("down") },
	}
	w := newTestWorker(queue.NewMemoryQueue[domain.UsageRecord](1), usage, &costCacheMock{})

	if err := w.insertWithRetry(context.Background(), usageRec(nil, true)); err == nil {
		t.Fatal("expected error")
	}
	if usage.insertCalls != 3 {
		t.Errorf("insert calls = %d, want 1 + 2 retries", usage.insertCalls)
	}
}

func TestWorker_InsertWithRetry_CheckViolationNotRetried(t *testing.T) {
	t.Parallel()

	usage := &usageWriterMock{
		InsertFunc: func(context.Context, domain.UsageRecord) error {
			return fmt.Errorf("usage_record x: %w", domain.ErrValidation)
		},
	}
	w := newTestWorker(queue.NewMemoryQueue[domain.UsageRecord](1), usage, &costCacheMock{})

	if err := w.insertWithRetry(context.Background(), usageRec(nil, false)); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v", err)
	}
	if usage.insertCalls != 1 {
		t.Errorf("insert calls = %d, want 1", usage.insertCalls)
	}
}

func TestWorker_InsertWithRetry_AlreadyStoredIsSuccess(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	usage := &usageWriterMock{
		InsertFunc: func(context.Context, domain.UsageRecord) error {
			// The first attempt committed but the reply was lost.
			if attempts.Add(1) == 1 {
				return context.DeadlineExceeded
			}
			return fmt.Errorf("usage_record x: %w", domain.ErrAlreadyExists)
		},
	}
	w := newTestWorker(queue.NewMemoryQueue[domain.UsageRecord](1), usage, &costCacheMock{})

	if err := w.insertWithRetry(context.Background(), usageRec(nil, true)); err != nil {
		t.Fatalf("a duplicate of a stored record must count as persisted: %v", err)
	}
	if usage.insertCalls != 2 {
		t.Errorf("insert calls = %d, want 2", usage.insertCalls)
	}
}

func TestWorker_Run_DrainsOnShutdown(t *testing.T) {
	t.Parallel()

	q := queue.NewMemoryQueue[domain.UsageRecord](100)
	usage := &usageWriterMock{}
	w := newTestWorker(q, usage, &costCacheMock{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	rec := NewRecorder(slog.Default(), q)
	for i := 0; i < 25; i++ {
		rec.Record(context.Background(), usageRec(nil, true))
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(usage.Stored()) < 25 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}

	if got := len(usage.Stored()); got != 25 {
		t.Errorf("stored = %d, want 25", got)
	}
}

func TestWorker_Run_StopsOnClosedQueue(t *testing.T) {
	t.Parallel()

	q := queue.NewMemoryQueue[domain.UsageRecord](10)
	usage := &usageWriterMock{}
	w := newTestWorker(q, usage, &costCacheMock{})

	_ = q.Enqueue(context.Background(), usageRec(nil, true))
	_ = q.Close()

	if err := w.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := len(usage.Stored()); got != 1 {
		t.Errorf("stored = %d, want 1", got)
	}
}

func TestRecorder_Record_FillsIdentity(t *testing.T) {
	t.Parallel()

	q := queue.NewMemoryQueue[domain.UsageRecord](1)
	NewRecorder(slog.Default(), q).Record(context.Background(), domain.UsageRecord{Provider: "p"})

	items, err := q.Dequeue(context.Background(), 1)
	if err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	if items[0].ID == uuid.Nil || items[0].CreatedAt.IsZero() {
		t.Errorf("record = %+v", items[0])
	}
}

func TestRecorder_Record_ClosedQueueDoesNotPanic(t *testing.T) {
	t.Parallel()

	q := queue.NewMemoryQueue[domain.UsageRecord](1)
	_ = q.Close()
	NewRecorder(slog.Default(), q).Record(context.Background(), domain.UsageRecord{})
}

// scriptedQueue replays fixed dequeue results.
type scriptedQueue struct {
	queue.Queue[domain.UsageRecord]
	results []scriptedDequeue
}

type scriptedDequeue struct {
	recs []domain.UsageRecord
	err  error
}

func (q *scriptedQueue) DequeueWithTimeout(context.Context, int, time.Duration) ([]domain.UsageRecord, error) {
	if len(q.results) == 0 {
		return nil, nil
	}
	r := q.results[0]
	q.results = q.results[1:]
	return r.recs, r.err
}

func TestWorker_Drain_KeepsRecordsReturnedWithError(t *testing.T) {
	t.Parallel()

	q := &scriptedQueue{results: []scriptedDequeue{
		{recs: []domain.UsageRecord{usageRec(nil, true), usageRec(nil, true)}, err: errors.New("dead-letter write failed")},
	}}
	usage := &usageWriterMock{}
	w := newTestWorker(q, usage, &costCacheMock{})

	if err := w.drain(); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if got := len(usage.Stored()); got != 2 {
		t.Errorf("stored = %d, want 2", got)
	}
}
