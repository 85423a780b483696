package cost

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/contentflow-backend/internal/domain"
	"github.com/heartmarshall/contentflow-backend/internal/queue"
)

type usageWriter interface {
	InsertBatch(ctx context.Context, recs []domain.UsageRecord) error
	Insert(ctx context.Context, rec domain.UsageRecord) error
}

type costCache interface {
	RecomputeCosts(ctx context.Context, id uuid.UUID) error
}

// WorkerConfig tunes batching and retries.
type WorkerConfig struct {
	BatchSize    int
	BatchTimeout time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	// DrainTimeout bounds the final flush after the run context ends.
	DrainTimeout time.Duration
}

// Worker drains the usage queue into the database and refreshes the cached
// cost columns of the affected items.
type Worker struct {
	queue queue.Queue[domain.UsageRecord]
	usage usageWriter
	costs costCache
	cfg   WorkerConfig
	log   *slog.Logger
	sleep func(context.Context, time.Duration) error
}

// NewWorker creates a Worker.
func NewWorker(log *slog.Logger, q queue.Queue[domain.UsageRecord], usage usageWriter, costs costCache, cfg WorkerConfig) *Worker {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 2 * time.Second
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = 10 * time.Second
	}
	return &Worker{
		queue: q,
		usage: usage,
		costs: costs,
		cfg:   cfg,
		log:   log.With("service", "usage_worker"),
		sleep: sleepCtx,
	}
}

// Run processes batches until ctx is done, then flushes what is still
// buffered. It returns nil on a clean shutdown.
func (w *Worker) Run(ctx context.Context) error {
	w.log.InfoContext(ctx, "usage worker started",
		slog.Int("batch_size", w.cfg.BatchSize),
		slog.Duration("batch_timeout", w.cfg.BatchTimeout))

	// Batches already taken off the queue are finished even during shutdown.
	work := context.WithoutCancel(ctx)

	for {
		recs, err := w.queue.DequeueWithTimeout(ctx, w.cfg.BatchSize, w.cfg.BatchTimeout)
		if len(recs) > 0 {
			w.ProcessBatch(work, recs)
		}
		switch {
		case ctx.Err() != nil:
			return w.drain()
		case errors.Is(err, queue.ErrQueueClosed):
			w.log.Info("usage queue closed")
			return nil
		case err != nil:
			w.log.ErrorContext(ctx, "dequeue usage records failed", slog.String("error", err.Error()))
			if w.sleep(ctx, time.Second) != nil {
				return w.drain()
			}
		}
	}
}

func (w *Worker) drain() error {
	ctx, cancel := context.WithTimeout(context.Background(), w.cfg.DrainTimeout)
	defer cancel()

	total := 0
	for {
		recs, err := w.queue.DequeueWithTimeout(ctx, w.cfg.BatchSize, 100*time.Millisecond)
		if len(recs) > 0 {
			w.ProcessBatch(ctx, recs)
			total += len(recs)
		}
		if err != nil {
			if ctx.Err() == nil {
				w.log.Error("dequeue during drain failed", slog.String("error", err.Error()))
			}
			break
		}
		if len(recs) == 0 {
			break
		}
	}
	w.log.Info("usage worker stopped", slog.Int("drained", total))
	return nil
}

// ProcessBatch persists recs. A failed batch insert falls back to per-record
// inserts with exponential backoff; a record that still fails is logged in
// full so it is never silently dropped.
func (w *Worker) ProcessBatch(ctx context.Context, recs []domain.UsageRecord) {
	if len(recs) == 0 {
		return
	}

	persisted := recs
	if err := w.usage.InsertBatch(ctx, recs); err != nil {
		w.log.WarnContext(ctx, "usage batch insert failed, retrying per record",
			slog.Int("count", len(recs)),
			slog.String("error", err.Error()))

		persisted = persisted[:0:0]
		for _, rec := range recs {
			if err := w.insertWithRetry(ctx, rec); err != nil {
				w.log.ErrorContext(ctx, "usage record lost", append(recordAttrs(rec), slog.String("error", err.Error()))...)
				continue
			}
			persisted = append(persisted, rec)
		}
	}

	seen := make(map[uuid.UUID]bool)
	for _, rec := range persisted {
		if rec.ContentID == nil || seen[*rec.ContentID] || !rec.Success {
			continue
		}
		seen[*rec.ContentID] = true
		if err := w.costs.RecomputeCosts(ctx, *rec.ContentID); err != nil {
			w.log.ErrorContext(ctx, "recompute content costs failed",
				slog.String("content_id", rec.ContentID.String()),
				slog.String("error", err.Error()))
		}
	}

	w.log.DebugContext(ctx, "usage batch processed",
		slog.Int("received", len(recs)),
		slog.Int("persisted", len(persisted)))
}

func (w *Worker) insertWithRetry(ctx context.Context, rec domain.UsageRecord) error {
	var lastErr error
	for attempt := 0; attempt <= w.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := w.cfg.RetryBackoff * time.Duration(1<<uint(attempt-1))
			if err := w.sleep(ctx, backoff); err != nil {
				return fmt.Errorf("retry aborted: %w", err)
			}
		}
		lastErr = w.usage.Insert(ctx, rec)
		if lastErr == nil || errors.Is(lastErr, domain.ErrAlreadyExists) {
			// an earlier attempt that timed out client-side may have committed
			return nil
		}
		if errors.Is(lastErr, domain.ErrValidation) {
			// A check violation will not succeed on retry.
			break
		}
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
