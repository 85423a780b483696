package cost

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/contentflow-backend/internal/domain"
	"github.com/heartmarshall/contentflow-backend/internal/queue"
)

// Recorder hands usage records to the background worker without blocking
// the caller on the database.
type Recorder struct {
	queue queue.Queue[domain.UsageRecord]
	log   *slog.Logger
}

// NewRecorder creates a Recorder on q.
func NewRecorder(log *slog.Logger, q queue.Queue[domain.UsageRecord]) *Recorder {
	return &Recorder{
		queue: q,
		log:   log.With("service", "usage_recorder"),
	}
}

// Record enqueues rec. It never returns an error: a record that cannot be
// enqueued is written to the local log with all of its fields.
func (r *Recorder) Record(ctx context.Context, rec domain.UsageRecord) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	// The caller's context may be cancelled right after the call returns.
	enqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := r.queue.Enqueue(enqCtx, rec); err != nil {
		r.log.ErrorContext(ctx, "usage record lost", append(recordAttrs(rec), slog.String("error", err.Error()))...)
	}
}

func recordAttrs(rec domain.UsageRecord) []any {
	attrs := []any{
		slog.String("usage_id", rec.ID.String()),
		slog.String("provider", rec.Provider),
		slog.String("model", rec.Model),
		slog.String("purpose", string(rec.Purpose)),
		slog.Int("input_tokens", rec.InputTokens),
		slog.Int("output_tokens", rec.OutputTokens),
		slog.String("total_cost", rec.TotalCost.String()),
		slog.Bool("success", rec.Success),
	}
	if rec.ContentID != nil {
		attrs = append(attrs, slog.String("content_id", rec.ContentID.String()))
	}
	return attrs
}
