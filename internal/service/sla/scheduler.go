package sla

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/contentflow-backend/internal/domain"
)

//go:generate moq -out mocks_test.go -pkg sla . pendingLister approver

type pendingLister interface {
	ListPending(ctx context.Context, cutoff time.Time, limit int) ([]domain.ContentItem, error)
}

type approver interface {
	AutoApprove(ctx context.Context, id uuid.UUID, cutoff time.Time, policy domain.AutoApprovePolicy) (bool, error)
	Publish(ctx context.Context, id uuid.UUID) (domain.ContentItem, error)
}

// Config controls the sweep.
type Config struct {
	Window      time.Duration
	Interval    time.Duration
	Concurrency int
	BatchSize   int
	Policy      domain.AutoApprovePolicy
	AutoPublish bool
}

// SweepResult summarises one sweep.
type SweepResult struct {
	Scanned   int `json:"scanned"`
	Approved  int `json:"approved"`
	Skipped   int `json:"skipped"`
	Published int `json:"published"`
	Failed    int `json:"failed"`
}

// Scheduler periodically auto-approves overdue items. Overlapping sweeps, in
// this process or another, are safe because each approval is a conditional write.
type Scheduler struct {
	log      *slog.Logger
	pending  pendingLister
	workflow approver
	cfg      Config
}

// NewScheduler creates an SLA scheduler.
func NewScheduler(log *slog.Logger, pending pendingLister, workflow approver, cfg Config) *Scheduler {
	if cfg.Window <= 0 {
		cfg.Window = 5 * day
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if !cfg.Policy.IsValid() {
		cfg.Policy = domain.AutoApproveRequireValid
	}
	return &Scheduler{
		log:      log.With("service", "sla"),
		pending:  pending,
		workflow: workflow,
		cfg:      cfg,
	}
}

// Run sweeps immediately and then on every interval until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.InfoContext(ctx, "sla scheduler started",
		slog.Duration("interval", s.cfg.Interval),
		slog.Duration("window", s.cfg.Window),
		slog.String("policy", string(s.cfg.Policy)))

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.tick(ctx, time.Now().UTC())
	for {
		select {
		case <-ctx.Done():
			s.log.InfoContext(ctx, "sla scheduler stopped")
			return nil
		case t := <-ticker.C:
			s.tick(ctx, t.UTC())
		}
	}
}

func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	if _, err := s.Sweep(ctx, now); err != nil && ctx.Err() == nil {
		s.log.ErrorContext(ctx, "sla sweep failed", slog.String("error", err.Error()))
	}
}

// Sweep auto-approves every item pending for at least the window as of now,
// up to BatchSize items. Per-item failures are counted and logged; only a
// failure to list pending items is returned.
func (s *Scheduler) Sweep(ctx context.Context, now time.Time) (SweepResult, error) {
	cutoff := now.Add(-s.cfg.Window)

	items, err := s.pending.ListPending(ctx, cutoff, s.cfg.BatchSize)
	if err != nil {
		return SweepResult{}, fmt.Errorf("list pending: %w", err)
	}

	var approved, skipped, published, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for _, item := range items {
		if item.PendingSince == nil || !Compute(*item.PendingSince, now, s.cfg.Window).AutoPublishEligible {
			skipped.Add(1)
			continue
		}
		g.Go(func() error {
			ok, err := s.workflow.AutoApprove(gctx, item.ID, cutoff, s.cfg.Policy)
			switch {
			case err != nil:
				failed.Add(1)
				s.log.ErrorContext(gctx, "auto-approve failed",
					slog.String("content_id", item.ID.String()),
					slog.String("error", err.Error()))
				return nil
			case !ok:
				skipped.Add(1)
				return nil
			}
			approved.Add(1)

			if !s.cfg.AutoPublish {
				return nil
			}
			if _, err := s.workflow.Publish(gctx, item.ID); err != nil {
				failed.Add(1)
				s.log.ErrorContext(gctx, "auto-publish failed",
					slog.String("content_id", item.ID.String()),
					slog.String("error", err.Error()))
				return nil
			}
			published.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	res := SweepResult{
		Scanned:   len(items),
		Approved:  int(approved.Load()),
		Skipped:   int(skipped.Load()),
		Published: int(published.Load()),
		Failed:    int(failed.Load()),
	}
	if res.Scanned > 0 {
		s.log.InfoContext(ctx, "sla sweep completed",
			slog.Int("scanned", res.Scanned),
			slog.Int("approved", res.Approved),
			slog.Int("skipped", res.Skipped),
			slog.Int("published", res.Published),
			slog.Int("failed", res.Failed))
	}
	if res.Scanned == s.cfg.BatchSize {
		s.log.WarnContext(ctx, "sla sweep hit batch size, remaining items wait for next run",
			slog.Int("batch_size", s.cfg.BatchSize))
	}
	return res, nil
}
