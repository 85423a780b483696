package sla

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/contentflow-backend/internal/domain"
)

func pendingItem(since time.Time) domain.ContentItem {
	return domain.ContentItem{ID: uuid.New(), Status: domain.ContentStatusPendingReview, PendingSince: &since}
}

func TestScheduler_Sweep_ApprovesOverdue(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	overdue := pendingItem(now.Add(-5*day - time.Hour))
	fresh := pendingItem(now.Add(-4 * day))

	lister := &pendingListerMock{ListPendingFunc: func(_ context.Context, cutoff time.Time, limit int) ([]domain.ContentItem, error) {
		assert.Equal(t, now.Add(-5*day), cutoff)
		assert.Equal(t, 100, limit)
		return []domain.ContentItem{overdue, fresh}, nil
	}}
	wf := &approverMock{AutoApproveFunc: func(_ context.Context, id uuid.UUID, _ time.Time, policy domain.AutoApprovePolicy) (bool, error) {
		assert.Equal(t, overdue.ID, id)
		assert.Equal(t, domain.AutoApproveRequireValid, policy)
		return true, nil
	}}

	s := NewScheduler(slog.Default(), lister, wf, Config{})
	res, err := s.Sweep(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, SweepResult{Scanned: 2, Approved: 1, Skipped: 1}, res)
	assert.Equal(t, 1, wf.ApproveCalls())
	assert.Zero(t, wf.PublishCalls())
}

func TestScheduler_Sweep_AutoPublish(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	a, b := pendingItem(now.Add(-6*day)), pendingItem(now.Add(-7*day))

	lister := &pendingListerMock{ListPendingFunc: func(context.Context, time.Time, int) ([]domain.ContentItem, error) {
		return []domain.ContentItem{a, b}, nil
	}}
	wf := &approverMock{
		AutoApproveFunc: func(context.Context, uuid.UUID, time.Time, domain.AutoApprovePolicy) (bool, error) {
			return true, nil
		},
		PublishFunc: func(_ context.Context, id uuid.UUID) (domain.ContentItem, error) {
			if id == b.ID {
				return domain.ContentItem{}, domain.ErrPublishFailed
			}
			return domain.ContentItem{ID: id}, nil
		},
	}

	s := NewScheduler(slog.Default(), lister, wf, Config{AutoPublish: true, Policy: domain.AutoApproveElapsedTime})
	res, err := s.Sweep(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Approved)
	assert.Equal(t, 1, res.Published)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 2, wf.PublishCalls())
}

func TestScheduler_Sweep_LostRaceIsSkipped(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	item := pendingItem(now.Add(-6 * day))

	lister := &pendingListerMock{ListPendingFunc: func(context.Context, time.Time, int) ([]domain.ContentItem, error) {
		return []domain.ContentItem{item}, nil
	}}
	wf := &approverMock{AutoApproveFunc: func(context.Context, uuid.UUID, time.Time, domain.AutoApprovePolicy) (bool, error) {
		return false, nil
	}}

	s := NewScheduler(slog.Default(), lister, wf, Config{AutoPublish: true})
	res, err := s.Sweep(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, SweepResult{Scanned: 1, Skipped: 1}, res)
	assert.Zero(t, wf.PublishCalls())
}

func TestScheduler_Sweep_ItemErrorsDoNotAbort(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	items := []domain.ContentItem{pendingItem(now.Add(-6 * day)), pendingItem(now.Add(-6 * day)), pendingItem(now.Add(-6 * day))}

	lister := &pendingListerMock{ListPendingFunc: func(context.Context, time.Time, int) ([]domain.ContentItem, error) {
		return items, nil
	}}
	wf := &approverMock{AutoApproveFunc: func(_ context.Context, id uuid.UUID, _ time.Time, _ domain.AutoApprovePolicy) (bool, error) {
		if id == items[1].ID {
			return false, errors.New("connection reset")
		}
		return true, nil
	}}

	s := NewScheduler(slog.Default(), lister, wf, Config{Concurrency: 1})
	res, err := s.Sweep(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Approved)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 3, wf.ApproveCalls())
}

func TestScheduler_Sweep_ListError(t *testing.T) {
	t.Parallel()

	lister := &pendingListerMock{ListPendingFunc: func(context.Context, time.Time, int) ([]domain.ContentItem, error) {
		return nil, errors.New("db down")
	}}
	s := NewScheduler(slog.Default(), lister, &approverMock{}, Config{})

	_, err := s.Sweep(context.Background(), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list pending")
}

// Overlapping sweeps over the same overdue item approve it exactly once when
// the approver behaves like a conditional update.
func TestScheduler_Sweep_ConcurrentSweepsApproveOnce(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	item := pendingItem(now.Add(-6 * day))

	lister := &pendingListerMock{ListPendingFunc: func(context.Context, time.Time, int) ([]domain.ContentItem, error) {
		return []domain.ContentItem{item}, nil
	}}

	var (
		mu     sync.Mutex
		status = domain.ContentStatusPendingReview
	)
	wf := &approverMock{AutoApproveFunc: func(context.Context, uuid.UUID, time.Time, domain.AutoApprovePolicy) (bool, error) {
		mu.Lock()
		defer mu.Unlock()
		if status != domain.ContentStatusPendingReview {
			return false, nil
		}
		status = domain.ContentStatusApproved
		return true, nil
	}}

	s := NewScheduler(slog.Default(), lister, wf, Config{})

	const sweeps = 6
	results := make([]SweepResult, sweeps)
	var wg sync.WaitGroup
	for i := range sweeps {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := s.Sweep(context.Background(), now)
			assert.NoError(t, err)
			results[i] = res
		}()
	}
	wg.Wait()

	var approved int
	for _, r := range results {
		approved += r.Approved
	}
	assert.Equal(t, 1, approved)
}

func TestScheduler_Run_StopsOnCancel(t *testing.T) {
	t.Parallel()

	swept := make(chan struct{}, 1)
	lister := &pendingListerMock{ListPendingFunc: func(context.Context, time.Time, int) ([]domain.ContentItem, error) {
		select {
		case swept <- struct{}{}:
		default:
		}
		return nil, nil
	}}
	s := NewScheduler(slog.Default(), lister, &approverMock{}, Config{Interval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case <-swept:
	case <-time.After(2 * time.Second):
		t.Fatal("expected an immediate sweep")
	}
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
}
