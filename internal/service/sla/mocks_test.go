package sla

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/contentflow-backend/internal/domain"
)

var (
	_ pendingLister = &pendingListerMock{}
	_ approver      = &approverMock{}
)

type pendingListerMock struct {
	ListPendingFunc func(ctx context.Context, cutoff time.Time, limit int) ([]domain.ContentItem, error)
}

func (m *pendingListerMock) ListPending(ctx context.Context, cutoff time.Time, limit int) ([]domain.ContentItem, error) {
	return m.ListPendingFunc(ctx, cutoff, limit)
}

type approverMock struct {
	AutoApproveFunc func(ctx context.Context, id uuid.UUID, cutoff time.Time, policy domain.AutoApprovePolicy) (bool, error)
	PublishFunc     func(ctx context.Context, id uuid.UUID) (domain.ContentItem, error)

	mu           sync.Mutex
	approveCalls []uuid.UUID
	publishCalls []uuid.UUID
}

func (m *approverMock) AutoApprove(ctx context.Context, id uuid.UUID, cutoff time.Time, policy domain.AutoApprovePolicy) (bool, error) {
	m.mu.Lock()
	m.approveCalls = append(m.approveCalls, id)
	m.mu.Unlock()
	return m.AutoApproveFunc(ctx, id, cutoff, policy)
}

func (m *approverMock) Publish(ctx context.Context, id uuid.UUID) (domain.ContentItem, error) {
	m.mu.Lock()
	m.publishCalls = append(m.publishCalls, id)
	m.mu.Unlock()
	if m.PublishFunc == nil {
		return domain.ContentItem{ID: id, Status: domain.ContentStatusPublished}, nil
	}
	return m.PublishFunc(ctx, id)
}

func (m *approverMock) ApproveCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.approveCalls)
}

func (m *approverMock) PublishCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.publishCalls)
}
