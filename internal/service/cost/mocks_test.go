package cost

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/heartmarshall/contentflow-backend/internal/domain"
)

var (
	_ usageAggregator = &usageAggregatorMock{}
	_ usageWriter     = &usageWriterMock{}
	_ costCache       = &costCacheMock{}
)

type usageAggregatorMock struct {
	AggregateFunc func(ctx context.Context, contentID uuid.UUID) (domain.UsageAggregate, error)
}

func (m *usageAggregatorMock) Aggregate(ctx context.Context, contentID uuid.UUID) (domain.UsageAggregate, error) {
	return m.AggregateFunc(ctx, contentID)
}

type usageWriterMock struct {
	InsertBatchFunc func(ctx context.Context, recs []domain.UsageRecord) error
	InsertFunc      func(ctx context.Context, rec domain.UsageRecord) error

	mu          sync.Mutex
	batchCalls  int
	insertCalls int
	stored      []domain.UsageRecord
}

func (m *usageWriterMock) InsertBatch(ctx context.Context, recs []domain.UsageRecord) error {
	m.mu.Lock()
	m.batchCalls++
	m.mu.Unlock()
	if m.InsertBatchFunc != nil {
		if err := m.InsertBatchFunc(ctx, recs); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.stored = append(m.stored, recs...)
	m.mu.Unlock()
	return nil
}

func (m *usageWriterMock) Insert(ctx context.Context, rec domain.UsageRecord) error {
	m.mu.Lock()
	m.insertCalls++
	m.mu.Unlock()
	if m.InsertFunc != nil {
		if err := m.InsertFunc(ctx, rec); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.stored = append(m.stored, rec)
	m.mu.Unlock()
	return nil
}

func (m *usageWriterMock) Stored() []domain.UsageRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.UsageRecord(nil), m.stored...)
}

type costCacheMock struct {
	mu    sync.Mutex
	calls []uuid.UUID
}

func (m *costCacheMock) RecomputeCosts(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, id)
	return nil
}

func (m *costCacheMock) Calls() []uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uuid.UUID(nil), m.calls...)
}
