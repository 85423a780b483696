package llm

import (
	"context"
	"sync"

	"github.com/heartmarshall/contentflow-backend/internal/domain"
	"github.com/heartmarshall/contentflow-backend/internal/provider"
)

//go:generate moq -out mocks_test.go -pkg llm . Completer pricer usageRecorder

var (
	_ Completer     = &completerMock{}
	_ pricer        = &pricerMock{}
	_ usageRecorder = &usageRecorderMock{}
)

type completerMock struct {
	CompleteFunc func(ctx context.Context, req provider.CompletionRequest) (provider.CompletionResult, error)

	mu    sync.Mutex
	calls []provider.CompletionRequest
}

func (m *completerMock) Complete(ctx context.Context, req provider.CompletionRequest) (provider.CompletionResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()
	return m.CompleteFunc(ctx, req)
}

func (m *completerMock) CompleteCalls() []provider.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]provider.CompletionRequest(nil), m.calls...)
}

type pricerMock struct {
	PriceFunc func(provider, model string, inputTokens, outputTokens int) domain.Cost
}

func (m *pricerMock) Price(p, model string, inputTokens, outputTokens int) domain.Cost {
	return m.PriceFunc(p, model, inputTokens, outputTokens)
}

type usageRecorderMock struct {
	mu      sync.Mutex
	records []domain.UsageRecord
}

func (m *usageRecorderMock) Record(_ context.Context, rec domain.UsageRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
}

func (m *usageRecorderMock) Records() []domain.UsageRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.UsageRecord(nil), m.records...)
}
