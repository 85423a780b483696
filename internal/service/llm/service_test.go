package llm

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/contentflow-backend/internal/domain"
	"github.com/heartmarshall/contentflow-backend/internal/provider"
)

func fixedPricer() *pricerMock {
	return &pricerMock{PriceFunc: func(_, _ string, in, out int) domain.Cost {
		ic := decimal.NewFromInt(int64(in)).Mul(decimal.RequireFromString("0.000003"))
		oc := decimal.NewFromInt(int64(out)).Mul(decimal.RequireFromString("0.000015"))
		return domain.Cost{InputCost: ic, OutputCost: oc, TotalCost: ic.Add(oc)}
	}}
}

func newTestService(c Completer, usage *usageRecorderMock, cfg Config) *Service {
	if cfg.DefaultProvider == "" {
		cfg.DefaultProvider = "anthropic"
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "claude-sonnet-4-5"
	}
	return NewService(slog.Default(), fixedPricer(), usage, cfg, map[string]Completer{"anthropic": c})
}

func TestService_Invoke_Success(t *testing.T) {
	t.Parallel()

	contentID := uuid.New()
	c := &completerMock{CompleteFunc: func(_ context.Context, req provider.CompletionRequest) (provider.CompletionResult, error) {
		return provider.CompletionResult{Content: "draft text", Model: req.Model, InputTokens: 1000, OutputTokens: 2000}, nil
	}}
	usage := &usageRecorderMock{}
	svc := newTestService(c, usage, Config{MaxTokens: 4096})

	resp, err := svc.Invoke(context.Background(), Request{
		Prompt:       "write an article",
		SystemPrompt: "you are an editor",
		ContentID:    &contentID,
		AgentName:    "writer",
		Purpose:      domain.UsagePurposeGeneration,
	})
	require.NoError(t, err)

	assert.Equal(t, "draft text", resp.Content)
	assert.Equal(t, "claude-sonnet-4-5", resp.Model)
	assert.True(t, resp.Cost.TotalCost.Equal(decimal.RequireFromString("0.033")), "total = %s", resp.Cost.TotalCost)

	calls := c.CompleteCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, 4096, calls[0].MaxTokens)
	assert.Equal(t, "you are an editor", calls[0].System)
	require.Len(t, calls[0].Messages, 1)
	assert.Equal(t, "user", calls[0].Messages[0].Role)

	recs := usage.Records()
	require.Len(t, recs, 1)
	rec := recs[0]
	assert.True(t, rec.Success)
	assert.Equal(t, resp.UsageID, rec.ID)
	assert.Equal(t, &contentID, rec.ContentID)
	assert.Equal(t, domain.UsagePurposeGeneration, rec.Purpose)
	assert.Equal(t, 1000, rec.InputTokens)
	assert.Equal(t, 2000, rec.OutputTokens)
	assert.True(t, rec.TotalCost.Equal(resp.Cost.TotalCost))
	assert.Nil(t, rec.ErrorMessage)
}

func TestService_Invoke_FailureRecordsZeroCost(t *testing.T) {
	t.Parallel()

	c := &completerMock{CompleteFunc: func(context.Context, provider.CompletionRequest) (provider.CompletionResult, error) {
		return provider.CompletionResult{}, provider.ErrProviderUnavailable
	}}
	usage := &usageRecorderMock{}
	svc := newTestService(c, usage, Config{})

	_, err := svc.Invoke(context.Background(), Request{Prompt: "hi", Purpose: domain.UsagePurposeVerification})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrLLMCallFailed)
	assert.ErrorIs(t, err, provider.ErrProviderUnavailable)

	recs := usage.Records()
	require.Len(t, recs, 1)
	rec := recs[0]
	assert.False(t, rec.Success)
	assert.Zero(t, rec.InputTokens)
	assert.Zero(t, rec.OutputTokens)
	assert.True(t, rec.TotalCost.IsZero())
	require.NotNil(t, rec.ErrorMessage)
	assert.Contains(t, *rec.ErrorMessage, "unavailable")
}

func TestService_Invoke_Timeout(t *testing.T) {
	t.Parallel()

	c := &completerMock{CompleteFunc: func(ctx context.Context, _ provider.CompletionRequest) (provider.CompletionResult, error) {
		<-ctx.Done()
		return provider.CompletionResult{}, ctx.Err()
	}}
	usage := &usageRecorderMock{}
	svc := newTestService(c, usage, Config{Timeout: 20 * time.Millisecond})

	_, err := svc.Invoke(context.Background(), Request{Prompt: "hi"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrLLMCallFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	recs := usage.Records()
	require.Len(t, recs, 1)
	assert.False(t, recs[0].Success)
	assert.Equal(t, domain.UsagePurposeOther, recs[0].Purpose)
}

func TestService_Invoke_ValidationRecordsNothing(t *testing.T) {
	t.Parallel()

	hot := 3.0
	tests := []struct {
		name string
		req  Request
	}{
		{"empty prompt", Request{}},
		{"bad role", Request{Messages: []provider.Message{{Role: "system", Content: "x"}}}},
		{"temperature", Request{Prompt: "x", Temperature: &hot}},
		{"purpose", Request{Prompt: "x", Purpose: "marketing"}},
		{"unknown provider", Request{Prompt: "x", Provider: "nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := &completerMock{CompleteFunc: func(context.Context, provider.CompletionRequest) (provider.CompletionResult, error) {
				t.Fatal("provider must not be called")
				return provider.CompletionResult{}, nil
			}}
			usage := &usageRecorderMock{}
			svc := newTestService(c, usage, Config{})

			_, err := svc.Invoke(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrValidation))
			assert.Empty(t, usage.Records())
		})
	}
}

func TestService_Providers(t *testing.T) {
	t.Parallel()

	svc := NewService(slog.Default(), fixedPricer(), &usageRecorderMock{}, Config{}, map[string]Completer{
		"gateway":   &completerMock{},
		"anthropic": &completerMock{},
	})
	assert.Equal(t, []string{"anthropic", "gateway"}, svc.Providers())
}
