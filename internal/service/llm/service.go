// Package llm invokes language models and accounts for every attempt.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/contentflow-backend/internal/domain"
	"github.com/heartmarshall/contentflow-backend/internal/provider"
)

// Completer is implemented by the model provider adapters.
type Completer interface {
	Complete(ctx context.Context, req provider.CompletionRequest) (provider.CompletionResult, error)
}

type pricer interface {
	Price(provider, model string, inputTokens, outputTokens int) domain.Cost
}

type usageRecorder interface {
	Record(ctx context.Context, rec domain.UsageRecord)
}

// Config holds invocation defaults.
type Config struct {
	DefaultProvider string
	DefaultModel    string
	MaxTokens       int
	Timeout         time.Duration
}

// Service routes requests to providers.
type Service struct {
	providers map[string]Completer
	prices    pricer
	usage     usageRecorder
	cfg       Config
	log       *slog.Logger
}

// NewService creates an LLM service over the given providers, keyed by name.
func NewService(
	log *slog.Logger,
	prices pricer,
	usage usageRecorder,
	cfg Config,
	providers map[string]Completer,
) *Service {
	return &Service{
		providers: providers,
		prices:    prices,
		usage:     usage,
		cfg:       cfg,
		log:       log.With("service", "llm"),
	}
}

// Providers returns the registered provider names.
func (s *Service) Providers() []string {
	names := make([]string, 0, len(s.providers))
	for name := range s.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke performs one model call. Exactly one usage record is written per
// call that reaches a provider; a failed call is recorded with zero tokens
// and zero cost and the returned error wraps domain.ErrLLMCallFailed.
func (s *Service) Invoke(ctx context.Context, in Request) (Response, error) {
	if err := in.Validate(); err != nil {
		return Response{}, err
	}

	name := in.Provider
	if name == "" {
		name = s.cfg.DefaultProvider
	}
	p, ok := s.providers[name]
	if !ok {
		return Response{}, domain.NewValidationError("provider", fmt.Sprintf("unknown provider %q", name))
	}

	model := in.Model
	if model == "" {
		model = s.cfg.DefaultModel
	}
	maxTokens := in.MaxTokens
	if maxTokens == 0 {
		maxTokens = s.cfg.MaxTokens
	}

	callCtx := ctx
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := p.Complete(callCtx, provider.CompletionRequest{
		Model:       model,
		System:      in.SystemPrompt,
		Messages:    in.messages(),
		Temperature: in.Temperature,
		MaxTokens:   maxTokens,
	})
	elapsed := time.Since(start)

	rec := domain.UsageRecord{
		ID:         uuid.New(),
		ContentID:  in.ContentID,
		Provider:   name,
		Model:      model,
		AgentName:  in.AgentName,
		Purpose:    in.purpose(),
		DurationMs: int(elapsed.Milliseconds()),
		CreatedAt:  time.Now().UTC(),
	}

	if err != nil {
		msg := err.Error()
		rec.ErrorMessage = &msg
		s.usage.Record(ctx, rec)

		s.log.ErrorContext(ctx, "llm call failed",
			slog.String("provider", name),
			slog.String("model", model),
			slog.Duration("duration", elapsed),
			slog.String("error", msg))
		return Response{}, fmt.Errorf("invoke %s/%s: %w: %w", name, model, domain.ErrLLMCallFailed, err)
	}

	if res.Model != "" {
		rec.Model = res.Model
	}
	cost := s.prices.Price(name, rec.Model, res.InputTokens, res.OutputTokens)
	rec.Success = true
	rec.InputTokens = res.InputTokens
	rec.OutputTokens = res.OutputTokens
	rec.InputCost = cost.InputCost
	rec.OutputCost = cost.OutputCost
	rec.TotalCost = cost.TotalCost
	s.usage.Record(ctx, rec)

	s.log.InfoContext(ctx, "llm call completed",
		slog.String("provider", name),
		slog.String("model", rec.Model),
		slog.Int("input_tokens", res.InputTokens),
		slog.Int("output_tokens", res.OutputTokens),
		slog.String("total_cost", cost.TotalCost.String()),
		slog.Duration("duration", elapsed))

	return Response{
		Content: res.Content,
		Model:   rec.Model,
		Usage:   Usage{InputTokens: res.InputTokens, OutputTokens: res.OutputTokens},
		Cost:    cost,
		UsageID: rec.ID,
	}, nil
}
