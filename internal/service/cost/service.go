// Package cost prices LLM calls, records their usage and reports per-item
// spend against the budget.
package cost

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/heartmarshall/contentflow-backend/internal/domain"
)

type usageAggregator interface {
	Aggregate(ctx context.Context, contentID uuid.UUID) (domain.UsageAggregate, error)
}

// Accountant prices calls and summarises spend.
type Accountant struct {
	prices PriceTable
	budget decimal.Decimal
	usage  usageAggregator
	log    *slog.Logger
}

// NewAccountant creates an Accountant. Budget is advisory; it never blocks a
// workflow transition.
func NewAccountant(log *slog.Logger, usage usageAggregator, prices PriceTable, budget decimal.Decimal) *Accountant {
	return &Accountant{
		prices: prices,
		budget: budget,
		usage:  usage,
		log:    log.With("service", "cost"),
	}
}

// Price returns the cost of a call.
func (a *Accountant) Price(provider, model string, inputTokens, outputTokens int) domain.Cost {
	if _, listed := a.prices.Lookup(provider, model); !listed {
		a.log.Debug("unknown model priced at default tier",
			slog.String("provider", provider),
			slog.String("model", model))
	}
	return a.prices.Price(provider, model, inputTokens, outputTokens)
}

// Summary aggregates the successful calls of an item.
func (a *Accountant) Summary(ctx context.Context, contentID uuid.UUID) (domain.CostSummary, error) {
	agg, err := a.usage.Aggregate(ctx, contentID)
	if err != nil {
		return domain.CostSummary{}, fmt.Errorf("aggregate usage: %w", err)
	}

	s := domain.CostSummary{
		ContentID:        contentID,
		GenerationCost:   agg.GenerationCost,
		VerificationCost: agg.VerificationCost,
		TotalCost:        agg.TotalCost,
		SuccessfulCalls:  agg.SuccessfulCalls,
		FailedCalls:      agg.FailedCalls,
		Budget:           a.budget,
		WithinBudget:     agg.TotalCost.LessThan(a.budget),
	}

	if !s.WithinBudget {
		a.log.WarnContext(ctx, "content over budget",
			slog.String("content_id", contentID.String()),
			slog.String("total_cost", s.TotalCost.StringFixed(2)),
			slog.String("budget", a.budget.StringFixed(2)))
	}
	return s, nil
}
