package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UsagePurpose classifies an LLM call for cost reporting.
type UsagePurpose string

const (
	UsagePurposeGeneration   UsagePurpose = "generation"
	UsagePurposeVerification UsagePurpose = "verification"
	UsagePurposeOther        UsagePurpose = "other"
)

func (p UsagePurpose) IsValid() bool {
	switch p {
	case UsagePurposeGeneration, UsagePurposeVerification, UsagePurposeOther:
		return true
	}
	return false
}

// Cost is the priced token usage of a single call.
type Cost struct {
	InputCost  decimal.Decimal `json:"input_cost"`
	OutputCost decimal.Decimal `json:"output_cost"`
	TotalCost  decimal.Decimal `json:"total_cost"`
}

// UsageRecord is the append-only audit row of one LLM call attempt.
// A failed call is recorded with zero tokens, zero cost and Success=false.
type UsageRecord struct {
	ID           uuid.UUID       `json:"id"`
	ContentID    *uuid.UUID      `json:"content_id,omitempty"`
	Provider     string          `json:"provider"`
	Model        string          `json:"model"`
	AgentName    string          `json:"agent_name,omitempty"`
	Purpose      UsagePurpose    `json:"purpose"`
	InputTokens  int             `json:"input_tokens"`
	OutputTokens int             `json:"output_tokens"`
	InputCost    decimal.Decimal `json:"input_cost"`
	OutputCost   decimal.Decimal `json:"output_cost"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	DurationMs   int             `json:"duration_ms"`
	Success      bool            `json:"success"`
	ErrorMessage *string         `json:"error_message,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// UsageAggregate is the per-item roll-up of usage records.
type UsageAggregate struct {
	GenerationCost   decimal.Decimal
	VerificationCost decimal.Decimal
	OtherCost        decimal.Decimal
	TotalCost        decimal.Decimal
	SuccessfulCalls  int
	FailedCalls      int
	InputTokens      int64
	OutputTokens     int64
}

// CostSummary is the budget view of a content item.
type CostSummary struct {
	ContentID        uuid.UUID       `json:"content_id"`
	GenerationCost   decimal.Decimal `json:"generation_cost"`
	VerificationCost decimal.Decimal `json:"verification_cost"`
	TotalCost        decimal.Decimal `json:"total_cost"`
	SuccessfulCalls  int             `json:"successful_calls"`
	FailedCalls      int             `json:"failed_calls"`
	Budget           decimal.Decimal `json:"budget"`
	WithinBudget     bool            `json:"within_budget"`
}
