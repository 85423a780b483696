package llm

import (
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/contentflow-backend/internal/domain"
	"github.com/heartmarshall/contentflow-backend/internal/provider"
)

// Request is one invocation. Either Prompt or Messages must be set.
type Request struct {
	Provider     string
	Model        string
	Prompt       string
	Messages     []provider.Message
	SystemPrompt string
	Temperature  *float64
	MaxTokens    int
	ContentID    *uuid.UUID
	AgentName    string
	Purpose      domain.UsagePurpose
}

// Validate checks all fields and collects all errors.
func (r Request) Validate() error {
	var errs []domain.FieldError

	if strings.TrimSpace(r.Prompt) == "" && len(r.Messages) == 0 {
		errs = append(errs, domain.FieldError{Field: "prompt", Message: "prompt or messages required"})
	}
	for _, m := range r.Messages {
		if m.Role != "user" && m.Role != "assistant" {
			errs = append(errs, domain.FieldError{Field: "messages", Message: "role must be user or assistant"})
			break
		}
	}
	if r.Temperature != nil && (*r.Temperature < 0 || *r.Temperature > 2) {
		errs = append(errs, domain.FieldError{Field: "temperature", Message: "must be between 0 and 2"})
	}
	if r.MaxTokens < 0 {
		errs = append(errs, domain.FieldError{Field: "max_tokens", Message: "must be non-negative"})
	}
	if r.Purpose != "" && !r.Purpose.IsValid() {
		errs = append(errs, domain.FieldError{Field: "purpose", Message: "must be generation, verification or other"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

func (r Request) messages() []provider.Message {
	if len(r.Messages) > 0 {
		return r.Messages
	}
	return []provider.Message{{Role: "user", Content: r.Prompt}}
}

func (r Request) purpose() domain.UsagePurpose {
	if r.Purpose == "" {
		return domain.UsagePurposeOther
	}
	return r.Purpose
}

// Usage is the token usage of a response.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Response is the result of a successful invocation.
type Response struct {
	Content string      `json:"content"`
	Model   string      `json:"model"`
	Usage   Usage       `json:"usage"`
	Cost    domain.Cost `json:"cost"`
	UsageID uuid.UUID   `json:"usage_id"`
}
