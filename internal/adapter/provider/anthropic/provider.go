// Package anthropic adapts the Anthropic Messages API to provider.CompletionRequest.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/heartmarshall/contentflow-backend/internal/provider"
)

// Name is the provider key used in usage records.
const Name = "anthropic"

// Provider calls Claude models.
type Provider struct {
	client       anthropic.Client
	defaultModel string
	maxTokens    int
	log          *slog.Logger
}

// Options configures a Provider.
type Options struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
	MaxTokens    int
	Timeout      time.Duration
	MaxRetries   int
}

// NewProvider creates an Anthropic provider.
func NewProvider(logger *slog.Logger, opts Options) *Provider {
	reqOpts := []option.RequestOption{
		option.WithHTTPClient(&http.Client{Timeout: opts.Timeout}),
		option.WithMaxRetries(opts.MaxRetries),
	}
	if opts.APIKey != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	return &Provider{
		client:       anthropic.NewClient(reqOpts...),
		defaultModel: opts.DefaultModel,
		maxTokens:    maxTokens,
		log:          logger.With("adapter", "anthropic"),
	}
}

// Complete sends one Messages API request.
func (p *Provider) Complete(ctx context.Context, req provider.CompletionRequest) (provider.CompletionResult, error) {
	model := req.Model
	if model == "" {
		model = p.defaultModel
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = p.maxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		Messages:  toMessages(req.Messages),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}

	p.log.DebugContext(ctx, "anthropic request",
		slog.String("model", model),
		slog.Int("messages", len(params.Messages)))

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode >= 500 {
			return provider.CompletionResult{}, fmt.Errorf("anthropic: %w: status %d", provider.ErrProviderUnavailable, apiErr.StatusCode)
		}
		return provider.CompletionResult{}, fmt.Errorf("anthropic: messages.new: %w", err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return provider.CompletionResult{
		Content:      text.String(),
		Model:        string(msg.Model),
		InputTokens:  int(msg.Usage.InputTokens),
		OutputTokens: int(msg.Usage.OutputTokens),
	}, nil
}

func toMessages(in []provider.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(in))
	for _, m := range in {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == "assistant" {
			out = append(out, anthropic.NewAssistantMessage(block))
		} else {
			out = append(out, anthropic.NewUserMessage(block))
		}
	}
	return out
}
