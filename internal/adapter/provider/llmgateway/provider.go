// Package llmgateway calls a multi-provider LLM gateway over HTTP.
package llmgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/heartmarshall/contentflow-backend/internal/provider"
)

// Provider forwards completions to the gateway. upstream is the provider
// name the gateway should route to (e.g. "openai").
type Provider struct {
	url        string
	apiKey     string
	upstream   string
	httpClient *http.Client
	log        *slog.Logger
}

// NewProvider creates a gateway provider posting to url.
func NewProvider(logger *slog.Logger, url, apiKey, upstream string, timeout time.Duration) *Provider {
	return &Provider{
		url:        url,
		apiKey:     apiKey,
		upstream:   upstream,
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.With("adapter", "llmgateway"),
	}
}

// Complete sends one request to the gateway.
func (p *Provider) Complete(ctx context.Context, req provider.CompletionRequest) (provider.CompletionResult, error) {
	payload, err := json.Marshal(gatewayRequest{
		Provider:     p.upstream,
		Model:        req.Model,
		Messages:     req.Messages,
		SystemPrompt: req.System,
		Temperature:  req.Temperature,
		MaxTokens:    req.MaxTokens,
	})
	if err != nil {
		return provider.CompletionResult{}, fmt.Errorf("llmgateway: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(payload))
	if err != nil {
		return provider.CompletionResult{}, fmt.Errorf("llmgateway: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return provider.CompletionResult{}, fmt.Errorf("llmgateway: %w: %w", provider.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return provider.CompletionResult{}, fmt.Errorf("llmgateway: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var e gatewayError
		_ = json.Unmarshal(body, &e)
		if resp.StatusCode >= 500 {
			return provider.CompletionResult{}, fmt.Errorf("llmgateway: %w: status %d: %s", provider.ErrProviderUnavailable, resp.StatusCode, e.describe())
		}
		return provider.CompletionResult{}, fmt.Errorf("llmgateway: status %d: %s", resp.StatusCode, e.describe())
	}

	var out gatewayResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return provider.CompletionResult{}, fmt.Errorf("llmgateway: decode json: %w", err)
	}

	p.log.DebugContext(ctx, "llmgateway response",
		slog.String("model", out.Model),
		slog.Int("input_tokens", out.Usage.InputTokens),
		slog.Int("output_tokens", out.Usage.OutputTokens))

	return provider.CompletionResult{
		Content:      out.Content,
		Model:        out.Model,
		InputTokens:  out.Usage.InputTokens,
		OutputTokens: out.Usage.OutputTokens,
	}, nil
}
