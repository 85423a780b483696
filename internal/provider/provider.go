// Package provider holds the request and result types shared by the
// external-service adapters.
package provider

import "errors"

// ErrProviderUnavailable marks transport failures and 5xx answers from a provider.
var ErrProviderUnavailable = errors.New("provider unavailable")

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is a provider-neutral LLM request.
type CompletionRequest struct {
	Model       string
	System      string
	Messages    []Message
	Temperature *float64
	MaxTokens   int
}

// CompletionResult is the text and token usage of one completion.
type CompletionResult struct {
	Content      string
	Model        string
	InputTokens  int
	OutputTokens int
}

// PublishRequest is the content pushed to the CMS.
type PublishRequest struct {
	Title           string
	Body            string
	MetaTitle       string
	MetaDescription string
	Keywords        []string
}

// PublishResult identifies the post created by the CMS.
type PublishResult struct {
	RemoteID string
	URL      string
}
