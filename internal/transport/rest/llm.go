package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/heartmarshall/contentflow-backend/internal/domain"
	"github.com/heartmarshall/contentflow-backend/internal/provider"
	"github.com/heartmarshall/contentflow-backend/internal/service/llm"
)

type llmService interface {
	Invoke(ctx context.Context, in llm.Request) (llm.Response, error)
	Providers() []string
}

// LLMHandler exposes the provider-neutral invocation endpoint.
type LLMHandler struct {
	llm llmService
	log *slog.Logger
}

// NewLLMHandler creates an LLMHandler.
func NewLLMHandler(svc llmService, logger *slog.Logger) *LLMHandler {
	return &LLMHandler{
		llm: svc,
		log: logger.With("handler", "llm"),
	}
}

type invokeRequest struct {
	Provider     string             `json:"provider"`
	Model        string             `json:"model"`
	Prompt       string             `json:"prompt"`
	Messages     []provider.Message `json:"messages"`
	SystemPrompt string             `json:"system_prompt"`
	Temperature  *float64           `json:"temperature"`
	MaxTokens    int                `json:"max_tokens"`
	ContentID    *uuid.UUID         `json:"content_id"`
	AgentName    string             `json:"agent_name"`
	Purpose      string             `json:"purpose"`
}

// Invoke runs one completion. Every attempt is recorded as a usage record,
// failures included.
// POST /api/llm/invoke
func (h *LLMHandler) Invoke(w http.ResponseWriter, r *http.Request) {
	var req invokeRequest
	if err := decodeJSON(r, &req, false); err != nil {
		handleError(h.log, w, r, err)
		return
	}

	resp, err := h.llm.Invoke(r.Context(), llm.Request{
		Provider:     req.Provider,
		Model:        req.Model,
		Prompt:       req.Prompt,
		Messages:     req.Messages,
		SystemPrompt: req.SystemPrompt,
		Temperature:  req.Temperature,
		MaxTokens:    req.MaxTokens,
		ContentID:    req.ContentID,
		AgentName:    req.AgentName,
		Purpose:      domain.UsagePurpose(req.Purpose),
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Providers lists the configured provider names.
// GET /api/llm/providers
func (h *LLMHandler) Providers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"providers": h.llm.Providers()})
}
