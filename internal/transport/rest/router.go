package rest

import (
	"log/slog"
	"net/http"

	"github.com/heartmarshall/contentflow-backend/internal/config"
	"github.com/heartmarshall/contentflow-backend/internal/transport/middleware"
)

// Handlers groups every REST handler mounted by NewRouter.
type Handlers struct {
	Health  *HealthHandler
	Content *ContentHandler
	LLM     *LLMHandler
	Webhook *WebhookHandler
}

// RouterConfig holds the transport settings of the router.
type RouterConfig struct {
	CORS      config.CORSConfig
	RateLimit config.RateLimitConfig
}

// NewRouter builds the HTTP handler tree. The caller owns the rate limiter
// and stops it on shutdown.
func NewRouter(log *slog.Logger, h Handlers, cfg RouterConfig, rl *middleware.RateLimiter) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /live", h.Health.Live)
	mux.HandleFunc("GET /ready", h.Health.Ready)
	mux.HandleFunc("GET /health", h.Health.Health)

	mux.HandleFunc("POST /api/content", h.Content.Create)
	mux.HandleFunc("GET /api/content", h.Content.List)
	mux.HandleFunc("GET /api/content/{id}", h.Content.Get)
	mux.HandleFunc("PATCH /api/content/{id}", h.Content.Update)
	mux.HandleFunc("DELETE /api/content/{id}", h.Content.Delete)
	mux.HandleFunc("POST /api/content/{id}/submit", h.Content.Submit)
	mux.HandleFunc("POST /api/content/{id}/approve", h.Content.Approve)
	mux.HandleFunc("POST /api/content/{id}/reject", h.Content.Reject)
	mux.HandleFunc("POST /api/content/{id}/rewrite", h.Content.Rewrite)
	mux.HandleFunc("POST /api/content/{id}/comments", h.Content.Comment)
	mux.HandleFunc("POST /api/content/{id}/publish", h.Content.Publish)
	mux.HandleFunc("GET /api/content/{id}/feedback", h.Content.Feedback)
	mux.HandleFunc("GET /api/content/{id}/validations", h.Content.Validations)
	mux.HandleFunc("GET /api/content/{id}/sla", h.Content.SLA)
	mux.HandleFunc("GET /api/content/{id}/cost", h.Content.Cost)

	mux.Handle("POST /api/llm/invoke",
		rl.Limit(cfg.RateLimit.LLMInvoke, middleware.ByActor)(http.HandlerFunc(h.LLM.Invoke)))
	mux.HandleFunc("GET /api/llm/providers", h.LLM.Providers)

	// Registered without a method so the handler answers 405 itself.
	mux.Handle("/webhooks/publish-confirmation",
		rl.Limit(cfg.RateLimit.Webhook, middleware.ByRemoteIP)(http.HandlerFunc(h.Webhook.PublishConfirmation)))

	return middleware.Chain(
		middleware.RequestID,
		middleware.Recovery(log),
		middleware.Actor,
		middleware.Logger(log),
		middleware.CORS(cfg.CORS),
	)(mux)
}
