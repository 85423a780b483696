package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/heartmarshall/contentflow-backend/internal/adapter/postgres"
	"github.com/heartmarshall/contentflow-backend/internal/adapter/postgres/content"
	"github.com/heartmarshall/contentflow-backend/internal/adapter/postgres/feedback"
	"github.com/heartmarshall/contentflow-backend/internal/adapter/postgres/usage"
	"github.com/heartmarshall/contentflow-backend/internal/adapter/postgres/validationlog"
	"github.com/heartmarshall/contentflow-backend/internal/adapter/provider/anthropic"
	"github.com/heartmarshall/contentflow-backend/internal/adapter/provider/cms"
	"github.com/heartmarshall/contentflow-backend/internal/adapter/provider/llmgateway"
	"github.com/heartmarshall/contentflow-backend/internal/config"
	"github.com/heartmarshall/contentflow-backend/internal/domain"
	"github.com/heartmarshall/contentflow-backend/internal/queue"
	"github.com/heartmarshall/contentflow-backend/internal/service/cost"
	"github.com/heartmarshall/contentflow-backend/internal/service/linkify"
	"github.com/heartmarshall/contentflow-backend/internal/service/llm"
	"github.com/heartmarshall/contentflow-backend/internal/service/sla"
	"github.com/heartmarshall/contentflow-backend/internal/service/validation"
	"github.com/heartmarshall/contentflow-backend/internal/service/workflow"
	"github.com/heartmarshall/contentflow-backend/internal/transport/rest"
)

// GatewayProvider is the provider name of the generic HTTP LLM gateway.
const GatewayProvider = "gateway"

// components holds every wired service of one process.
type components struct {
	workflow   *workflow.Service
	scheduler  *sla.Scheduler
	accountant *cost.Accountant
	llm        *llm.Service
	worker     *cost.Worker
	usageQueue queue.Queue[domain.UsageRecord]
	health     map[string]rest.Pinger
	closers    []func() error
}

func newComponents(ctx context.Context, log *slog.Logger, cfg *config.Config, pool *pgxpool.Pool) (*components, error) {
	c := &components{health: map[string]rest.Pinger{"database": pool}}

	// Repositories.
	contentRepo := content.New(pool)
	feedbackRepo := feedback.New(pool)
	usageRepo := usage.New(pool)
	validationRepo := validationlog.New(pool)
	txManager := postgres.NewTxManager(pool)

	// Usage pipeline: recorder -> queue -> worker -> usage_records.
	q, err := c.newUsageQueue(ctx, log, cfg.UsageQueue)
	if err != nil {
		return nil, err
	}
	c.usageQueue = q
	recorder := cost.NewRecorder(log, q)
	c.worker = cost.NewWorker(log, q, usageRepo, contentRepo, cost.WorkerConfig{
		BatchSize:    cfg.UsageQueue.BatchSize,
		BatchTimeout: cfg.UsageQueue.BatchTimeout,
		MaxRetries:   cfg.UsageQueue.MaxRetries,
		RetryBackoff: cfg.UsageQueue.RetryBackoff,
	})

	c.accountant = cost.NewAccountant(log, usageRepo, priceTable(cfg.Cost), cfg.Cost.Budget)
	c.llm = llm.NewService(log, c.accountant, recorder, llm.Config{
		DefaultProvider: cfg.LLM.Provider,
		DefaultModel:    cfg.LLM.DefaultModel,
		MaxTokens:       cfg.LLM.MaxTokens,
		Timeout:         cfg.LLM.Timeout,
	}, newCompleters(log, cfg.LLM))

	rules := validationRules(cfg.Validation)
	gate := validation.NewGate(log, validationRepo, rules)
	publisher := cms.NewProvider(log, cms.Options{
		BaseURL:     cfg.CMS.BaseURL,
		Username:    cfg.CMS.Username,
		AppPassword: cfg.CMS.AppPassword,
		PostStatus:  cfg.CMS.PostStatus,
		Timeout:     cfg.CMS.Timeout,
	})

	c.workflow = workflow.NewService(log, contentRepo, feedbackRepo, validationRepo, txManager,
		newTransformer(log, cfg.Links), gate, publisher,
		workflow.Config{SLAWindow: cfg.Workflow.SLAWindow(), PublishClaimTTL: cfg.Workflow.PublishClaimTTL})

	c.scheduler = sla.NewScheduler(log, contentRepo, c.workflow, sla.Config{
		Window:      cfg.Workflow.SLAWindow(),
		Interval:    cfg.Workflow.SweepInterval,
		Concurrency: cfg.Workflow.SweepConcurrency,
		BatchSize:   cfg.Workflow.SweepBatchSize,
		Policy:      cfg.Workflow.Policy(),
		AutoPublish: cfg.Workflow.AutoPublishOnApprove,
	})

	return c, nil
}

func (c *components) newUsageQueue(ctx context.Context, log *slog.Logger, cfg config.UsageQueueConfig) (queue.Queue[domain.UsageRecord], error) {
	if cfg.Backend != "redis" {
		q := queue.NewMemoryQueue[domain.UsageRecord](cfg.Capacity)
		c.closers = append(c.closers, q.Close)
		return q, nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	q := queue.NewRedisQueue[domain.UsageRecord](client, cfg.RedisKey)
	if err := q.Ping(ctx); err != nil {
		client.Close() //nolint:errcheck
		return nil, fmt.Errorf("connect usage queue: %w", err)
	}
	if n, err := q.DeadLetters().Length(ctx); err == nil && n > 0 {
		log.WarnContext(ctx, "usage queue has dead letters",
			slog.String("key", "dlq:"+cfg.RedisKey),
			slog.Int("count", n))
	}
	c.health["usage_queue"] = q
	c.closers = append(c.closers, q.Close)
	return q, nil
}

// close releases queues and clients in registration order.
func (c *components) close(log *slog.Logger) {
	for _, fn := range c.closers {
		if err := fn(); err != nil {
			log.Warn("close component", slog.String("error", err.Error()))
		}
	}
}

func newCompleters(log *slog.Logger, cfg config.LLMConfig) map[string]llm.Completer {
	completers := map[string]llm.Completer{
		anthropic.Name: anthropic.NewProvider(log, anthropic.Options{
			APIKey:       cfg.APIKey,
			BaseURL:      anthropicBaseURL(cfg),
			DefaultModel: cfg.DefaultModel,
			MaxTokens:    cfg.MaxTokens,
			Timeout:      cfg.Timeout,
			MaxRetries:   cfg.MaxRetries,
		}),
	}
	if cfg.Provider == GatewayProvider {
		completers[GatewayProvider] = llmgateway.NewProvider(log, cfg.BaseURL, cfg.APIKey, cfg.GatewayUpstream, cfg.Timeout)
	}
	return completers
}

// anthropicBaseURL keeps the gateway URL away from the Anthropic client.
func anthropicBaseURL(cfg config.LLMConfig) string {
	if cfg.Provider == GatewayProvider {
		return ""
	}
	return cfg.BaseURL
}

func newTransformer(log *slog.Logger, cfg config.LinksConfig) linkify.Transformer {
	if cfg.Mode == "remote" {
		return linkify.NewRemote(log, cfg.RemoteURL, cfg.RemoteTimeout)
	}
	return linkify.NewLocal(log, linkify.NewClassifier(cfg.SiteDomain, cfg.AffiliateDomains))
}

func priceTable(cfg config.CostConfig) cost.PriceTable {
	models := make([]cost.ModelPrice, len(cfg.ModelPrices))
	for i, mp := range cfg.ModelPrices {
		models[i] = cost.ModelPrice{
			Provider: mp.Provider,
			Model:    mp.Model,
			Price:    cost.Price{Input: mp.Input, Output: mp.Output},
		}
	}
	return cost.NewPriceTable(cost.Price{Input: cfg.DefaultInput, Output: cfg.DefaultOutput}, models)
}

func validationRules(cfg config.ValidationConfig) validation.Rules {
	return validation.Rules{
		MinInternalLinks: cfg.MinInternalLinks,
		MaxInternalLinks: cfg.MaxInternalLinks,
		MinExternalLinks: cfg.MinExternalLinks,
		MinWords:         cfg.MinWords,
		MaxWords:         cfg.MaxWords,
		MinTitleLength:   cfg.MinTitleLength,
		MaxTitleLength:   cfg.MaxTitleLength,
		MinMetaLength:    cfg.MinMetaLength,
		MaxMetaLength:    cfg.MaxMetaLength,
		WordCountMargin:  cfg.WordCountMargin,
	}
}
