package config

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/heartmarshall/contentflow-backend/internal/domain"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if err := c.Workflow.validate(); err != nil {
		return fmt.Errorf("workflow: %w", err)
	}
	if err := c.Links.validate(); err != nil {
		return fmt.Errorf("links: %w", err)
	}
	if err := c.Validation.validate(); err != nil {
		return fmt.Errorf("validation: %w", err)
	}
	if err := c.Cost.validate(); err != nil {
		return fmt.Errorf("cost: %w", err)
	}
	if err := c.UsageQueue.validate(); err != nil {
		return fmt.Errorf("usage_queue: %w", err)
	}
	switch c.LLM.Provider {
	case "anthropic", "gateway":
	default:
		return fmt.Errorf("llm: provider must be anthropic or gateway (got %q)", c.LLM.Provider)
	}
	if c.LLM.Provider == "gateway" && c.LLM.BaseURL == "" {
		return fmt.Errorf("llm: base_url is required for the gateway provider")
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("llm: timeout must be > 0 (got %v)", c.LLM.Timeout)
	}
	if c.CMS.Timeout <= 0 {
		return fmt.Errorf("cms: timeout must be > 0 (got %v)", c.CMS.Timeout)
	}
	if c.RateLimit.LLMInvoke < 0 || c.RateLimit.Webhook < 0 {
		return fmt.Errorf("rate_limit: limits must be >= 0")
	}
	if c.RateLimit.CleanupInterval <= 0 {
		return fmt.Errorf("rate_limit: cleanup_interval must be > 0 (got %v)", c.RateLimit.CleanupInterval)
	}
	return nil
}

func (w *WorkflowConfig) validate() error {
	if w.SLAWindowDays <= 0 {
		return fmt.Errorf("sla_window_days must be > 0 (got %d)", w.SLAWindowDays)
	}
	if w.SweepInterval <= 0 {
		return fmt.Errorf("sweep_interval must be > 0 (got %v)", w.SweepInterval)
	}
	if w.PublishClaimTTL <= 0 {
		return fmt.Errorf("publish_claim_ttl must be > 0 (got %v)", w.PublishClaimTTL)
	}
	if w.SweepConcurrency < 1 {
		return fmt.Errorf("sweep_concurrency must be >= 1 (got %d)", w.SweepConcurrency)
	}
	if w.SweepBatchSize < 1 {
		return fmt.Errorf("sweep_batch_size must be >= 1 (got %d)", w.SweepBatchSize)
	}
	if !domain.AutoApprovePolicy(w.AutoApprovePolicy).IsValid() {
		return fmt.Errorf("auto_approve_policy must be %q or %q (got %q)",
			domain.AutoApproveRequireValid, domain.AutoApproveElapsedTime, w.AutoApprovePolicy)
	}
	return nil
}

// Policy returns the typed auto-approve policy.
func (w WorkflowConfig) Policy() domain.AutoApprovePolicy {
	return domain.AutoApprovePolicy(w.AutoApprovePolicy)
}

func (l *LinksConfig) validate() error {
	if strings.TrimSpace(l.SiteDomain) == "" {
		return fmt.Errorf("site_domain is required")
	}
	l.AffiliateDomains = ParseList(l.AffiliateDomainsRaw)

	switch l.Mode {
	case "local":
	case "remote":
		if l.RemoteURL == "" {
			return fmt.Errorf("remote_url is required in remote mode")
		}
		if l.RemoteTimeout <= 0 {
			return fmt.Errorf("remote_timeout must be > 0 (got %v)", l.RemoteTimeout)
		}
	default:
		return fmt.Errorf("mode must be local or remote (got %q)", l.Mode)
	}
	return nil
}

func (v *ValidationConfig) validate() error {
	if v.MinInternalLinks < 0 || v.MaxInternalLinks < v.MinInternalLinks {
		return fmt.Errorf("internal link bounds [%d,%d] are invalid", v.MinInternalLinks, v.MaxInternalLinks)
	}
	if v.MinExternalLinks < 0 {
		return fmt.Errorf("min_external_links must be >= 0 (got %d)", v.MinExternalLinks)
	}
	if v.MinWords <= 0 || v.MaxWords < v.MinWords {
		return fmt.Errorf("word bounds [%d,%d] are invalid", v.MinWords, v.MaxWords)
	}
	if v.MinTitleLength < 0 || v.MaxTitleLength < v.MinTitleLength {
		return fmt.Errorf("title length bounds [%d,%d] are invalid", v.MinTitleLength, v.MaxTitleLength)
	}
	if v.MinMetaLength < 0 || v.MaxMetaLength < v.MinMetaLength {
		return fmt.Errorf("meta length bounds [%d,%d] are invalid", v.MinMetaLength, v.MaxMetaLength)
	}
	if v.WordCountMargin < 0 || v.WordCountMargin >= 1 {
		return fmt.Errorf("word_count_margin must be in [0,1) (got %v)", v.WordCountMargin)
	}
	return nil
}

func (c *CostConfig) validate() error {
	var err error
	if c.Budget, err = parsePrice("budget", c.BudgetRaw); err != nil {
		return err
	}
	if c.DefaultInput, err = parsePrice("default_input_price", c.DefaultInputRaw); err != nil {
		return err
	}
	if c.DefaultOutput, err = parsePrice("default_output_price", c.DefaultOutputRaw); err != nil {
		return err
	}
	if c.ModelPrices, err = ParseModelPrices(c.ModelPricesRaw); err != nil {
		return fmt.Errorf("model_prices: %w", err)
	}
	return nil
}

func (q *UsageQueueConfig) validate() error {
	switch q.Backend {
	case "memory":
		if q.Capacity < 1 {
			return fmt.Errorf("capacity must be >= 1 (got %d)", q.Capacity)
		}
	case "redis":
		if q.RedisAddr == "" {
			return fmt.Errorf("redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("backend must be memory or redis (got %q)", q.Backend)
	}
	if q.BatchSize < 1 {
		return fmt.Errorf("batch_size must be >= 1 (got %d)", q.BatchSize)
	}
	if q.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be >= 0 (got %d)", q.MaxRetries)
	}
	return nil
}

func parsePrice(field, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: invalid amount %q: %w", field, raw, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must be >= 0 (got %s)", field, d)
	}
	return d, nil
}

// ParseList splits a comma-separated string into trimmed, lower-cased, non-empty items.
func ParseList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseModelPrices parses "provider/model=input:output" pairs separated by commas,
// prices given per million tokens. An empty string returns a nil slice.
func ParseModelPrices(raw string) ([]ModelPrice, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var prices []ModelPrice
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		key, value, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("entry %q: missing '='", entry)
		}
		provider, model, ok := strings.Cut(strings.TrimSpace(key), "/")
		if !ok || provider == "" || model == "" {
			return nil, fmt.Errorf("entry %q: key must be provider/model", entry)
		}
		in, out, ok := strings.Cut(value, ":")
		if !ok {
			return nil, fmt.Errorf("entry %q: price must be input:output", entry)
		}

		inPrice, err := parsePrice(key+" input", in)
		if err != nil {
			return nil, err
		}
		outPrice, err := parsePrice(key+" output", out)
		if err != nil {
			return nil, err
		}

		prices = append(prices, ModelPrice{
			Provider: strings.ToLower(provider),
			Model:    model,
			Input:    inPrice,
			Output:   outPrice,
		})
	}
	return prices, nil
}
