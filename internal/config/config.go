package config

import (
	"time"

	"github.com/shopspring/decimal"
)

// Config is the root application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Log        LogConfig        `yaml:"log"`
	CORS       CORSConfig       `yaml:"cors"`
	Workflow   WorkflowConfig   `yaml:"workflow"`
	Links      LinksConfig      `yaml:"links"`
	Validation ValidationConfig `yaml:"validation"`
	Cost       CostConfig       `yaml:"cost"`
	UsageQueue UsageQueueConfig `yaml:"usage_queue"`
	LLM        LLMConfig        `yaml:"llm"`
	CMS        CMSConfig        `yaml:"cms"`
	Webhook    WebhookConfig    `yaml:"webhook"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins   string `yaml:"allowed_origins"   env:"CORS_ALLOWED_ORIGINS"   env-default:"*"`
	AllowedMethods   string `yaml:"allowed_methods"   env:"CORS_ALLOWED_METHODS"   env-default:"GET,POST,PATCH,DELETE,OPTIONS"`
	AllowedHeaders   string `yaml:"allowed_headers"   env:"CORS_ALLOWED_HEADERS"   env-default:"Content-Type,X-Actor,X-Request-Id"`
	AllowCredentials bool   `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"false"`
	MaxAge           int    `yaml:"max_age"           env:"CORS_MAX_AGE"           env-default:"86400"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"180s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
	// StatementTimeout bounds every statement server-side; zero leaves the server default.
	StatementTimeout time.Duration `yaml:"statement_timeout" env:"DATABASE_STATEMENT_TIMEOUT" env-default:"30s"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// WorkflowConfig holds review SLA and approval settings.
type WorkflowConfig struct {
	SLAWindowDays        int           `yaml:"sla_window_days"         env:"WORKFLOW_SLA_WINDOW_DAYS"         env-default:"5"`
	SweepInterval        time.Duration `yaml:"sweep_interval"          env:"WORKFLOW_SWEEP_INTERVAL"          env-default:"1m"`
	SweepConcurrency     int           `yaml:"sweep_concurrency"       env:"WORKFLOW_SWEEP_CONCURRENCY"       env-default:"4"`
	SweepBatchSize       int           `yaml:"sweep_batch_size"        env:"WORKFLOW_SWEEP_BATCH_SIZE"        env-default:"200"`
	AutoApprovePolicy    string        `yaml:"auto_approve_policy"     env:"WORKFLOW_AUTO_APPROVE_POLICY"     env-default:"require_valid"`
	AutoPublishOnApprove bool          `yaml:"auto_publish_on_approve" env:"WORKFLOW_AUTO_PUBLISH_ON_APPROVE" env-default:"false"`
	SchedulerEnabled     bool          `yaml:"scheduler_enabled"       env:"WORKFLOW_SCHEDULER_ENABLED"       env-default:"true"`
	PublishClaimTTL      time.Duration `yaml:"publish_claim_ttl"       env:"WORKFLOW_PUBLISH_CLAIM_TTL"       env-default:"10m"`
}

// SLAWindow returns the review window as a duration.
func (c WorkflowConfig) SLAWindow() time.Duration {
	return time.Duration(c.SLAWindowDays) * 24 * time.Hour
}

// LinksConfig holds link transformer settings.
type LinksConfig struct {
	SiteDomain          string        `yaml:"site_domain"       env:"LINKS_SITE_DOMAIN"       env-default:"example.com"`
	AffiliateDomainsRaw string        `yaml:"affiliate_domains" env:"LINKS_AFFILIATE_DOMAINS" env-default:"amazon.com,amzn.to,shareasale.com,awin1.com"`
	Mode                string        `yaml:"mode"              env:"LINKS_MODE"              env-default:"local"`
	RemoteURL           string        `yaml:"remote_url"        env:"LINKS_REMOTE_URL"`
	RemoteTimeout       time.Duration `yaml:"remote_timeout"    env:"LINKS_REMOTE_TIMEOUT"    env-default:"30s"`

	// AffiliateDomains is parsed from AffiliateDomainsRaw during validation.
	AffiliateDomains []string `yaml:"-" env:"-"`
}

// ValidationConfig holds the publish-readiness rule bounds.
type ValidationConfig struct {
	MinInternalLinks int     `yaml:"min_internal_links" env:"VALIDATION_MIN_INTERNAL_LINKS" env-default:"2"`
	MaxInternalLinks int     `yaml:"max_internal_links" env:"VALIDATION_MAX_INTERNAL_LINKS" env-default:"5"`
	MinExternalLinks int     `yaml:"min_external_links" env:"VALIDATION_MIN_EXTERNAL_LINKS" env-default:"1"`
	MinWords         int     `yaml:"min_words"          env:"VALIDATION_MIN_WORDS"          env-default:"1500"`
	MaxWords         int     `yaml:"max_words"          env:"VALIDATION_MAX_WORDS"          env-default:"3000"`
	MinTitleLength   int     `yaml:"min_title_length"   env:"VALIDATION_MIN_TITLE_LENGTH"   env-default:"50"`
	MaxTitleLength   int     `yaml:"max_title_length"   env:"VALIDATION_MAX_TITLE_LENGTH"   env-default:"60"`
	MinMetaLength    int     `yaml:"min_meta_length"    env:"VALIDATION_MIN_META_LENGTH"    env-default:"150"`
	MaxMetaLength    int     `yaml:"max_meta_length"    env:"VALIDATION_MAX_META_LENGTH"    env-default:"160"`
	WordCountMargin  float64 `yaml:"word_count_margin"  env:"VALIDATION_WORD_COUNT_MARGIN"  env-default:"0.05"`
}

// CostConfig holds the price table and budget.
type CostConfig struct {
	BudgetRaw        string `yaml:"budget"               env:"COST_BUDGET"               env-default:"10.00"`
	DefaultInputRaw  string `yaml:"default_input_price"  env:"COST_DEFAULT_INPUT_PRICE"  env-default:"3.00"`
	DefaultOutputRaw string `yaml:"default_output_price" env:"COST_DEFAULT_OUTPUT_PRICE" env-default:"15.00"`
	ModelPricesRaw   string `yaml:"model_prices"         env:"COST_MODEL_PRICES"         env-default:"anthropic/claude-sonnet-4-5=3.00:15.00,anthropic/claude-haiku-4-5=1.00:5.00,anthropic/claude-opus-4-1=15.00:75.00,openai/gpt-4o=2.50:10.00,openai/gpt-4o-mini=0.15:0.60"`

	// Parsed during validation.
	Budget        decimal.Decimal `yaml:"-" env:"-"`
	DefaultInput  decimal.Decimal `yaml:"-" env:"-"`
	DefaultOutput decimal.Decimal `yaml:"-" env:"-"`
	ModelPrices   []ModelPrice    `yaml:"-" env:"-"`
}

// ModelPrice is the per-million-token price of one provider model.
type ModelPrice struct {
	Provider string
	Model    string
	Input    decimal.Decimal
	Output   decimal.Decimal
}

// UsageQueueConfig holds the asynchronous usage-record pipeline settings.
type UsageQueueConfig struct {
	Backend      string        `yaml:"backend"       env:"USAGE_QUEUE_BACKEND"       env-default:"memory"`
	Capacity     int           `yaml:"capacity"      env:"USAGE_QUEUE_CAPACITY"      env-default:"1000"`
	RedisAddr    string        `yaml:"redis_addr"    env:"USAGE_QUEUE_REDIS_ADDR"    env-default:"localhost:6379"`
	RedisKey     string        `yaml:"redis_key"     env:"USAGE_QUEUE_REDIS_KEY"     env-default:"contentflow:usage"`
	BatchSize    int           `yaml:"batch_size"    env:"USAGE_QUEUE_BATCH_SIZE"    env-default:"50"`
	BatchTimeout time.Duration `yaml:"batch_timeout" env:"USAGE_QUEUE_BATCH_TIMEOUT" env-default:"2s"`
	MaxRetries   int           `yaml:"max_retries"   env:"USAGE_QUEUE_MAX_RETRIES"   env-default:"3"`
	RetryBackoff time.Duration `yaml:"retry_backoff" env:"USAGE_QUEUE_RETRY_BACKOFF" env-default:"200ms"`
}

// LLMConfig holds the model provider settings.
type LLMConfig struct {
	Provider     string        `yaml:"provider"      env:"LLM_PROVIDER"      env-default:"anthropic"`
	APIKey       string        `yaml:"api_key"       env:"LLM_API_KEY"`
	BaseURL      string        `yaml:"base_url"      env:"LLM_BASE_URL"`
	DefaultModel string        `yaml:"default_model" env:"LLM_DEFAULT_MODEL" env-default:"claude-sonnet-4-5"`
	MaxTokens    int           `yaml:"max_tokens"    env:"LLM_MAX_TOKENS"    env-default:"4096"`
	Timeout      time.Duration `yaml:"timeout"       env:"LLM_TIMEOUT"       env-default:"120s"`
	MaxRetries   int           `yaml:"max_retries"   env:"LLM_MAX_RETRIES"   env-default:"2"`
	// GatewayUpstream is the provider the gateway routes to.
	GatewayUpstream string `yaml:"gateway_upstream" env:"LLM_GATEWAY_UPSTREAM" env-default:"openai"`
}

// CMSConfig holds the external publish target settings.
type CMSConfig struct {
	BaseURL     string        `yaml:"base_url"     env:"CMS_BASE_URL"`
	Username    string        `yaml:"username"     env:"CMS_USERNAME"`
	AppPassword string        `yaml:"app_password" env:"CMS_APP_PASSWORD"`
	PostStatus  string        `yaml:"post_status"  env:"CMS_POST_STATUS"  env-default:"publish"`
	Timeout     time.Duration `yaml:"timeout"      env:"CMS_TIMEOUT"      env-default:"60s"`
}

// RateLimitConfig holds per-minute request budgets. Zero disables a limit.
type RateLimitConfig struct {
	LLMInvoke       int           `yaml:"llm_invoke"       env:"RATE_LIMIT_LLM_INVOKE"       env-default:"30"`
	Webhook         int           `yaml:"webhook"          env:"RATE_LIMIT_WEBHOOK"          env-default:"120"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" env:"RATE_LIMIT_CLEANUP_INTERVAL" env-default:"5m"`
}

// WebhookConfig holds inbound callback settings. An empty secret disables the check.
type WebhookConfig struct {
	Secret string `yaml:"secret" env:"WEBHOOK_SECRET"`
}
