package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Environment represents the deployment environment.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"
)

// Config holds all application configuration.
type Config struct {
	Env      Environment `envconfig:"ENV" default:"development"`
	LogLevel string      `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool        `envconfig:"DEBUG" default:"false"`

	Server   ServerConfig
	Claude   ClaudeConfig
	Crawler  CrawlerConfig
	Registry RegistryConfig
	Deploy   DeployConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"300s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ClaudeConfig holds settings for the generative-model API.
type ClaudeConfig struct {
	APIKey       string        `envconfig:"ANTHROPIC_API_KEY" required:"true"`
	BaseURL      string        `envconfig:"CLAUDE_BASE_URL" default:"https://api.anthropic.com"`
	Model        string        `envconfig:"CLAUDE_MODEL" default:"claude-sonnet-4-20250514"`
	MaxTokens    int           `envconfig:"CLAUDE_MAX_TOKENS" default:"16000"`
	Timeout      time.Duration `envconfig:"CLAUDE_TIMEOUT" default:"120s"`
	RateLimitRPM int           `envconfig:"CLAUDE_RATE_LIMIT_RPM" default:"50"`
	MaxRetries   int           `envconfig:"CLAUDE_MAX_RETRIES" default:"3"`

	// SkillID selects the richer plan/generate/refine tooling mode. When
	// empty the pipeline collapses to the single-call fallback mode.
	SkillID string `envconfig:"CLAUDE_SKILL_ID" default:""`

	// MaxContinuations bounds the continuation-handling retry loop.
	MaxContinuations int `envconfig:"CLAUDE_MAX_CONTINUATIONS" default:"10"`
}

// CrawlerConfig holds page-fetch and extraction settings.
type CrawlerConfig struct {
	FetchTimeout   time.Duration `envconfig:"CRAWL_FETCH_TIMEOUT" default:"15s"`
	ExtractTimeout time.Duration `envconfig:"CRAWL_EXTRACT_TIMEOUT" default:"20s"`
	OverallBudget  time.Duration `envconfig:"CRAWL_OVERALL_BUDGET" default:"60s"`
	MaxSubPages    int           `envconfig:"CRAWL_MAX_SUB_PAGES" default:"8"`
	MaxImages      int           `envconfig:"CRAWL_MAX_IMAGES" default:"30"`
	UserAgent      string        `envconfig:"CRAWL_USER_AGENT" default:"Mozilla/5.0 (compatible; CheapTradieWebsites/1.0)"`
}

// RegistryConfig holds site-registry settings. When RedisAddr is set the
// registry is backed by Redis, otherwise it lives in process memory.
type RegistryConfig struct {
	TTL           time.Duration `envconfig:"REGISTRY_TTL" default:"168h"`
	RedisAddr     string        `envconfig:"REDIS_ADDR" default:""`
	RedisPassword string        `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
}

// DeployConfig holds hosting-API settings.
type DeployConfig struct {
	Token   string        `envconfig:"VERCEL_TOKEN" default:""`
	APIBase string        `envconfig:"VERCEL_API_BASE" default:"https://api.vercel.com"`
	Timeout time.Duration `envconfig:"DEPLOY_TIMEOUT" default:"30s"`

	// RequirePayment gates deployment on checkout having completed. An
	// explicit flag rather than an environment-name check so development
	// convenience is a deliberate configuration decision.
	RequirePayment bool `envconfig:"DEPLOY_REQUIRE_PAYMENT" default:"false"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("processing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	if c.Claude.APIKey == "" {
		errs = append(errs, "ANTHROPIC_API_KEY is required")
	}
	if c.Claude.MaxContinuations < 1 {
		errs = append(errs, "CLAUDE_MAX_CONTINUATIONS must be at least 1")
	}
	if c.Crawler.MaxSubPages < 1 {
		errs = append(errs, "CRAWL_MAX_SUB_PAGES must be at least 1")
	}
	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// GetLogLevel returns the effective log level.
func (c *Config) GetLogLevel() string {
	if c.Debug {
		return "debug"
	}
	return c.LogLevel
}
