// Package config loads jobflow settings from defaults, an optional config file,
// the environment and command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"github.com/jonathan/jobflow/internal/analysis"
	"github.com/jonathan/jobflow/internal/fetch"
	"github.com/jonathan/jobflow/internal/llm"
	"github.com/jonathan/jobflow/internal/research"
	"github.com/jonathan/jobflow/internal/server"
	"github.com/jonathan/jobflow/internal/server/ratelimit"
)

// EnvPrefix prefixes every environment override, e.g. JOBFLOW_SERVER_PORT.
const EnvPrefix = "JOBFLOW"

// Config is the full application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Fetch     FetchConfig     `mapstructure:"fetch"`
	Research  ResearchConfig  `mapstructure:"research"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// LLMConfig configures the model client.
type LLMConfig struct {
	APIKey          string        `mapstructure:"api_key"`
	Tier            string        `mapstructure:"tier"`
	Models          ModelsConfig  `mapstructure:"models"`
	Temperature     float32       `mapstructure:"temperature"`
	MaxOutputTokens int32         `mapstructure:"max_output_tokens"`
	MaxInputChars   int           `mapstructure:"max_input_chars"`
	Timeout         time.Duration `mapstructure:"timeout"`
	MaxRetries      int           `mapstructure:"max_retries"`
	RetryBackoff    time.Duration `mapstructure:"retry_backoff"`
}

// ModelsConfig names the model used for each tier.
type ModelsConfig struct {
	Lite     string `mapstructure:"lite"`
	Standard string `mapstructure:"standard"`
	Advanced string `mapstructure:"advanced"`
}

// FetchConfig configures page fetching and job scraping.
type FetchConfig struct {
	Timeout          time.Duration `mapstructure:"timeout"`
	UserAgent        string        `mapstructure:"user_agent"`
	UseBrowser       bool          `mapstructure:"use_browser"`
	BrowserTimeout   time.Duration `mapstructure:"browser_timeout"`
	MinContentLength int           `mapstructure:"min_content_length"`
	CacheTTL         time.Duration `mapstructure:"cache_ttl"`
	CacheEntries     int           `mapstructure:"cache_entries"`
}

// ResearchConfig configures external company research. Research is off unless
// both the API key and the engine id are set.
type ResearchConfig struct {
	APIKey            string `mapstructure:"api_key"`
	EngineID          string `mapstructure:"engine_id"`
	MaxSources        int    `mapstructure:"max_sources"`
	MaxCharsPerSource int    `mapstructure:"max_chars_per_source"`
	Concurrency       int    `mapstructure:"concurrency"`
}

// RateLimitConfig configures the API rate limiter.
type RateLimitConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	DefaultLimit    int           `mapstructure:"default_limit"`
	DefaultWindow   time.Duration `mapstructure:"default_window"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	Whitelist       []string      `mapstructure:"whitelist"`
	Blacklist       []string      `mapstructure:"blacklist"`
	Model           TierConfig    `mapstructure:"model"`
	Fetch           TierConfig    `mapstructure:"fetch"`
}

// TierConfig is the limit shared by a group of endpoints.
type TierConfig struct {
	Limit  int           `mapstructure:"limit"`
	Window time.Duration `mapstructure:"window"`
	Burst  int           `mapstructure:"burst"`
}

// LogConfig selects the logger encoding and level.
type LogConfig struct {
	JSON  bool `mapstructure:"json"`
	Debug bool `mapstructure:"debug"`
}

// New returns a viper instance with defaults and environment bindings applied.
// Callers may bind flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Conventional names used by the Google SDKs and the .env file.
	_ = v.BindEnv("llm.api_key", EnvPrefix+"_LLM_API_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv("research.api_key", EnvPrefix+"_RESEARCH_API_KEY", "GOOGLE_SEARCH_API_KEY")
	_ = v.BindEnv("research.engine_id", EnvPrefix+"_RESEARCH_ENGINE_ID", "GOOGLE_SEARCH_ENGINE_ID")
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", server.DefaultPort)
	v.SetDefault("server.read_timeout", server.DefaultReadTimeout)
	v.SetDefault("server.write_timeout", server.DefaultWriteTimeout)
	v.SetDefault("server.shutdown_timeout", server.DefaultShutdownTimeout)
	v.SetDefault("server.max_upload_bytes", server.DefaultMaxUploadBytes)
	v.SetDefault("server.allowed_origins", []string{"*"})

	models := llm.DefaultGeminiConfig().Models
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.tier", string(llm.TierStandard))
	v.SetDefault("llm.models.lite", models[llm.TierLite])
	v.SetDefault("llm.models.standard", models[llm.TierStandard])
	v.SetDefault("llm.models.advanced", models[llm.TierAdvanced])
	v.SetDefault("llm.temperature", llm.DefaultTemperature)
	v.SetDefault("llm.max_output_tokens", llm.DefaultMaxOutputTokens)
	v.SetDefault("llm.max_input_chars", analysis.DefaultMaxInputChars)
	v.SetDefault("llm.timeout", llm.DefaultTimeout)
	v.SetDefault("llm.max_retries", llm.DefaultMaxRetries)
	v.SetDefault("llm.retry_backoff", llm.DefaultRetryBackoff)

	v.SetDefault("fetch.timeout", fetch.DefaultTimeout)
	v.SetDefault("fetch.user_agent", fetch.DefaultUserAgent)
	v.SetDefault("fetch.use_browser", true)
	v.SetDefault("fetch.browser_timeout", fetch.DefaultBrowserTimeout)
	v.SetDefault("fetch.min_content_length", fetch.MinContentLength)
	v.SetDefault("fetch.cache_ttl", fetch.DefaultCacheTTL)
	v.SetDefault("fetch.cache_entries", fetch.DefaultCacheEntries)

	v.SetDefault("research.api_key", "")
	v.SetDefault("research.engine_id", "")
	v.SetDefault("research.max_sources", research.DefaultMaxSources)
	v.SetDefault("research.max_chars_per_source", research.DefaultMaxCharsPerSource)
	v.SetDefault("research.concurrency", research.DefaultConcurrency)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.default_limit", ratelimit.DefaultLimit)
	v.SetDefault("rate_limit.default_window", ratelimit.DefaultWindow)
	v.SetDefault("rate_limit.cleanup_interval", ratelimit.DefaultCleanupInterval)
	v.SetDefault("rate_limit.whitelist", []string{})
	v.SetDefault("rate_limit.blacklist", []string{})
	v.SetDefault("rate_limit.model.limit", ratelimit.DefaultModelTier.Limit)
	v.SetDefault("rate_limit.model.window", ratelimit.DefaultModelTier.Window)
	v.SetDefault("rate_limit.model.burst", ratelimit.DefaultModelTier.Burst)
	v.SetDefault("rate_limit.fetch.limit", ratelimit.DefaultFetchTier.Limit)
	v.SetDefault("rate_limit.fetch.window", ratelimit.DefaultFetchTier.Window)
	v.SetDefault("rate_limit.fetch.burst", ratelimit.DefaultFetchTier.Burst)

	v.SetDefault("log.json", false)
	v.SetDefault("log.debug", false)
}

// Load reads the optional config file at path into v and decodes the result.
// A nil v uses New(). An empty path loads jobflow.yaml from the working
// directory when present.
func Load(v *viper.Viper, path string) (*Config, error) {
	if v == nil {
		v = New()
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("jobflow")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var err error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			err = multierr.Append(err, fmt.Errorf(format, args...))
		}
	}

	check(c.Server.Port >= 0 && c.Server.Port <= 65535, "server.port must be between 0 and 65535, got %d", c.Server.Port)
	check(c.Server.ReadTimeout >= 0, "server.read_timeout must not be negative")
	check(c.Server.WriteTimeout >= 0, "server.write_timeout must not be negative")
	check(c.Server.ShutdownTimeout >= 0, "server.shutdown_timeout must not be negative")
	check(c.Server.MaxUploadBytes >= 0, "server.max_upload_bytes must not be negative")

	switch llm.ModelTier(c.LLM.Tier) {
	case "", llm.TierLite, llm.TierStandard, llm.TierAdvanced:
	default:
		check(false, "llm.tier must be one of lite, standard, advanced, got %q", c.LLM.Tier)
	}
	check(c.LLM.Temperature >= 0 && c.LLM.Temperature <= 2, "llm.temperature must be between 0 and 2, got %v", c.LLM.Temperature)
	check(c.LLM.MaxOutputTokens >= 0, "llm.max_output_tokens must not be negative")
	check(c.LLM.MaxInputChars >= 0, "llm.max_input_chars must not be negative")
	check(c.LLM.Timeout >= 0, "llm.timeout must not be negative")
	check(c.LLM.MaxRetries >= 0, "llm.max_retries must not be negative")
	check(c.LLM.RetryBackoff >= 0, "llm.retry_backoff must not be negative")

	check(c.Fetch.Timeout >= 0, "fetch.timeout must not be negative")
	check(c.Fetch.BrowserTimeout >= 0, "fetch.browser_timeout must not be negative")
	check(c.Fetch.MinContentLength >= 0, "fetch.min_content_length must not be negative")
	check(c.Fetch.CacheTTL >= 0, "fetch.cache_ttl must not be negative")
	check(c.Fetch.CacheEntries >= 0, "fetch.cache_entries must not be negative")

	check(c.Research.MaxSources >= 0, "research.max_sources must not be negative")
	check(c.Research.MaxCharsPerSource >= 0, "research.max_chars_per_source must not be negative")
	check(c.Research.Concurrency >= 0, "research.concurrency must not be negative")

	check(c.RateLimit.DefaultLimit >= 0, "rate_limit.default_limit must not be negative")
	check(c.RateLimit.DefaultWindow >= 0, "rate_limit.default_window must not be negative")
	check(c.RateLimit.CleanupInterval >= 0, "rate_limit.cleanup_interval must not be negative")
	for name, tier := range map[string]TierConfig{"model": c.RateLimit.Model, "fetch": c.RateLimit.Fetch} {
		check(tier.Limit >= 0 && tier.Window >= 0 && tier.Burst >= 0, "rate_limit.%s values must not be negative", name)
	}

	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ResearchEnabled reports whether search credentials are configured.
func (c *Config) ResearchEnabled() bool {
	return c.Research.APIKey != "" && c.Research.EngineID != ""
}

// ServerConfig converts the server section.
func (c *Config) ServerConfig() server.Config {
	return server.Config{
		Port:            c.Server.Port,
		ReadTimeout:     c.Server.ReadTimeout,
		WriteTimeout:    c.Server.WriteTimeout,
		ShutdownTimeout: c.Server.ShutdownTimeout,
		MaxUploadBytes:  c.Server.MaxUploadBytes,
		AllowedOrigins:  c.Server.AllowedOrigins,
	}
}

// LLMModels returns the model table, falling back to the Gemini defaults for
// tiers left blank.
func (c *Config) LLMModels() *llm.Config {
	models := llm.DefaultGeminiConfig()
	for tier, name := range map[llm.ModelTier]string{
		llm.TierLite:     c.LLM.Models.Lite,
		llm.TierStandard: c.LLM.Models.Standard,
		llm.TierAdvanced: c.LLM.Models.Advanced,
	} {
		if name != "" {
			models = models.WithModel(tier, name)
		}
	}
	return models
}

// GenerationParams returns the parameters used for every completion.
func (c *Config) GenerationParams() llm.GenerationParams {
	params := llm.DefaultParams()
	if c.LLM.Tier != "" {
		params.Tier = llm.ModelTier(c.LLM.Tier)
	}
	if c.LLM.Temperature > 0 {
		params.Temperature = c.LLM.Temperature
	}
	if c.LLM.MaxOutputTokens > 0 {
		params.MaxOutputTokens = c.LLM.MaxOutputTokens
	}
	return params
}

// RetryConfig returns the completion deadline and retry policy.
func (c *Config) RetryConfig() llm.RetryConfig {
	return llm.RetryConfig{
		Timeout:    c.LLM.Timeout,
		MaxRetries: c.LLM.MaxRetries,
		Backoff:    c.LLM.RetryBackoff,
	}
}

// FetchOptions returns the HTTP options shared by scraping and research.
func (c *Config) FetchOptions() *fetch.Options {
	opts := fetch.DefaultOptions()
	if c.Fetch.Timeout > 0 {
		opts.Timeout = c.Fetch.Timeout
	}
	if c.Fetch.UserAgent != "" {
		opts.UserAgent = c.Fetch.UserAgent
	}
	return opts
}

// CachedFetcherConfig returns the research page cache settings.
func (c *Config) CachedFetcherConfig() *fetch.CachedFetcherConfig {
	return &fetch.CachedFetcherConfig{
		CacheTTL:   c.Fetch.CacheTTL,
		MaxEntries: c.Fetch.CacheEntries,
		Options:    c.FetchOptions(),
	}
}

// RateLimitConfig converts the rate_limit section.
func (c *Config) RateLimitConfig() *ratelimit.Config {
	rl := c.RateLimit
	return &ratelimit.Config{
		Enabled:         rl.Enabled,
		DefaultLimit:    rl.DefaultLimit,
		DefaultWindow:   rl.DefaultWindow,
		CleanupInterval: rl.CleanupInterval,
		Whitelist:       ratelimit.ClientSet(rl.Whitelist),
		Blacklist:       ratelimit.ClientSet(rl.Blacklist),
		EndpointConfigs: ratelimit.EndpointConfigs(rl.Model.tier(), rl.Fetch.tier()),
	}
}

func (t TierConfig) tier() ratelimit.Tier {
	return ratelimit.Tier{Limit: t.Limit, Window: t.Window, Burst: t.Burst}
}
