package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/jobflow/internal/llm"
	"github.com/jonathan/jobflow/internal/server/ratelimit"
)

// clearEnv blanks the unprefixed variables so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"GEMINI_API_KEY", "GOOGLE_SEARCH_API_KEY", "GOOGLE_SEARCH_ENGINE_ID"} {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(nil, "")
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 180*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, int64(10<<20), cfg.Server.MaxUploadBytes)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)

	assert.Equal(t, "standard", cfg.LLM.Tier)
	assert.Equal(t, "gemini-2.5-flash", cfg.LLM.Models.Standard)
	assert.Equal(t, llm.DefaultTimeout, cfg.LLM.Timeout)
	assert.Equal(t, llm.DefaultMaxRetries, cfg.LLM.MaxRetries)

	assert.True(t, cfg.Fetch.UseBrowser)
	assert.Equal(t, 500, cfg.Fetch.MinContentLength)

	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, ratelimit.DefaultModelTier.Limit, cfg.RateLimit.Model.Limit)
	assert.False(t, cfg.ResearchEnabled())
	assert.False(t, cfg.Log.JSON)
}

func TestLoad_YAMLFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "jobflow.yaml", `
server:
  port: 9090
  read_timeout: 5s
  allowed_origins: ["https://app.example.com"]
llm:
  tier: advanced
  models:
    advanced: gemini-custom
  max_retries: 4
rate_limit:
  whitelist: ["10.0.0.1", "10.0.0.2"]
  model:
    limit: 3
    window: 10s
log:
  json: true
`)

	cfg, err := Load(nil, path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "advanced", cfg.LLM.Tier)
	assert.Equal(t, 4, cfg.LLM.MaxRetries)
	assert.Equal(t, 3, cfg.RateLimit.Model.Limit)
	assert.Equal(t, 10*time.Second, cfg.RateLimit.Model.Window)
	// Unset keys in a section keep their defaults.
	assert.Equal(t, ratelimit.DefaultModelTier.Burst, cfg.RateLimit.Model.Burst)
	assert.True(t, cfg.Log.JSON)

	models := cfg.LLMModels()
	assert.Equal(t, "gemini-custom", models.GetModel(llm.TierAdvanced))
	assert.Equal(t, "gemini-2.5-flash-lite", models.GetModel(llm.TierLite))
}

func TestLoad_JSONFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.json", `{"server": {"port": 7000}, "fetch": {"use_browser": false}}`)

	cfg, err := Load(nil, path)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.False(t, cfg.Fetch.UseBrowser)
}

func TestLoad_FileNotFound(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(nil, filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_InvalidFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.json", `{ invalid json }`)

	cfg, err := Load(nil, path)
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("JOBFLOW_SERVER_PORT", "8123")
	t.Setenv("JOBFLOW_LLM_TIMEOUT", "15s")
	t.Setenv("JOBFLOW_RATE_LIMIT_ENABLED", "false")
	t.Setenv("GEMINI_API_KEY", "gemini-key")
	t.Setenv("GOOGLE_SEARCH_API_KEY", "search-key")
	t.Setenv("GOOGLE_SEARCH_ENGINE_ID", "engine")

	path := writeFile(t, "jobflow.yaml", "server:\n  port: 9090\n")
	cfg, err := Load(nil, path)
	require.NoError(t, err)

	assert.Equal(t, 8123, cfg.Server.Port, "env wins over file")
	assert.Equal(t, 15*time.Second, cfg.LLM.Timeout)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, "gemini-key", cfg.LLM.APIKey)
	assert.Equal(t, "search-key", cfg.Research.APIKey)
	assert.Equal(t, "engine", cfg.Research.EngineID)
	assert.True(t, cfg.ResearchEnabled())
}

func TestLoad_PrefixedKeyWinsOverConventionalName(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "conventional")
	t.Setenv("JOBFLOW_LLM_API_KEY", "prefixed")

	cfg, err := Load(nil, "")
	require.NoError(t, err)
	assert.Equal(t, "prefixed", cfg.LLM.APIKey)
}

func TestLoad_ExplicitSetWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("JOBFLOW_SERVER_PORT", "8123")

	v := New()
	v.Set("server.port", 9999)
	cfg, err := Load(v, "")
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
}

func TestLoad_RejectsInvalid(t *testing.T) {
	clearEnv(t)
	t.Setenv("JOBFLOW_LLM_MAX_RETRIES", "-1")

	cfg, err := Load(nil, "")
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "llm.max_retries must not be negative")
}

func TestValidate(t *testing.T) {
	valid := func(t *testing.T) *Config {
		clearEnv(t)
		cfg, err := Load(nil, "")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "port too large", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: "server.port"},
		{name: "negative upload", mutate: func(c *Config) { c.Server.MaxUploadBytes = -1 }, wantErr: "server.max_upload_bytes"},
		{name: "unknown tier", mutate: func(c *Config) { c.LLM.Tier = "huge" }, wantErr: "llm.tier"},
		{name: "temperature", mutate: func(c *Config) { c.LLM.Temperature = 3 }, wantErr: "llm.temperature"},
		{name: "negative timeout", mutate: func(c *Config) { c.LLM.Timeout = -time.Second }, wantErr: "llm.timeout"},
		{name: "negative min content", mutate: func(c *Config) { c.Fetch.MinContentLength = -5 }, wantErr: "fetch.min_content_length"},
		{name: "negative sources", mutate: func(c *Config) { c.Research.MaxSources = -1 }, wantErr: "research.max_sources"},
		{name: "negative tier", mutate: func(c *Config) { c.RateLimit.Fetch.Burst = -1 }, wantErr: "rate_limit.fetch"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Port = -1
	cfg.LLM.MaxRetries = -1

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
	assert.Contains(t, err.Error(), "llm.max_retries")
}

func TestConverters(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "jobflow.yaml", `
server:
  port: 9000
llm:
  temperature: 0.2
  max_output_tokens: 2048
  timeout: 30s
  retry_backoff: 1s
fetch:
  timeout: 7s
  user_agent: test-agent
rate_limit:
  default_limit: 50
  blacklist: ["1.2.3.4, 5.6.7.8"]
  fetch:
    limit: 9
    window: 1m
    burst: 2
`)
	cfg, err := Load(nil, path)
	require.NoError(t, err)

	srv := cfg.ServerConfig()
	assert.Equal(t, 9000, srv.Port)
	assert.Equal(t, int64(10<<20), srv.MaxUploadBytes)

	params := cfg.GenerationParams()
	assert.Equal(t, llm.TierStandard, params.Tier)
	assert.InDelta(t, 0.2, float64(params.Temperature), 1e-6)
	assert.Equal(t, int32(2048), params.MaxOutputTokens)

	retry := cfg.RetryConfig()
	assert.Equal(t, 30*time.Second, retry.Timeout)
	assert.Equal(t, time.Second, retry.Backoff)

	opts := cfg.FetchOptions()
	assert.Equal(t, 7*time.Second, opts.Timeout)
	assert.Equal(t, "test-agent", opts.UserAgent)

	cached := cfg.CachedFetcherConfig()
	assert.Equal(t, "test-agent", cached.Options.UserAgent)
	assert.Positive(t, cached.MaxEntries)

	rl := cfg.RateLimitConfig()
	assert.Equal(t, 50, rl.DefaultLimit)
	assert.Equal(t, map[string]bool{"1.2.3.4": true, "5.6.7.8": true}, rl.Blacklist)
	assert.Empty(t, rl.Whitelist)

	endpoint := ratelimit.MatchEndpoint("/scrape_job", "POST", rl.EndpointConfigs)
	require.NotNil(t, endpoint)
	assert.Equal(t, 9, endpoint.Limit)
	assert.Equal(t, 2, endpoint.Burst)

	endpoint = ratelimit.MatchEndpoint("/analyze_resume", "POST", rl.EndpointConfigs)
	require.NotNil(t, endpoint)
	assert.Equal(t, ratelimit.DefaultModelTier.Limit, endpoint.Limit)
}
