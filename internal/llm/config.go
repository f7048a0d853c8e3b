// Package llm provides centralized LLM configuration and client abstractions.
// This package enables switching between model tiers and wrapping any provider
// with a deadline and bounded retries.
package llm

import "time"

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for simple tasks: short summaries, classification
	TierLite ModelTier = "lite"
	// TierStandard is for resume matching and company research
	TierStandard ModelTier = "standard"
	// TierAdvanced is for long documents that need deeper reasoning
	TierAdvanced ModelTier = "advanced"
)

// Provider represents an LLM provider
type Provider string

// ProviderGemini is the Google Gemini provider, the only one implemented.
const ProviderGemini Provider = "gemini"

// Defaults applied when generation or retry settings are left at zero.
const (
	DefaultTemperature     float32 = 0.7
	DefaultMaxOutputTokens int32   = 1024
	DefaultTimeout                 = 60 * time.Second
	DefaultMaxRetries              = 2
	DefaultRetryBackoff            = 500 * time.Millisecond
)

// GenerationParams controls a single completion request.
type GenerationParams struct {
	Tier            ModelTier
	Temperature     float32
	MaxOutputTokens int32
}

// DefaultParams returns the parameters used for match analysis and research.
func DefaultParams() GenerationParams {
	return GenerationParams{
		Tier:            TierStandard,
		Temperature:     DefaultTemperature,
		MaxOutputTokens: DefaultMaxOutputTokens,
	}
}

// Config holds the model configuration for the application
type Config struct {
	Provider Provider
	Models   map[ModelTier]string
}

// DefaultConfig returns the default configuration (currently Gemini)
func DefaultConfig() *Config {
	return DefaultGeminiConfig()
}

// DefaultGeminiConfig returns the default Gemini configuration
func DefaultGeminiConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
	}
}

// GetModel returns the model name for a given tier
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok && model != "" {
		return model
	}
	// Fallback chain: try standard, then lite
	if model, ok := c.Models[TierStandard]; ok && model != "" {
		return model
	}
	if model, ok := c.Models[TierLite]; ok && model != "" {
		return model
	}
	return ""
}

// WithModel returns a new Config with a specific model for a tier
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	newConfig := &Config{
		Provider: c.Provider,
		Models:   make(map[ModelTier]string, len(c.Models)+1),
	}
	for k, v := range c.Models {
		newConfig.Models[k] = v
	}
	newConfig.Models[tier] = model
	return newConfig
}
