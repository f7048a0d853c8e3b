package ratelimit

import (
	"strings"
	"time"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (supports prefix matching)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// Tier is a limit shared by a group of endpoints.
type Tier struct {
	Limit  int
	Window time.Duration
	Burst  int
}

var (
	// DefaultModelTier covers endpoints that call the language model.
	DefaultModelTier = Tier{Limit: 20, Window: time.Minute, Burst: 5}
	// DefaultFetchTier covers endpoints that fetch pages or parse uploads.
	DefaultFetchTier = Tier{Limit: 60, Window: time.Minute, Burst: 10}
)

// ModelEndpoints are the routes whose requests reach the language model.
var ModelEndpoints = []string{
	"/analyze_resume",
	"/analyze_resume_file",
	"/research_company",
	"/scrape_and_research",
}

// FetchEndpoints are the routes that scrape or extract documents without the model.
var FetchEndpoints = []string{
	"/scrape_job",
	"/upload_resume",
}

// DefaultEndpointConfigs returns the default endpoint-specific configurations.
func DefaultEndpointConfigs() []EndpointConfig {
	return EndpointConfigs(DefaultModelTier, DefaultFetchTier)
}

// EndpointConfigs builds the endpoint table from the two tiers. Any other route
// uses the limiter's default limit; GET /health is unlimited.
func EndpointConfigs(model, fetch Tier) []EndpointConfig {
	configs := make([]EndpointConfig, 0, len(ModelEndpoints)+len(FetchEndpoints))
	for _, path := range ModelEndpoints {
		configs = append(configs, model.endpoint(path))
	}
	for _, path := range FetchEndpoints {
		configs = append(configs, fetch.endpoint(path))
	}
	return configs
}

func (t Tier) endpoint(path string) EndpointConfig {
	return EndpointConfig{Path: path, Method: "POST", Limit: t.Limit, Window: t.Window, Burst: t.Burst}
}

// ClientSet turns a list of client identifiers into a lookup set, skipping blanks.
// Entries may themselves be comma-separated.
func ClientSet(list []string) map[string]bool {
	result := make(map[string]bool)
	for _, entry := range list {
		for _, id := range strings.Split(entry, ",") {
			if id = strings.TrimSpace(id); id != "" {
				result[id] = true
			}
		}
	}
	return result
}
