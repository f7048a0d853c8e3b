package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/jobflow/internal/analysis"
	"github.com/jonathan/jobflow/internal/config"
	"github.com/jonathan/jobflow/internal/fetch"
	"github.com/jonathan/jobflow/internal/ingestion"
	"github.com/jonathan/jobflow/internal/llm"
	"github.com/jonathan/jobflow/internal/research"
)

// app holds the components shared by the model-backed commands.
type app struct {
	service *analysis.Service
	client  llm.Client
}

// Close releases the model client.
func (a *app) Close() error {
	return a.client.Close()
}

// newApp wires config -> llm (retrying) -> scraper -> researcher -> analysis service.
func newApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*app, error) {
	base, err := llm.NewClient(ctx, cfg.LLMModels(), cfg.LLM.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm client (is GEMINI_API_KEY set?): %w", err)
	}
	client := llm.NewRetryingClient(base, cfg.RetryConfig(), log)

	opts := []analysis.Option{
		analysis.WithLogger(log),
		analysis.WithParams(cfg.GenerationParams()),
		analysis.WithMaxInputChars(cfg.LLM.MaxInputChars),
	}

	if cfg.ResearchEnabled() {
		researcher, err := newResearcher(ctx, cfg, log)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		opts = append(opts, analysis.WithResearcher(researcher))
	} else {
		log.Info("external company research disabled: GOOGLE_SEARCH_API_KEY or GOOGLE_SEARCH_ENGINE_ID not set")
	}

	return &app{
		service: analysis.NewService(client, newScraper(cfg, log), opts...),
		client:  client,
	}, nil
}

// newScraper applies the fetch section to a job scraper.
func newScraper(cfg *config.Config, log *zap.Logger) *ingestion.Scraper {
	scraper := ingestion.NewScraper(log)
	scraper.Options = cfg.FetchOptions()
	scraper.UseBrowser = cfg.Fetch.UseBrowser
	if cfg.Fetch.BrowserTimeout > 0 {
		scraper.BrowserTimeout = cfg.Fetch.BrowserTimeout
	}
	if cfg.Fetch.MinContentLength > 0 {
		scraper.MinContentLength = cfg.Fetch.MinContentLength
	}
	return scraper
}

// newResearcher builds the Custom Search backed researcher with a page cache.
func newResearcher(ctx context.Context, cfg *config.Config, log *zap.Logger) (*research.Researcher, error) {
	searcher, err := research.NewCustomSearch(ctx, cfg.Research.APIKey, cfg.Research.EngineID)
	if err != nil {
		return nil, fmt.Errorf("failed to create search client: %w", err)
	}

	researcher := research.New(searcher, fetch.NewCachedFetcher(cfg.CachedFetcherConfig()), log)
	if cfg.Research.MaxSources > 0 {
		researcher.MaxSources = cfg.Research.MaxSources
	}
	if cfg.Research.MaxCharsPerSource > 0 {
		researcher.MaxCharsPerSource = cfg.Research.MaxCharsPerSource
	}
	if cfg.Research.Concurrency > 0 {
		researcher.Concurrency = cfg.Research.Concurrency
	}
	return researcher, nil
}
