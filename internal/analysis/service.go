// Package analysis runs the resume matching and company research flows: it
// acquires text, builds prompts, calls the model and parses the free-text answers.
package analysis

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/jonathan/jobflow/internal/ingestion"
	"github.com/jonathan/jobflow/internal/llm"
	"github.com/jonathan/jobflow/internal/logger"
	"github.com/jonathan/jobflow/internal/parsing"
	"github.com/jonathan/jobflow/internal/research"
	"github.com/jonathan/jobflow/internal/types"
)

// DefaultMaxInputChars bounds each text interpolated into a prompt.
const DefaultMaxInputChars = 30000

// JobScraper turns a job posting URL into text. *ingestion.Scraper satisfies it.
type JobScraper interface {
	Scrape(ctx context.Context, url string) (*ingestion.ScrapeResult, error)
}

// CompanyResearcher gathers external pages about a company. *research.Researcher satisfies it.
type CompanyResearcher interface {
	Gather(ctx context.Context, company string) (*research.Findings, error)
}

// Service orchestrates matching and research.
type Service struct {
	client        llm.Client
	scraper       JobScraper
	researcher    CompanyResearcher
	params        llm.GenerationParams
	maxInputChars int
	logger        *zap.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithResearcher enables external company research before the research prompt.
func WithResearcher(r CompanyResearcher) Option {
	return func(s *Service) { s.researcher = r }
}

// WithParams overrides the generation parameters.
func WithParams(p llm.GenerationParams) Option {
	return func(s *Service) { s.params = p }
}

// WithMaxInputChars overrides the per-input prompt bound.
func WithMaxInputChars(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxInputChars = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = logger.OrNop(l) }
}

// NewService creates a Service. scraper may be nil when URL inputs are not needed.
func NewService(client llm.Client, scraper JobScraper, opts ...Option) *Service {
	s := &Service{
		client:        client,
		scraper:       scraper,
		params:        llm.DefaultParams(),
		maxInputChars: DefaultMaxInputChars,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AnalyzeInput is one resume matching request. JobDescription wins over JobURL
// when both are set.
type AnalyzeInput struct {
	ResumeText     string
	JobDescription string
	JobURL         string
}

// CompanyReport is the result of company research.
type CompanyReport struct {
	Company string                 `json:"company_name"`
	Profile types.CompanyProfile   `json:"company_info"`
	Sources []types.ResearchSource `json:"sources,omitempty"`
}

// ScrapeAndResearchResult pairs a scraped job description with its company profile.
type ScrapeAndResearchResult struct {
	JobDescription string               `json:"job_description"`
	CompanyInfo    types.CompanyProfile `json:"company_info"`
	Company        string               `json:"company_name,omitempty"`
	Platform       string               `json:"platform,omitempty"`
}

// Analyze scores a resume against a job description.
func (s *Service) Analyze(ctx context.Context, in AnalyzeInput) (types.MatchResult, error) {
	resume := strings.TrimSpace(in.ResumeText)
	if resume == "" {
		return types.MatchResult{}, missing("resume text")
	}

	jobDescription, err := s.jobText(ctx, in.JobDescription, in.JobURL)
	if err != nil {
		return types.MatchResult{}, err
	}

	prompt := BuildMatchPrompt(s.bound(resume), s.bound(jobDescription))
	response, err := s.complete(ctx, "match", prompt)
	if err != nil {
		return types.MatchResult{}, err
	}

	result := parsing.ParseMatchResult(response)
	s.logger.Info("resume analyzed",
		zap.Int("match_score", result.Score),
		zap.Int("suggestions", len(result.Suggestions)))
	return result, nil
}

// ResearchCompany builds a company profile from a job description. External
// research, when configured, is best effort: its failure is logged and the
// profile is built from the job description alone.
func (s *Service) ResearchCompany(ctx context.Context, jobDescription string) (*CompanyReport, error) {
	jobDescription = strings.TrimSpace(jobDescription)
	if jobDescription == "" {
		return nil, missing("job description")
	}

	company := parsing.ExtractCompanyName(jobDescription)
	log := s.logger.With(zap.String("company", company))

	var findings *research.Findings
	if s.researcher != nil && company != "" {
		f, err := s.researcher.Gather(ctx, company)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Warn("external company research failed, continuing without it", zap.Error(err))
		} else {
			findings = f
		}
	}

	prompt := BuildResearchPrompt(company, s.bound(jobDescription), findings.Corpus())
	response, err := s.complete(ctx, "company research", prompt)
	if err != nil {
		return nil, err
	}

	report := &CompanyReport{
		Company: company,
		Profile: parsing.ParseCompanyProfile(response),
	}
	if findings != nil {
		report.Sources = findings.Sources
	}

	log.Info("company researched",
		zap.Int("populated_fields", report.Profile.PopulatedCount()),
		zap.Int("sources", len(report.Sources)))
	return report, nil
}

// ScrapeJob fetches a job posting and returns its cleaned text.
func (s *Service) ScrapeJob(ctx context.Context, url string) (*ingestion.ScrapeResult, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, missing("job URL")
	}
	if s.scraper == nil {
		return nil, ErrScrapingDisabled
	}
	return s.scraper.Scrape(ctx, url)
}

// ScrapeAndResearch scrapes a posting, then researches the company behind it.
func (s *Service) ScrapeAndResearch(ctx context.Context, url string) (*ScrapeAndResearchResult, error) {
	scraped, err := s.ScrapeJob(ctx, url)
	if err != nil {
		return nil, err
	}

	report, err := s.ResearchCompany(ctx, scraped.Text)
	if err != nil {
		return nil, err
	}

	return &ScrapeAndResearchResult{
		JobDescription: scraped.Text,
		CompanyInfo:    report.Profile,
		Company:        report.Company,
		Platform:       scraped.Platform,
	}, nil
}

// jobText returns the typed job description, or scrapes jobURL when none was typed.
func (s *Service) jobText(ctx context.Context, typed, jobURL string) (string, error) {
	if text := strings.TrimSpace(typed); text != "" {
		return text, nil
	}
	if strings.TrimSpace(jobURL) == "" {
		return "", missing("job description or job URL")
	}

	scraped, err := s.ScrapeJob(ctx, jobURL)
	if err != nil {
		return "", err
	}
	return scraped.Text, nil
}

// complete sends a prompt and returns the de-fenced response text.
func (s *Service) complete(ctx context.Context, operation, prompt string) (string, error) {
	start := time.Now()
	s.logger.Debug("sending prompt",
		zap.String("operation", operation),
		logger.Preview("prompt", prompt))

	response, err := s.client.GenerateContent(ctx, prompt, s.params)
	if err != nil {
		return "", &CompletionError{Operation: operation, Cause: err}
	}

	s.logger.Debug("received completion",
		zap.String("operation", operation),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("chars", utf8.RuneCountInString(response)),
		logger.Preview("response", response))

	if strings.TrimSpace(response) == "" {
		s.logger.Warn("model returned an empty completion", zap.String("operation", operation))
	}
	return llm.StripCodeFence(response), nil
}

// bound truncates text to maxInputChars characters.
func (s *Service) bound(text string) string {
	if utf8.RuneCountInString(text) <= s.maxInputChars {
		return text
	}
	return string([]rune(text)[:s.maxInputChars])
}
