package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/jobflow/internal/ingestion"
	"github.com/jonathan/jobflow/internal/llm"
	"github.com/jonathan/jobflow/internal/research"
	"github.com/jonathan/jobflow/internal/types"
)

type fakeClient struct {
	response string
	err      error
	prompts  []string
	params   []llm.GenerationParams
}

func (f *fakeClient) GenerateContent(_ context.Context, prompt string, params llm.GenerationParams) (string, error) {
	f.prompts = append(f.prompts, prompt)
	f.params = append(f.params, params)
	return f.response, f.err
}

func (f *fakeClient) Close() error { return nil }

type fakeScraper struct {
	result *ingestion.ScrapeResult
	err    error
	urls   []string
}

func (f *fakeScraper) Scrape(_ context.Context, url string) (*ingestion.ScrapeResult, error) {
	f.urls = append(f.urls, url)
	return f.result, f.err
}

type fakeResearcher struct {
	findings  *research.Findings
	err       error
	companies []string
}

func (f *fakeResearcher) Gather(_ context.Context, company string) (*research.Findings, error) {
	f.companies = append(f.companies, company)
	return f.findings, f.err
}

const matchResponse = `Match Score: 72%
Explanation: Strong Go background but no Kubernetes experience.

Suggestions:
1. Add Kubernetes projects
2. Quantify the impact of the payments rewrite`

const researchResponse = `1. Company Overview
Acme builds warehouse robots.

2. Market & Customers
Large retailers and 3PLs.`

func TestAnalyze_TypedJobDescription(t *testing.T) {
	client := &fakeClient{response: matchResponse}
	scraper := &fakeScraper{}
	svc := NewService(client, scraper)

	result, err := svc.Analyze(context.Background(), AnalyzeInput{
		ResumeText:     "Jane Doe, Go engineer",
		JobDescription: "Senior Go Engineer at Acme",
		JobURL:         "https://jobs.example.com/1",
	})

	require.NoError(t, err)
	assert.Equal(t, 72, result.Score)
	assert.Equal(t, "Strong Go background but no Kubernetes experience.", result.Justification)
	assert.Equal(t, []string{"Add Kubernetes projects", "Quantify the impact of the payments rewrite"}, result.Suggestions)
	assert.Empty(t, scraper.urls, "typed description wins over URL")

	require.Len(t, client.prompts, 1)
	assert.Equal(t, BuildMatchPrompt("Jane Doe, Go engineer", "Senior Go Engineer at Acme"), client.prompts[0])
	assert.Equal(t, llm.DefaultParams(), client.params[0])
}

func TestAnalyze_ScrapesJobURL(t *testing.T) {
	client := &fakeClient{response: matchResponse}
	scraper := &fakeScraper{result: &ingestion.ScrapeResult{Text: "Scraped posting text"}}
	svc := NewService(client, scraper)

	_, err := svc.Analyze(context.Background(), AnalyzeInput{
		ResumeText: "resume",
		JobURL:     " https://jobs.example.com/1 ",
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"https://jobs.example.com/1"}, scraper.urls)
	assert.Contains(t, client.prompts[0], "Scraped posting text")
}

func TestAnalyze_MissingInput(t *testing.T) {
	svc := NewService(&fakeClient{}, &fakeScraper{})

	_, err := svc.Analyze(context.Background(), AnalyzeInput{JobDescription: "jd"})
	assert.ErrorIs(t, err, ErrMissingInput)

	_, err = svc.Analyze(context.Background(), AnalyzeInput{ResumeText: "resume", JobDescription: "   "})
	assert.ErrorIs(t, err, ErrMissingInput)
}

func TestAnalyze_ScrapeFailure(t *testing.T) {
	scraper := &fakeScraper{err: ingestion.ErrContentExtractionFailed}
	client := &fakeClient{}
	svc := NewService(client, scraper)

	_, err := svc.Analyze(context.Background(), AnalyzeInput{ResumeText: "r", JobURL: "https://x.test"})

	assert.ErrorIs(t, err, ingestion.ErrContentExtractionFailed)
	assert.Empty(t, client.prompts)
}

func TestAnalyze_NoScraperConfigured(t *testing.T) {
	svc := NewService(&fakeClient{}, nil)
	_, err := svc.Analyze(context.Background(), AnalyzeInput{ResumeText: "r", JobURL: "https://x.test"})
	assert.ErrorIs(t, err, ErrScrapingDisabled)
}

func TestAnalyze_CompletionError(t *testing.T) {
	cause := errors.New("upstream unavailable")
	svc := NewService(&fakeClient{err: cause}, nil)

	_, err := svc.Analyze(context.Background(), AnalyzeInput{ResumeText: "r", JobDescription: "jd"})

	var completionErr *CompletionError
	require.ErrorAs(t, err, &completionErr)
	assert.Equal(t, "match", completionErr.Operation)
	assert.ErrorIs(t, err, cause)
}

func TestAnalyze_EmptyCompletion(t *testing.T) {
	svc := NewService(&fakeClient{response: ""}, nil)

	result, err := svc.Analyze(context.Background(), AnalyzeInput{ResumeText: "r", JobDescription: "jd"})

	require.NoError(t, err)
	assert.Equal(t, types.MatchResult{Suggestions: []string{}}, result)
}

func TestAnalyze_FencedCompletion(t *testing.T) {
	svc := NewService(&fakeClient{response: "```\n" + matchResponse + "\n```"}, nil)

	result, err := svc.Analyze(context.Background(), AnalyzeInput{ResumeText: "r", JobDescription: "jd"})

	require.NoError(t, err)
	assert.Equal(t, 72, result.Score)
	assert.Len(t, result.Suggestions, 2)
}

func TestAnalyze_BoundsInputs(t *testing.T) {
	client := &fakeClient{response: matchResponse}
	svc := NewService(client, nil, WithMaxInputChars(10))

	_, err := svc.Analyze(context.Background(), AnalyzeInput{
		ResumeText:     strings.Repeat("r", 50),
		JobDescription: strings.Repeat("j", 50),
	})

	require.NoError(t, err)
	assert.Contains(t, client.prompts[0], strings.Repeat("r", 10))
	assert.NotContains(t, client.prompts[0], strings.Repeat("r", 11))
}

func TestResearchCompany_WithExternalResearch(t *testing.T) {
	client := &fakeClient{response: researchResponse}
	researcher := &fakeResearcher{findings: &research.Findings{
		Company: "Acme",
		Sources: []types.ResearchSource{{URL: "https://acme.test/about", Title: "About", Text: "Acme robots since 2010"}},
	}}
	svc := NewService(client, nil, WithResearcher(researcher))

	report, err := svc.ResearchCompany(context.Background(), "Senior Go Engineer at Acme\nBuild robots.")

	require.NoError(t, err)
	assert.Equal(t, []string{"Acme"}, researcher.companies)
	assert.Equal(t, "Acme", report.Company)
	assert.Equal(t, "Acme builds warehouse robots.", report.Profile.CompanyOverview)
	assert.Equal(t, "Large retailers and 3PLs.", report.Profile.MarketCustomers)
	assert.Len(t, report.Sources, 1)
	assert.Contains(t, client.prompts[0], "Acme robots since 2010")
	assert.Contains(t, client.prompts[0], "interview with Acme")
}

func TestResearchCompany_ResearchFailureIsIgnored(t *testing.T) {
	client := &fakeClient{response: researchResponse}
	researcher := &fakeResearcher{err: errors.New("quota exceeded")}
	svc := NewService(client, nil, WithResearcher(researcher))

	report, err := svc.ResearchCompany(context.Background(), "Staff Engineer at Globex")

	require.NoError(t, err)
	assert.Empty(t, report.Sources)
	assert.Contains(t, client.prompts[0], noExternalSources)
}

func TestResearchCompany_UnknownCompanySkipsResearch(t *testing.T) {
	client := &fakeClient{response: researchResponse}
	researcher := &fakeResearcher{}
	svc := NewService(client, nil, WithResearcher(researcher))

	report, err := svc.ResearchCompany(context.Background(), "we are hiring engineers")

	require.NoError(t, err)
	assert.Empty(t, researcher.companies)
	assert.Empty(t, report.Company)
	assert.Contains(t, client.prompts[0], unknownCompany)
}

func TestResearchCompany_MissingInput(t *testing.T) {
	_, err := NewService(&fakeClient{}, nil).ResearchCompany(context.Background(), " \n ")
	assert.ErrorIs(t, err, ErrMissingInput)
}

func TestResearchCompany_CompletionError(t *testing.T) {
	_, err := NewService(&fakeClient{err: context.DeadlineExceeded}, nil).ResearchCompany(context.Background(), "Engineer at Acme")

	var completionErr *CompletionError
	require.ErrorAs(t, err, &completionErr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestScrapeAndResearch(t *testing.T) {
	client := &fakeClient{response: researchResponse}
	scraper := &fakeScraper{result: &ingestion.ScrapeResult{
		Text:     "Software Engineer at Google\nWork on search.",
		Metadata: ingestion.Metadata{Platform: "linkedin"},
	}}
	svc := NewService(client, scraper)

	result, err := svc.ScrapeAndResearch(context.Background(), "https://www.linkedin.com/jobs/view/1")

	require.NoError(t, err)
	assert.Equal(t, "Software Engineer at Google\nWork on search.", result.JobDescription)
	assert.Equal(t, "Google", result.Company)
	assert.Equal(t, "linkedin", result.Platform)
	assert.Equal(t, "Acme builds warehouse robots.", result.CompanyInfo.CompanyOverview)
}

func TestScrapeJob_MissingURL(t *testing.T) {
	_, err := NewService(&fakeClient{}, &fakeScraper{}).ScrapeJob(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingInput)
}

func TestBuildMatchPrompt_Deterministic(t *testing.T) {
	a := BuildMatchPrompt("resume {{.JobDescription}}", "jd")
	b := BuildMatchPrompt("resume {{.JobDescription}}", "jd")
	assert.Equal(t, a, b)
	assert.Contains(t, a, "resume {{.JobDescription}}")
	assert.Contains(t, a, "Match Score:")
}

func TestBuildResearchPrompt_Defaults(t *testing.T) {
	prompt := BuildResearchPrompt("", "jd text", "")
	assert.Contains(t, prompt, unknownCompany)
	assert.Contains(t, prompt, noExternalSources)
	assert.Contains(t, prompt, "jd text")
	assert.NotContains(t, prompt, "{{.")
}

func TestCompletionError_Message(t *testing.T) {
	err := &CompletionError{Operation: "match", Cause: errors.New("boom")}
	assert.Equal(t, "completion for match failed: boom", err.Error())
	assert.Equal(t, "completion for match failed", (&CompletionError{Operation: "match"}).Error())
}
