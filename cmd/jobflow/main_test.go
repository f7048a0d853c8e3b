package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jonathan/jobflow/internal/config"
	"github.com/jonathan/jobflow/internal/schemas"
	"github.com/jonathan/jobflow/internal/types"
)

// resetFlags restores every flag to its default so commands can run repeatedly.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// execute runs the CLI in-process and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	for _, key := range []string{"GEMINI_API_KEY", "GOOGLE_SEARCH_API_KEY", "GOOGLE_SEARCH_ENGINE_ID"} {
		t.Setenv(key, "")
	}
	t.Cleanup(func() { resetFlags(rootCmd) })

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), err
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const posting = `<html><body><nav>Nav</nav><main>
<h1>Senior Go Engineer at Acme Robotics</h1>
<p>We are looking for an engineer to build distributed systems in Go.</p>
<ul><li>5+ years of Go</li><li>Kubernetes experience</li></ul>
</main><footer>Footer</footer></body></html>`

func TestScrapeCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(posting))
	}))
	defer srv.Close()
	t.Setenv("JOBFLOW_FETCH_USE_BROWSER", "false")

	out, err := execute(t, "scrape", "--url", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Senior Go Engineer at Acme Robotics")
	assert.NotContains(t, out, "Footer")
}

func TestScrapeCommand_JSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(posting))
	}))
	defer srv.Close()
	t.Setenv("JOBFLOW_FETCH_USE_BROWSER", "false")

	out, err := execute(t, "scrape", "--url", srv.URL, "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"job_description"`)
	assert.Contains(t, out, `"company": "Acme Robotics"`)
}

func TestScrapeCommand_InvalidURL(t *testing.T) {
	_, err := execute(t, "scrape", "--url", "not-a-url")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid URL")
}

func TestCommands_FlagValidation(t *testing.T) {
	resume := writeTemp(t, "resume.txt", "Jane Doe\nGo engineer")
	job := writeTemp(t, "job.txt", "Backend engineer at Acme")

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "scrape without url", args: []string{"scrape"}, wantErr: `required flag(s) "url" not set`},
		{name: "analyze without resume", args: []string{"analyze", "--job", job}, wantErr: `required flag(s) "resume" not set`},
		{name: "analyze without job", args: []string{"analyze", "--resume", resume}, wantErr: "job job-url"},
		{name: "analyze with both jobs", args: []string{"analyze", "--resume", resume, "--job", job, "--job-url", "https://example.com"}, wantErr: "none of the others"},
		{name: "research without job", args: []string{"research"}, wantErr: "job job-url"},
		{name: "unknown format", args: []string{"research", "--job", job, "--format", "yaml"}, wantErr: "unknown output format"},
		{name: "unknown command", args: []string{"frobnicate"}, wantErr: "unknown command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAnalyzeCommand_MissingAPIKey(t *testing.T) {
	resume := writeTemp(t, "resume.txt", "Jane Doe\nGo engineer")
	job := writeTemp(t, "job.txt", "Backend engineer at Acme")

	_, err := execute(t, "analyze", "--resume", resume, "--job", job)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestAnalyzeCommand_MissingResumeFile(t *testing.T) {
	job := writeTemp(t, "job.txt", "Backend engineer at Acme")

	_, err := execute(t, "analyze", "--resume", filepath.Join(t.TempDir(), "nope.pdf"), "--job", job)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read resume")
}

func TestRootCommand_InvalidConfigFromEnv(t *testing.T) {
	t.Setenv("JOBFLOW_LLM_MAX_RETRIES", "-3")

	_, err := execute(t, "scrape", "--url", "https://example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llm.max_retries")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	result := types.MatchResult{Score: 80, Justification: "Strong Go", Suggestions: []string{"Add metrics"}}
	require.NoError(t, writeJSON(&buf, schemas.MatchResult, result))
	assert.Contains(t, buf.String(), `"match_score": 80`)

	buf.Reset()
	err := writeJSON(&buf, schemas.MatchResult, map[string]any{"match_score": 500})
	var validationErr *schemas.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Empty(t, buf.String(), "nothing is printed when validation fails")

	buf.Reset()
	require.NoError(t, writeJSON(&buf, "", map[string]int{"a": 1}))
	assert.JSONEq(t, `{"a":1}`, buf.String())
}

func TestReadJobFile(t *testing.T) {
	text, err := readJobFile("")
	require.NoError(t, err)
	assert.Empty(t, text)

	text, err = readJobFile(writeTemp(t, "job.txt", "  Platform engineer at Initech  \n"))
	require.NoError(t, err)
	assert.Equal(t, "Platform engineer at Initech", text)

	_, err = readJobFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	for _, key := range []string{"GEMINI_API_KEY", "GOOGLE_SEARCH_API_KEY", "GOOGLE_SEARCH_ENGINE_ID"} {
		t.Setenv(key, "")
	}
	cfg, err := config.Load(config.New(), "")
	require.NoError(t, err)
	return cfg
}

func TestNewScraper_AppliesConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Fetch.UseBrowser = false
	cfg.Fetch.BrowserTimeout = 5 * time.Second
	cfg.Fetch.MinContentLength = 42
	cfg.Fetch.UserAgent = "jobflow-test"

	scraper := newScraper(cfg, zap.NewNop())
	assert.False(t, scraper.UseBrowser)
	assert.Equal(t, 5*time.Second, scraper.BrowserTimeout)
	assert.Equal(t, 42, scraper.MinContentLength)
	assert.Equal(t, "jobflow-test", scraper.Options.UserAgent)
}

func TestNewResearcher_AppliesConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Research.APIKey = "key"
	cfg.Research.EngineID = "engine"
	cfg.Research.MaxSources = 2
	cfg.Research.Concurrency = 1

	researcher, err := newResearcher(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 2, researcher.MaxSources)
	assert.Equal(t, 1, researcher.Concurrency)
	assert.NotNil(t, researcher.Searcher)
	assert.NotNil(t, researcher.Fetcher)
}

func TestNewApp_RequiresAPIKey(t *testing.T) {
	_, err := newApp(context.Background(), testConfig(t), zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}
