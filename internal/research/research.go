// Package research gathers public information about a company from the web to
// ground the company profile the model writes.
package research

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"unicode/utf8"

	readability "github.com/go-shiori/go-readability"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/jobflow/internal/fetch"
	"github.com/jonathan/jobflow/internal/types"
)

// Defaults for a Researcher.
const (
	DefaultMaxSources        = 5
	DefaultMaxCharsPerSource = 3000
	DefaultConcurrency       = 4
	DefaultResultsPerQuery   = 5
	// minSourceChars drops pages that are mostly navigation or cookie walls.
	minSourceChars = 200
)

// ErrNoCompany is returned when research is requested without a company name.
var ErrNoCompany = errors.New("company name is required")

// PageFetcher retrieves a page. *fetch.CachedFetcher satisfies it.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.CachedResult, error)
}

// Researcher discovers and reads pages about a company.
type Researcher struct {
	Searcher          Searcher
	Fetcher           PageFetcher
	MaxSources        int
	MaxCharsPerSource int
	Concurrency       int
	ResultsPerQuery   int
	Logger            *zap.Logger
}

// New returns a Researcher with default limits.
func New(searcher Searcher, fetcher PageFetcher, logger *zap.Logger) *Researcher {
	if fetcher == nil {
		fetcher = fetch.NewCachedFetcher(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Researcher{
		Searcher:          searcher,
		Fetcher:           fetcher,
		MaxSources:        DefaultMaxSources,
		MaxCharsPerSource: DefaultMaxCharsPerSource,
		Concurrency:       DefaultConcurrency,
		ResultsPerQuery:   DefaultResultsPerQuery,
		Logger:            logger,
	}
}

// Findings is the outcome of researching one company.
type Findings struct {
	Company string                 `json:"company"`
	Queries []string               `json:"queries"`
	Sources []types.ResearchSource `json:"sources"`
}

// Corpus renders the sources as plain text for inclusion in a prompt.
func (f *Findings) Corpus() string {
	if f == nil || len(f.Sources) == 0 {
		return ""
	}

	var sb strings.Builder
	for i, src := range f.Sources {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "[%d] %s\nURL: %s\n%s", i+1, src.Title, src.URL, src.Text)
	}
	return sb.String()
}

// Queries returns the searches run for a company.
func Queries(company string) []string {
	return []string{
		company + " official website",
		company + " about mission values",
		company + " products customers",
		company + " news",
	}
}

type candidate struct {
	hit      SearchHit
	priority float64
	order    int
}

// Gather searches for the company, keeps first-party pages, and reads up to
// MaxSources of them concurrently. Pages that fail to load are skipped; finding
// nothing is not an error. An error is returned only when every search fails.
func (r *Researcher) Gather(ctx context.Context, company string) (*Findings, error) {
	company = strings.TrimSpace(company)
	if company == "" {
		return nil, ErrNoCompany
	}
	if r.Searcher == nil {
		return nil, errors.New("research: no searcher configured")
	}

	log := r.logger().With(zap.String("company", company))
	findings := &Findings{Company: company, Queries: Queries(company)}

	candidates, err := r.search(ctx, findings.Queries, log)
	if err != nil {
		return nil, err
	}

	maxSources := positiveOr(r.MaxSources, DefaultMaxSources)
	if len(candidates) > maxSources*2 {
		// Keep spares for pages that fail to load
		candidates = candidates[:maxSources*2]
	}

	sources := make([]*types.ResearchSource, len(candidates))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(positiveOr(r.Concurrency, DefaultConcurrency))
	for i, c := range candidates {
		g.Go(func() error {
			src, err := r.read(gCtx, c.hit)
			if err != nil {
				log.Debug("skipping research page", zap.String("url", c.hit.URL), zap.Error(err))
				return nil
			}
			sources[i] = src
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, src := range sources {
		if src == nil {
			continue
		}
		findings.Sources = append(findings.Sources, *src)
		if len(findings.Sources) == maxSources {
			break
		}
	}

	log.Info("company research gathered",
		zap.Int("candidates", len(candidates)),
		zap.Int("sources", len(findings.Sources)))
	return findings, nil
}

// search runs every query and returns first-party candidates, best first.
func (r *Researcher) search(ctx context.Context, queries []string, log *zap.Logger) ([]candidate, error) {
	seen := make(map[string]bool)
	var candidates []candidate
	var errs []error

	for _, q := range queries {
		hits, err := r.Searcher.Search(ctx, q, positiveOr(r.ResultsPerQuery, DefaultResultsPerQuery))
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			log.Warn("research search failed", zap.String("query", q), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		for _, hit := range hits {
			key := normalizeURL(hit.URL)
			if key == "" || seen[key] || IsThirdParty(hit.URL) {
				continue
			}
			seen[key] = true
			candidates = append(candidates, candidate{
				hit:      hit,
				priority: AssignPathPriority(hit.URL),
				order:    len(candidates),
			})
		}
	}

	if len(errs) == len(queries) && len(errs) > 0 {
		return nil, fmt.Errorf("all company searches failed: %w", errors.Join(errs...))
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].priority > candidates[j].priority
	})
	return candidates, nil
}

// read fetches one page and extracts its readable text.
func (r *Researcher) read(ctx context.Context, hit SearchHit) (*types.ResearchSource, error) {
	page, err := r.Fetcher.Fetch(ctx, hit.URL)
	if err != nil {
		return nil, err
	}

	title, text := extractArticle(page.HTML, hit.URL)
	if utf8.RuneCountInString(text) < minSourceChars {
		return nil, fmt.Errorf("page too short (%d chars)", utf8.RuneCountInString(text))
	}
	if title == "" {
		title = hit.Title
	}

	return &types.ResearchSource{
		URL:   hit.URL,
		Title: title,
		Text:  truncateRunes(text, positiveOr(r.MaxCharsPerSource, DefaultMaxCharsPerSource)),
	}, nil
}

// extractArticle prefers readability's article text and falls back to the page's
// main content when readability finds nothing.
func extractArticle(html string, pageURL string) (title string, text string) {
	parsedURL, _ := url.Parse(pageURL)
	article, err := readability.FromReader(strings.NewReader(html), parsedURL)
	if err == nil {
		title = strings.TrimSpace(article.Title)
		text = collapseBlankLines(article.TextContent)
	}

	if utf8.RuneCountInString(text) < minSourceChars {
		if fallback, err := fetch.ExtractMainText(html, fetch.CompanyPageSelectors()); err == nil &&
			utf8.RuneCountInString(fallback) > utf8.RuneCountInString(text) {
			text = fallback
		}
	}
	if title == "" {
		title = fetch.PageTitle(html)
	}
	return title, text
}

func collapseBlankLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func normalizeURL(raw string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || parsed.Host == "" {
		return ""
	}
	parsed.Fragment = ""
	parsed.Host = strings.ToLower(parsed.Host)
	parsed.Path = strings.TrimSuffix(parsed.Path, "/")
	return parsed.String()
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:n])) + "..."
}

func positiveOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

func (r *Researcher) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}
