package ingestion

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/jonathan/jobflow/internal/fetch"
	"github.com/jonathan/jobflow/internal/parsing"
)

// ScrapeResult is the cleaned text of a job posting.
type ScrapeResult struct {
	Text string `json:"job_description"`
	Metadata
}

// Scraper turns a job posting URL into clean text. A static fetch is tried first;
// when it yields less than MinContentLength characters and UseBrowser is set, the
// page is rendered in a headless browser and extracted again.
type Scraper struct {
	Options          *fetch.Options
	UseBrowser       bool
	BrowserTimeout   time.Duration
	MinContentLength int
	// Render renders a page for the browser fallback. Nil uses fetch.WithBrowser.
	Render fetch.RenderFunc
	Logger *zap.Logger
}

// NewScraper returns a Scraper with default fetch options and browser fallback enabled.
func NewScraper(logger *zap.Logger) *Scraper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scraper{
		Options:          fetch.DefaultOptions(),
		UseBrowser:       true,
		BrowserTimeout:   fetch.DefaultBrowserTimeout,
		MinContentLength: fetch.MinContentLength,
		Render:           fetch.NewBrowserRenderer(logger),
		Logger:           logger,
	}
}

func (s *Scraper) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// Scrape fetches urlStr and extracts the job description text.
func (s *Scraper) Scrape(ctx context.Context, urlStr string) (*ScrapeResult, error) {
	if err := fetch.ValidateURL(urlStr); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}

	log := s.logger().With(zap.String("url", urlStr))
	platform := fetch.DetectPlatform(urlStr)
	contentSelectors := fetch.PlatformContentSelectors(platform)
	noiseSelectors := fetch.PlatformNoiseSelectors(platform)

	var (
		text        string
		staticErr   error
		usedBrowser bool
	)

	result, err := fetch.URL(ctx, urlStr, s.Options)
	if err != nil {
		staticErr = err
		log.Debug("static fetch failed", zap.Error(err))
	} else {
		text, err = fetch.ExtractMainText(result.HTML, contentSelectors, noiseSelectors...)
		if err != nil {
			staticErr = err
		}
		log.Debug("static fetch extracted text",
			zap.String("platform", string(platform)),
			zap.Int("html_bytes", len(result.HTML)),
			zap.Int("text_chars", utf8.RuneCountInString(text)))
	}

	if s.UseBrowser && fetch.ShouldUseBrowser(text, s.MinContentLength) {
		rendered, renderErr := s.render(ctx, urlStr)
		if renderErr != nil {
			log.Warn("browser fallback failed, keeping static content", zap.Error(renderErr))
		} else if browserText, extractErr := fetch.ExtractMainText(rendered, contentSelectors, noiseSelectors...); extractErr != nil {
			log.Warn("browser content extraction failed", zap.Error(extractErr))
		} else if utf8.RuneCountInString(browserText) > utf8.RuneCountInString(text) {
			text = browserText
			usedBrowser = true
		}
	}

	cleaned := CleanText(text)
	if cleaned == "" {
		if staticErr != nil && !usedBrowser {
			return nil, classifyFetchError(staticErr)
		}
		return nil, fmt.Errorf("%w: no text found at %s", ErrContentExtractionFailed, urlStr)
	}

	meta := NewMetadata(cleaned, urlStr)
	meta.Platform = string(platform)
	meta.UsedBrowser = usedBrowser
	meta.Company = parsing.ExtractCompanyName(cleaned)

	log.Info("scraped job posting",
		zap.String("platform", meta.Platform),
		zap.Bool("used_browser", usedBrowser),
		zap.Int("chars", utf8.RuneCountInString(cleaned)))

	return &ScrapeResult{Text: cleaned, Metadata: meta}, nil
}

func (s *Scraper) render(ctx context.Context, urlStr string) (string, error) {
	render := s.Render
	if render == nil {
		render = fetch.NewBrowserRenderer(s.logger())
	}
	return render(ctx, urlStr, s.BrowserTimeout)
}

func classifyFetchError(err error) error {
	var fetchErr *fetch.Error
	if errors.As(err, &fetchErr) {
		return fmt.Errorf("%w: %w", ErrHTTPRequestFailed, err)
	}
	return fmt.Errorf("%w: %w", ErrContentExtractionFailed, err)
}
