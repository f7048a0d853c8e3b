package fetch

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// MinContentLength is the minimum extracted text length to consider HTTP fetch successful.
// If content is shorter, the page is rendered in a headless browser instead.
const MinContentLength = 500

// DefaultBrowserTimeout bounds a whole headless rendering.
const DefaultBrowserTimeout = 45 * time.Second

// RenderFunc renders a page and returns its HTML. WithBrowser is the production implementation.
type RenderFunc func(ctx context.Context, url string, timeout time.Duration) (string, error)

// ShouldUseBrowser returns true if the extracted text is shorter than minLength characters,
// indicating the page is likely a JavaScript-rendered SPA. A non-positive minLength
// uses MinContentLength.
func ShouldUseBrowser(extractedText string, minLength int) bool {
	if minLength <= 0 {
		minLength = MinContentLength
	}
	return utf8.RuneCountInString(strings.TrimSpace(extractedText)) < minLength
}

// NewBrowserRenderer returns a RenderFunc backed by WithBrowser that logs through logger.
func NewBrowserRenderer(logger *zap.Logger) RenderFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, url string, timeout time.Duration) (string, error) {
		start := time.Now()
		logger.Debug("starting headless browser", zap.String("url", url))

		html, err := WithBrowser(ctx, url, timeout)
		if err != nil {
			logger.Warn("browser rendering failed", zap.String("url", url), zap.Error(err))
			return "", err
		}

		logger.Debug("browser rendered page",
			zap.String("url", url),
			zap.Int("bytes", len(html)),
			zap.Duration("elapsed", time.Since(start)))
		return html, nil
	}
}

// WithBrowser renders a page in a headless browser and returns the rendered HTML.
// Requires Chrome/Chromium to be installed on the system.
func WithBrowser(ctx context.Context, url string, timeout time.Duration) (string, error) {
	if err := ValidateURL(url); err != nil {
		return "", err
	}
	if timeout <= 0 {
		timeout = DefaultBrowserTimeout
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.UserAgent(DefaultUserAgent),
		)...,
	)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, timeout)
	defer cancelTimeout()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		// Give client-side rendering time to populate the description
		chromedp.Sleep(3*time.Second),
		chromedp.ActionFunc(func(ctx context.Context) error {
			// Expand collapsed descriptions and dismiss consent banners; absence is fine
			_ = chromedp.Click(`button.show-more-less-html__button, button[id*="accept"], button[class*="accept"]`,
				chromedp.NodeVisible, chromedp.AtLeast(0)).Do(ctx)
			return nil
		}),
		chromedp.Sleep(1*time.Second),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("browser rendering failed: %w", err)
	}

	return html, nil
}
