package fetch

import (
	"context"
	"sync"
	"time"
)

// DefaultCacheTTL is how long a fetched page is reused.
const DefaultCacheTTL = 6 * time.Hour

// DefaultCacheEntries bounds the number of cached pages.
const DefaultCacheEntries = 512

// CachedFetcher wraps URL fetching with an in-memory page cache.
// Research for the same company tends to hit the same about pages repeatedly.
type CachedFetcher struct {
	options    *Options
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
	fetch      func(ctx context.Context, url string, opts *Options) (*Result, error)

	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	result    *Result
	fetchedAt time.Time
}

// CachedFetcherConfig holds configuration for the cached fetcher.
type CachedFetcherConfig struct {
	CacheTTL   time.Duration
	MaxEntries int
	Options    *Options
}

// DefaultCachedFetcherConfig returns sensible defaults.
func DefaultCachedFetcherConfig() *CachedFetcherConfig {
	return &CachedFetcherConfig{
		CacheTTL:   DefaultCacheTTL,
		MaxEntries: DefaultCacheEntries,
		Options:    DefaultOptions(),
	}
}

// NewCachedFetcher creates a new cached fetcher.
func NewCachedFetcher(config *CachedFetcherConfig) *CachedFetcher {
	if config == nil {
		config = DefaultCachedFetcherConfig()
	}
	if config.Options == nil {
		config.Options = DefaultOptions()
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = DefaultCacheTTL
	}
	if config.MaxEntries <= 0 {
		config.MaxEntries = DefaultCacheEntries
	}
	return &CachedFetcher{
		options:    config.Options,
		ttl:        config.CacheTTL,
		maxEntries: config.MaxEntries,
		now:        time.Now,
		fetch:      URL,
		entries:    make(map[string]cacheEntry),
	}
}

// CachedResult extends Result with cache metadata.
type CachedResult struct {
	*Result
	FromCache bool
}

// Fetch retrieves a URL, returning a cached copy while it is younger than the TTL.
// Failed fetches are not cached.
func (f *CachedFetcher) Fetch(ctx context.Context, urlStr string) (*CachedResult, error) {
	now := f.now()

	f.mu.Lock()
	if entry, ok := f.entries[urlStr]; ok {
		if now.Sub(entry.fetchedAt) < f.ttl {
			f.mu.Unlock()
			return &CachedResult{Result: entry.result, FromCache: true}, nil
		}
		delete(f.entries, urlStr)
	}
	f.mu.Unlock()

	result, err := f.fetch(ctx, urlStr, f.options)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	if len(f.entries) >= f.maxEntries {
		f.evictLocked(now)
	}
	f.entries[urlStr] = cacheEntry{result: result, fetchedAt: now}
	f.mu.Unlock()

	return &CachedResult{Result: result}, nil
}

// Len returns the number of cached pages, including stale ones not yet evicted.
func (f *CachedFetcher) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

// evictLocked drops expired entries, then the oldest entry if the cache is still full.
func (f *CachedFetcher) evictLocked(now time.Time) {
	var oldestURL string
	var oldest time.Time
	for u, entry := range f.entries {
		if now.Sub(entry.fetchedAt) >= f.ttl {
			delete(f.entries, u)
			continue
		}
		if oldestURL == "" || entry.fetchedAt.Before(oldest) {
			oldestURL, oldest = u, entry.fetchedAt
		}
	}
	if len(f.entries) >= f.maxEntries && oldestURL != "" {
		delete(f.entries, oldestURL)
	}
}
