package fetch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingFetch struct {
	calls map[string]int
	err   error
}

func (c *countingFetch) fetch(_ context.Context, url string, _ *Options) (*Result, error) {
	if c.calls == nil {
		c.calls = make(map[string]int)
	}
	c.calls[url]++
	if c.err != nil {
		return nil, c.err
	}
	return &Result{URL: url, HTML: "<p>" + url + "</p>", StatusCode: 200}, nil
}

func newTestCache(t *testing.T, config *CachedFetcherConfig) (*CachedFetcher, *countingFetch, *time.Time) {
	t.Helper()
	f := NewCachedFetcher(config)
	counter := &countingFetch{}
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	f.fetch = counter.fetch
	f.now = func() time.Time { return now }
	return f, counter, &now
}

func TestCachedFetcher_ReusesFreshPages(t *testing.T) {
	f, counter, _ := newTestCache(t, nil)

	first, err := f.Fetch(context.Background(), "https://acme.test/about")
	require.NoError(t, err)
	assert.False(t, first.FromCache)

	second, err := f.Fetch(context.Background(), "https://acme.test/about")
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, first.HTML, second.HTML)
	assert.Equal(t, 1, counter.calls["https://acme.test/about"])
}

func TestCachedFetcher_ExpiresAfterTTL(t *testing.T) {
	f, counter, now := newTestCache(t, &CachedFetcherConfig{CacheTTL: time.Minute})

	_, err := f.Fetch(context.Background(), "https://acme.test")
	require.NoError(t, err)

	*now = now.Add(2 * time.Minute)
	result, err := f.Fetch(context.Background(), "https://acme.test")
	require.NoError(t, err)
	assert.False(t, result.FromCache)
	assert.Equal(t, 2, counter.calls["https://acme.test"])
}

func TestCachedFetcher_DoesNotCacheFailures(t *testing.T) {
	f, counter, _ := newTestCache(t, nil)
	counter.err = errors.New("boom")

	_, err := f.Fetch(context.Background(), "https://acme.test")
	require.Error(t, err)
	assert.Equal(t, 0, f.Len())
}

func TestCachedFetcher_EvictsOldestWhenFull(t *testing.T) {
	f, counter, now := newTestCache(t, &CachedFetcherConfig{MaxEntries: 2})

	for _, u := range []string{"https://a.test", "https://b.test", "https://c.test"} {
		_, err := f.Fetch(context.Background(), u)
		require.NoError(t, err)
		*now = now.Add(time.Second)
	}
	assert.Equal(t, 2, f.Len())

	_, err := f.Fetch(context.Background(), "https://a.test")
	require.NoError(t, err)
	assert.Equal(t, 2, counter.calls["https://a.test"], "oldest entry was evicted")
}

func TestNewCachedFetcher_Defaults(t *testing.T) {
	f := NewCachedFetcher(&CachedFetcherConfig{})
	assert.Equal(t, DefaultCacheTTL, f.ttl)
	assert.Equal(t, DefaultCacheEntries, f.maxEntries)
	assert.NotNil(t, f.options)
}
