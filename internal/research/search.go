package research

import (
	"context"
	"fmt"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

// maxResultsPerQuery is the Custom Search API limit for one request.
const maxResultsPerQuery = 10

// SearchHit is one web search result.
type SearchHit struct {
	URL     string
	Title   string
	Snippet string
}

// Searcher finds web pages for a query.
type Searcher interface {
	Search(ctx context.Context, query string, n int) ([]SearchHit, error)
}

// CustomSearch implements Searcher with the Google Custom Search JSON API.
type CustomSearch struct {
	svc *customsearch.Service
	cx  string
}

// NewCustomSearch creates a Custom Search client for the given engine id.
func NewCustomSearch(ctx context.Context, apiKey string, cx string, opts ...option.ClientOption) (*CustomSearch, error) {
	if apiKey == "" || cx == "" {
		return nil, fmt.Errorf("custom search requires an API key and an engine id")
	}
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create customsearch service: %w", err)
	}
	return &CustomSearch{svc: svc, cx: cx}, nil
}

// Search returns up to n results for query.
func (c *CustomSearch) Search(ctx context.Context, query string, n int) ([]SearchHit, error) {
	if n <= 0 || n > maxResultsPerQuery {
		n = maxResultsPerQuery
	}

	resp, err := c.svc.Cse.List().Cx(c.cx).Q(query).Num(int64(n)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("search %q failed: %w", query, err)
	}

	hits := make([]SearchHit, 0, len(resp.Items))
	for _, item := range resp.Items {
		hits = append(hits, SearchHit{
			URL:     item.Link,
			Title:   item.Title,
			Snippet: item.Snippet,
		})
	}
	return hits, nil
}
