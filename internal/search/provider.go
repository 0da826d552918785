package search

import "context"

// Article represents a search result from any provider
type Article struct {
	Title    string
	URL      string
	Snippet  string
	Provider string // "serper", "serpapi", "tavily"
}

// SearchProvider is the interface all search providers must implement
type SearchProvider interface {
	// Name returns the provider identifier (e.g., "serper", "tavily")
	Name() string

	// Search runs a web search and returns ranked organic results.
	// An empty slice with a nil error means the provider had no results.
	Search(ctx context.Context, query string, maxResults int) ([]Article, error)
}
