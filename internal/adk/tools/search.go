package tools

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/amityadav/researchcrew/internal/search"
	"github.com/amityadav/researchcrew/prompts"
	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"
)

// SearchToolName is the name the research agent calls the search tool by
const SearchToolName = "search_internet"

// Searcher runs a web search; *search.Registry satisfies it
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]search.Article, error)
}

// SearchArgs is the model-facing input of the search tool
type SearchArgs struct {
	SearchQuery string `json:"search_query" jsonschema:"Search query to execute"`
}

// SearchResult is the model-facing output of the search tool
type SearchResult struct {
	Results string `json:"results"`
}

// NewSearchTool creates the internet search tool backed by the given searcher
func NewSearchTool(s Searcher) (tool.Tool, error) {
	handler := func(ctx tool.Context, args SearchArgs) (SearchResult, error) {
		return SearchResult{Results: searchInternet(ctx, s, args.SearchQuery)}, nil
	}

	t, err := functiontool.New(functiontool.Config{
		Name:        SearchToolName,
		Description: prompts.ToolSearchDesc,
	}, handler)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s tool: %w", SearchToolName, err)
	}
	return t, nil
}

// searchInternet never returns an error: failures become text the agent can read
func searchInternet(ctx context.Context, s Searcher, query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return search.FormatFailure(fmt.Errorf("empty search query"))
	}

	log.Printf("[SearchTool] Query: %q", query)
	articles, err := s.Search(ctx, query, search.MaxFormattedResults)
	if err != nil {
		log.Printf("[SearchTool] Failed: %v", err)
		return search.FormatFailure(err)
	}

	return search.FormatArticles(articles)
}
