package search

import (
	"fmt"
	"strings"
)

const (
	// MaxFormattedResults caps how many results are handed to the agent
	MaxFormattedResults = 5

	// NoResults is returned to the agent when the provider found nothing
	NoResults = "No results found"
)

// FormatArticles renders at most MaxFormattedResults articles as
// Title/Link/Snippet blocks separated by "---" lines.
func FormatArticles(articles []Article) string {
	if len(articles) > MaxFormattedResults {
		articles = articles[:MaxFormattedResults]
	}

	formatted := make([]string, 0, len(articles))
	for _, a := range articles {
		formatted = append(formatted, fmt.Sprintf("Title: %s\nLink: %s\nSnippet: %s\n---", a.Title, a.URL, a.Snippet))
	}

	if len(formatted) == 0 {
		return NoResults
	}
	return strings.Join(formatted, "\n")
}

// FormatFailure renders a search error the way the agent sees it
func FormatFailure(err error) string {
	return fmt.Sprintf("Search failed: %v", err)
}
