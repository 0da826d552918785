package serpapi

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/amityadav/researchcrew/internal/search"
	g "github.com/serpapi/google-search-results-golang"
)

// Client is a wrapper around the SerpApi search service
type Client struct {
	apiKey string
}

// SearchResult represents a single organic result from SerpApi
type SearchResult struct {
	Title   string
	URL     string
	Snippet string
}

// SearchResponse represents the relevant parts of the SerpApi response
type SearchResponse struct {
	Results []SearchResult
}

// NewClient creates a new SerpApiClient
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey: apiKey,
	}
}

// Query performs a Google search via SerpApi and returns organic results
func (c *Client) Query(query string, num int) (*SearchResponse, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("SerpApi API key is not set")
	}

	parameter := map[string]string{
		"engine":        "google",
		"q":             query,
		"google_domain": "google.com",
		"gl":            "us",
		"hl":            "en",
	}
	if num > 0 {
		parameter["num"] = strconv.Itoa(num)
	}

	log.Printf("[SerpApi] Searching for: %q", query)
	search := g.NewGoogleSearch(parameter, c.apiKey)
	results, err := search.GetJSON()
	if err != nil {
		return nil, fmt.Errorf("serpapi search failed: %w", err)
	}

	return parseOrganicResults(results), nil
}

// parseOrganicResults focuses on the organic_results node of a SerpApi payload
func parseOrganicResults(results map[string]interface{}) *SearchResponse {
	organicResults, ok := results["organic_results"].([]interface{})
	if !ok {
		log.Printf("[SerpApi] No organic_results found in response")
		return &SearchResponse{Results: []SearchResult{}}
	}

	resultsList := make([]SearchResult, 0, len(organicResults))
	for _, item := range organicResults {
		res, ok := item.(map[string]interface{})
		if !ok {
			continue
		}

		title, _ := res["title"].(string)
		link, _ := res["link"].(string)
		snippet, _ := res["snippet"].(string)

		if title == "" || link == "" {
			continue
		}

		resultsList = append(resultsList, SearchResult{
			Title:   title,
			URL:     link,
			Snippet: snippet,
		})
	}

	log.Printf("[SerpApi] Found %d organic results", len(resultsList))
	return &SearchResponse{Results: resultsList}
}

// Name returns the provider identifier
func (c *Client) Name() string {
	return "serpapi"
}

// Search implements the SearchProvider interface. The SerpApi SDK has no
// context support, so cancellation is only checked before the call.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]search.Article, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp, err := c.Query(query, maxResults)
	if err != nil {
		return nil, err
	}

	articles := make([]search.Article, len(resp.Results))
	for i, r := range resp.Results {
		articles[i] = search.Article{
			Title:    r.Title,
			URL:      r.URL,
			Snippet:  r.Snippet,
			Provider: "serpapi",
		}
	}
	return articles, nil
}
