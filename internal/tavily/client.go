package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/amityadav/researchcrew/internal/search"
)

const apiURL = "https://api.tavily.com/search"

// Client is a Tavily Search API client
type Client struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

// NewClient creates a new Tavily API client
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:   apiKey,
		endpoint: apiURL,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// WithEndpoint points the client at a different search URL
func (c *Client) WithEndpoint(endpoint string) *Client {
	c.endpoint = endpoint
	return c
}

// SearchRequest represents the Tavily search request payload
type SearchRequest struct {
	Query          string   `json:"query"`
	APIKey         string   `json:"api_key"`
	SearchDepth    string   `json:"search_depth,omitempty"` // "basic" or "advanced"
	IncludeAnswer  bool     `json:"include_answer,omitempty"`
	IncludeDomains []string `json:"include_domains,omitempty"`
	ExcludeDomains []string `json:"exclude_domains,omitempty"`
	MaxResults     int      `json:"max_results,omitempty"`
}

// SearchResult represents a single search result from Tavily
type SearchResult struct {
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	Content    string  `json:"content"` // Snippet
	Score      float64 `json:"score"`
	RawContent string  `json:"raw_content,omitempty"`
}

// SearchResponse represents the Tavily search response
type SearchResponse struct {
	Query        string         `json:"query"`
	Answer       string         `json:"answer,omitempty"`
	Results      []SearchResult `json:"results"`
	ResponseTime float64        `json:"response_time"`
}

// Query performs a basic-depth general web search
func (c *Client) Query(ctx context.Context, query string, maxResults int) (*SearchResponse, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("tavily API key is not set")
	}
	if maxResults <= 0 {
		maxResults = 10
	}

	reqBody := SearchRequest{
		Query:       query,
		APIKey:      c.apiKey,
		SearchDepth: "basic",
		MaxResults:  maxResults,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	log.Printf("[Tavily] Searching for: %q (max %d results)", query, maxResults)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	log.Printf("[Tavily] Response status: %d", resp.StatusCode)

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("api error: %d %s", resp.StatusCode, string(bodyBytes))
	}

	var searchResp SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	log.Printf("[Tavily] Found %d results for query: %s", len(searchResp.Results), query)
	return &searchResp, nil
}

// Name returns the provider identifier
func (c *Client) Name() string {
	return "tavily"
}

// Search implements the SearchProvider interface with a general web search
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]search.Article, error) {
	resp, err := c.Query(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}

	articles := make([]search.Article, len(resp.Results))
	for i, r := range resp.Results {
		articles[i] = search.Article{
			Title:    r.Title,
			URL:      r.URL,
			Snippet:  r.Content,
			Provider: "tavily",
		}
	}
	return articles, nil
}
