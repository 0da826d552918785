package serper

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

const apiURL = "https://google.serper.dev/search"

// Client is a Serper (Google Search) API client
type Client struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

// NewClient creates a new Serper API client
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:   apiKey,
		endpoint: apiURL,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// WithEndpoint points the client at a different search URL (proxies, tests)
func (c *Client) WithEndpoint(endpoint string) *Client {
	c.endpoint = endpoint
	return c
}

// SearchRequest represents the Serper search request payload
type SearchRequest struct {
	Query string `json:"q"`
	Num   int    `json:"num,omitempty"`
}

// OrganicResult represents a single organic result from Serper
type OrganicResult struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
	Position int    `json:"position"`
	Date     string `json:"date,omitempty"`
}

// SearchResponse represents the relevant parts of the Serper response.
// Organic is nil when the response carried no "organic" field.
type SearchResponse struct {
	Organic []OrganicResult `json:"organic"`
}

// Query performs a raw search against the Serper API
func (c *Client) Query(ctx context.Context, query string, num int) (*SearchResponse, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("serper API key is not set")
	}

	jsonBody, err := json.Marshal(SearchRequest{Query: query, Num: num})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	log.Printf("[Serper] Searching for: %q", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	log.Printf("[Serper] Response status: %d", resp.StatusCode)

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("api error: %d %s", resp.StatusCode, string(bodyBytes))
	}

	var searchResp SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if searchResp.Organic == nil {
		log.Printf("[Serper] No organic results found in response")
	} else {
		log.Printf("[Serper] Found %d organic results for query: %s", len(searchResp.Organic), query)
	}
	return &searchResp, nil
}

// Name returns the provider identifier
func (c *Client) Name() string {
	return "serper"
}

// Search implements the SearchProvider interface
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]search.Article, error) {
	resp, err := c.Query(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}

	articles := make([]search.Article, 0, len(resp.Organic))
	for _, r := range resp.Organic {
		articles = append(articles, search.Article{
			Title:    r.Title,
			URL:      r.Link,
			Snippet:  r.Snippet,
			Provider: "serper",
		})
	}
	return articles, nil
}
