package tools

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/amityadav/researchcrew/internal/scraper"
	"github.com/amityadav/researchcrew/prompts"
	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"
)

// WebpageToolName is the name the research agent calls the reader tool by
const WebpageToolName = "read_webpage"

// PageReader fetches readable page content; *scraper.Scraper satisfies it
type PageReader interface {
	Scrape(ctx context.Context, url string) (*scraper.Page, error)
}

// WebpageArgs is the model-facing input of the reader tool
type WebpageArgs struct {
	URL string `json:"url" jsonschema:"Absolute http(s) URL of the page to read"`
}

// WebpageResult is the model-facing output of the reader tool
type WebpageResult struct {
	Content string `json:"content"`
}

// NewWebpageTool creates the webpage reading tool
func NewWebpageTool(r PageReader) (tool.Tool, error) {
	handler := func(ctx tool.Context, args WebpageArgs) (WebpageResult, error) {
		return WebpageResult{Content: readWebpage(ctx, r, args.URL)}, nil
	}

	t, err := functiontool.New(functiontool.Config{
		Name:        WebpageToolName,
		Description: prompts.ToolReadWebpageDesc,
	}, handler)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s tool: %w", WebpageToolName, err)
	}
	return t, nil
}

func readWebpage(ctx context.Context, r PageReader, rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Sprintf("Failed to read webpage: invalid url %q", rawURL)
	}

	page, err := r.Scrape(ctx, u.String())
	if err != nil {
		log.Printf("[WebpageTool] Failed: %v", err)
		return fmt.Sprintf("Failed to read webpage: %v", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Title: %s\nLink: %s\n", page.Title, page.URL)
	if page.SiteName != "" {
		fmt.Fprintf(&sb, "Site: %s\n", page.SiteName)
	}
	if page.Description != "" {
		fmt.Fprintf(&sb, "Description: %s\n", page.Description)
	}
	sb.WriteString("\n")
	sb.WriteString(page.Content)
	return sb.String()
}
