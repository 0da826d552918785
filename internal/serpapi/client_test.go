package serpapi

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrganicResults(t *testing.T) {
	payload := map[string]interface{}{
		"organic_results": []interface{}{
			map[string]interface{}{"title": "Go", "link": "https://go.dev", "snippet": "Build simple software"},
			map[string]interface{}{"title": "", "link": "https://skipped.example"},
			"not a map",
			map[string]interface{}{"title": "Tour", "link": "https://go.dev/tour"},
		},
	}

	resp := parseOrganicResults(payload)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "Go", resp.Results[0].Title)
	assert.Equal(t, "https://go.dev/tour", resp.Results[1].URL)
	assert.Empty(t, resp.Results[1].Snippet)
}

func TestParseOrganicResultsMissing(t *testing.T) {
	resp := parseOrganicResults(map[string]interface{}{"search_metadata": map[string]interface{}{}})
	assert.NotNil(t, resp.Results)
	assert.Empty(t, resp.Results)
}

func TestSearchRequiresKey(t *testing.T) {
	_, err := NewClient("").Search(context.Background(), "go", 5)
	assert.Error(t, err)
}

func TestSearchLive(t *testing.T) {
	key := os.Getenv("SERPAPI_API_KEY")
	if key == "" {
		t.Skip("SERPAPI_API_KEY required for this test")
	}

	articles, err := NewClient(key).Search(context.Background(), "golang release notes", 5)
	require.NoError(t, err)
	t.Logf("Got %d articles", len(articles))
}
