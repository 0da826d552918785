package tavily

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body SearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "k", body.APIKey)
		assert.Equal(t, "basic", body.SearchDepth)
		assert.Equal(t, 4, body.MaxResults)

		fmt.Fprint(w, `{"query":"q","results":[{"title":"A","url":"https://a.example","content":"about a","score":0.9}]}`)
	}))
	defer srv.Close()

	articles, err := NewClient("k").WithEndpoint(srv.URL).Search(context.Background(), "q", 4)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "about a", articles[0].Snippet)
	assert.Equal(t, "tavily", articles[0].Provider)
}

func TestQueryDefaultsMaxResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body SearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 10, body.MaxResults)
		fmt.Fprint(w, `{"results":[]}`)
	}))
	defer srv.Close()

	resp, err := NewClient("k").WithEndpoint(srv.URL).Query(context.Background(), "q", 0)
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
}

func TestQueryWithoutKey(t *testing.T) {
	_, err := NewClient("").Query(context.Background(), "q", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key is not set")
}

func TestSearchAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewClient("k").WithEndpoint(srv.URL).Search(context.Background(), "q", 4)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
