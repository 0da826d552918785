package serper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/amityadav/researchcrew/internal/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(handler))
	t.Cleanup(srv.Close)
	return srv
}

func TestSearchSendsExpectedRequest(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "secret", r.Header.Get("X-API-KEY"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body SearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "golang generics", body.Query)

		fmt.Fprint(w, `{"organic":[{"title":"Go","link":"https://go.dev","snippet":"The Go language"}]}`)
	})

	c := NewClient("secret").WithEndpoint(srv.URL)
	articles, err := c.Search(context.Background(), "golang generics", 5)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, search.Article{Title: "Go", URL: "https://go.dev", Snippet: "The Go language", Provider: "serper"}, articles[0])
}

func TestSearchWithoutOrganicField(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"searchParameters":{"q":"nothing"},"knowledgeGraph":{}}`)
	})

	c := NewClient("secret").WithEndpoint(srv.URL)
	articles, err := c.Search(context.Background(), "nothing", 5)
	require.NoError(t, err)
	assert.Empty(t, articles)
	assert.Equal(t, search.NoResults, search.FormatArticles(articles))
}

func TestSearchTruncatesFormattedOutput(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var organic []string
		for i := 1; i <= 9; i++ {
			organic = append(organic, fmt.Sprintf(`{"title":"T%d","link":"https://example.com/%d","snippet":"S%d"}`, i, i, i))
		}
		fmt.Fprintf(w, `{"organic":[%s]}`, strings.Join(organic, ","))
	})

	c := NewClient("secret").WithEndpoint(srv.URL)
	articles, err := c.Search(context.Background(), "many", 10)
	require.NoError(t, err)
	assert.Len(t, articles, 9)

	out := search.FormatArticles(articles)
	assert.Equal(t, 5, strings.Count(out, "Title: "))
	assert.Contains(t, out, "Title: T5")
	assert.NotContains(t, out, "Title: T6")
}

func TestSearchErrors(t *testing.T) {
	t.Run("missing key", func(t *testing.T) {
		_, err := NewClient("").Search(context.Background(), "q", 5)
		assert.Error(t, err)
	})

	t.Run("non-200", func(t *testing.T) {
		srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"message":"Unauthorized."}`, http.StatusForbidden)
		})
		_, err := NewClient("bad").WithEndpoint(srv.URL).Search(context.Background(), "q", 5)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "403")
	})

	t.Run("malformed body", func(t *testing.T) {
		srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"organic": [`)
		})
		_, err := NewClient("k").WithEndpoint(srv.URL).Search(context.Background(), "q", 5)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decode")
	})
}
