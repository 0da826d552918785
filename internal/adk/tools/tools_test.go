package tools

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/amityadav/researchcrew/internal/mail"
	"github.com/amityadav/researchcrew/internal/scraper"
	"github.com/amityadav/researchcrew/internal/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	articles []search.Article
	err      error
	gotQuery string
	gotMax   int
}

func (f *fakeSearcher) Search(ctx context.Context, query string, maxResults int) ([]search.Article, error) {
	f.gotQuery = query
	f.gotMax = maxResults
	return f.articles, f.err
}

type fakeMailer struct {
	err  error
	sent []string
}

func (f *fakeMailer) SendMarkdown(ctx context.Context, to, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, to)
	return nil
}

type fakeReader struct {
	page *scraper.Page
	err  error
}

func (f *fakeReader) Scrape(ctx context.Context, url string) (*scraper.Page, error) {
	return f.page, f.err
}

func TestSearchInternet(t *testing.T) {
	s := &fakeSearcher{articles: []search.Article{
		{Title: "Quantum advantage", URL: "https://example.com/q", Snippet: "New results"},
	}}

	out := searchInternet(context.Background(), s, "  quantum computing  ")
	assert.Equal(t, "quantum computing", s.gotQuery)
	assert.Equal(t, search.MaxFormattedResults, s.gotMax)
	assert.Equal(t, "Title: Quantum advantage\nLink: https://example.com/q\nSnippet: New results\n---", out)
}

func TestSearchInternetNoResults(t *testing.T) {
	out := searchInternet(context.Background(), &fakeSearcher{}, "nothing")
	assert.Equal(t, search.NoResults, out)
}

func TestSearchInternetFailure(t *testing.T) {
	out := searchInternet(context.Background(), &fakeSearcher{err: errors.New("quota exhausted")}, "q")
	assert.Equal(t, "Search failed: quota exhausted", out)

	out = searchInternet(context.Background(), &fakeSearcher{}, "   ")
	assert.Contains(t, out, "Search failed:")
}

func TestSendEmail(t *testing.T) {
	args := EmailArgs{ToEmail: "ada@example.com", Subject: "Report", Body: "# Hi"}

	m := &fakeMailer{}
	assert.Equal(t, "✅ Email sent successfully to ada@example.com", sendEmail(context.Background(), m, args))
	assert.Equal(t, []string{"ada@example.com"}, m.sent)

	m = &fakeMailer{err: mail.ErrMissingCredentials}
	assert.Equal(t, "❌ Email credentials not found in environment variables", sendEmail(context.Background(), m, args))

	m = &fakeMailer{err: fmt.Errorf("dial: %w", errors.New("connection refused"))}
	assert.Equal(t, "❌ Failed to send email: dial: connection refused", sendEmail(context.Background(), m, args))
}

func TestReadWebpage(t *testing.T) {
	r := &fakeReader{page: &scraper.Page{
		URL:      "https://example.com/a",
		Title:    "Article",
		SiteName: "Example",
		Content:  "Body text",
	}}

	out := readWebpage(context.Background(), r, "https://example.com/a")
	assert.Equal(t, "Title: Article\nLink: https://example.com/a\nSite: Example\n\nBody text", out)
}

func TestReadWebpageErrors(t *testing.T) {
	out := readWebpage(context.Background(), &fakeReader{}, "ftp://example.com")
	assert.Contains(t, out, "invalid url")

	out = readWebpage(context.Background(), &fakeReader{err: errors.New("timeout")}, "https://example.com")
	assert.Equal(t, "Failed to read webpage: timeout", out)
}

func TestReadWebpageRefusesInternalHosts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body><article><p>internal admin secret token value here</p></article></body></html>")
	}))
	defer srv.Close()

	out := readWebpage(context.Background(), scraper.NewScraper(), srv.URL+"/admin")
	assert.True(t, strings.HasPrefix(out, "Failed to read webpage: "), out)
	assert.NotContains(t, out, "secret")
}

func TestNewTools(t *testing.T) {
	st, err := NewSearchTool(&fakeSearcher{})
	require.NoError(t, err)
	assert.Equal(t, SearchToolName, st.Name())

	et, err := NewEmailTool(&fakeMailer{})
	require.NoError(t, err)
	assert.Equal(t, EmailToolName, et.Name())

	wt, err := NewWebpageTool(&fakeReader{})
	require.NoError(t, err)
	assert.Equal(t, WebpageToolName, wt.Name())
}
