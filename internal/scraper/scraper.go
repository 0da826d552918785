package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	neturl "net/url"
	"strings"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/dyatlov/go-opengraph/opengraph"
)

const (
	defaultReaderURL = "https://r.jina.ai/"
	maxPageBytes     = 2 << 20
	// DefaultMaxContentLen keeps a page within the agent's context budget
	DefaultMaxContentLen = 8000
	minUsefulContentLen  = 100
)

// ErrPrivateAddress is returned for URLs that resolve to loopback, private,
// link-local or unspecified addresses
var ErrPrivateAddress = errors.New("refusing to fetch non-public address")

var errNoContent = errors.New("no readable content")

// Page is the readable content of a fetched URL
type Page struct {
	URL         string
	Title       string
	Description string
	SiteName    string
	Content     string
}

type Scraper struct {
	client        *http.Client
	readerURL     string
	maxContentLen int
	allowPrivate  bool
}

func NewScraper() *Scraper {
	return &Scraper{
		client:        newClient(false),
		readerURL:     defaultReaderURL,
		maxContentLen: DefaultMaxContentLen,
	}
}

// AllowPrivateNetworks lets the scraper fetch loopback and private addresses
func (s *Scraper) AllowPrivateNetworks() *Scraper {
	s.allowPrivate = true
	s.client = newClient(true)
	return s
}

// newClient returns an HTTP client whose dialer refuses non-public
// addresses unless allowPrivate is set. The check runs on every dial, so it
// also covers redirects and DNS answers that change between lookups.
func newClient(allowPrivate bool) *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	if !allowPrivate {
		dialer.Control = publicOnly
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = dialer.DialContext
	if !allowPrivate {
		// a proxy would be the only address the dialer sees
		transport.Proxy = nil
	}

	return &http.Client{
		Timeout:   60 * time.Second,
		Transport: transport,
	}
}

func publicOnly(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	ip := net.ParseIP(host)
	if ip == nil || !isPublicIP(ip) {
		return fmt.Errorf("%w: %s", ErrPrivateAddress, host)
	}
	return nil
}

func isPublicIP(ip net.IP) bool {
	return !ip.IsLoopback() &&
		!ip.IsPrivate() &&
		!ip.IsLinkLocalUnicast() &&
		!ip.IsLinkLocalMulticast() &&
		!ip.IsInterfaceLocalMulticast() &&
		!ip.IsMulticast() &&
		!ip.IsUnspecified()
}

// checkPublicHost resolves the URL's host and rejects it when any address is
// not public. This runs before the reader fallback, which would otherwise
// pass internal URLs on to a third party.
func checkPublicHost(ctx context.Context, rawURL string) error {
	u, err := neturl.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("invalid url: missing host")
	}

	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", host, err)
	}
	for _, addr := range addrs {
		if !isPublicIP(addr.IP) {
			return fmt.Errorf("%w: %s resolves to %s", ErrPrivateAddress, host, addr.IP)
		}
	}
	return nil
}

// WithReaderURL overrides the Jina Reader prefix used for JS-rendered pages
func (s *Scraper) WithReaderURL(readerURL string) *Scraper {
	s.readerURL = readerURL
	return s
}

// Scrape fetches the URL and extracts metadata plus text content.
func (s *Scraper) Scrape(ctx context.Context, url string) (*Page, error) {
	log.Printf("[Scraper] Fetching URL: %s", url)

	if !s.allowPrivate {
		if err := checkPublicHost(ctx, url); err != nil {
			log.Printf("[Scraper] Blocked URL %s: %v", url, err)
			return nil, err
		}
	}

	// First try direct scraping
	page, err := s.directScrape(ctx, url)
	if err == nil && len(page.Content) > minUsefulContentLen {
		page.Content = truncate(page.Content, s.maxContentLen)
		return page, nil
	}
	log.Printf("[Scraper] Direct scrape failed or insufficient content, trying Jina Reader...")

	// Fallback: Jina AI Reader for JS-rendered sites
	content, jinaErr := s.jinaReaderScrape(ctx, url)
	if jinaErr == nil && len(content) > minUsefulContentLen {
		if page == nil {
			page = &Page{URL: url}
		}
		page.Content = truncate(content, s.maxContentLen)
		return page, nil
	}

	if err == nil && page != nil && page.Content != "" {
		return page, nil
	}
	if err == nil {
		err = jinaErr
	}
	if err == nil {
		err = errNoContent
	}
	return nil, fmt.Errorf("all scraping methods failed: %w", err)
}

// directScrape uses opengraph for metadata and goquery for static HTML text
func (s *Scraper) directScrape(ctx context.Context, url string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Browser-like headers avoid most 403 blocks
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch url: %w", err)
	}
	defer resp.Body.Close()

	log.Printf("[Scraper.Direct] Response status: %d", resp.StatusCode)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status code error: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	return parsePage(url, body)
}

// parsePage extracts OpenGraph metadata and the readable text of an HTML document
func parsePage(url string, body []byte) (*Page, error) {
	og := opengraph.NewOpenGraph()
	if err := og.ProcessHTML(bytes.NewReader(body)); err != nil {
		log.Printf("[Scraper.Direct] OpenGraph parse failed: %v", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	page := &Page{
		URL:         url,
		Title:       og.Title,
		Description: og.Description,
		SiteName:    og.SiteName,
	}
	if page.Title == "" {
		page.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if page.Description == "" {
		page.Description, _ = doc.Find(`meta[name="description"]`).Attr("content")
	}

	// Remove unwanted elements
	doc.Find("script, style, nav, footer, header, aside, .sidebar, .advertisement, .ads").Remove()

	var sb strings.Builder

	selectors := []string{"article", "[role='main']", "main", ".post-content", ".article-content", ".entry-content", ".content"}
	for _, selector := range selectors {
		selection := doc.Find(selector)
		if selection.Length() > 0 {
			log.Printf("[Scraper.Direct] Found content with selector: %s", selector)
			selection.Find("p, h1, h2, h3, li").Each(func(i int, s *goquery.Selection) {
				text := strings.TrimSpace(s.Text())
				if len(text) > 20 {
					sb.WriteString(text)
					sb.WriteString("\n\n")
				}
			})
			break
		}
	}

	// Fallback: all paragraphs
	if sb.Len() == 0 {
		doc.Find("body p").Each(func(i int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if len(text) > 30 {
				sb.WriteString(text)
				sb.WriteString("\n\n")
			}
		})
	}

	page.Content = strings.TrimSpace(sb.String())
	return page, nil
}

// jinaReaderScrape uses Jina AI Reader to render JS and extract content
func (s *Scraper) jinaReaderScrape(ctx context.Context, url string) (string, error) {
	jinaURL := s.readerURL + url
	log.Printf("[Scraper.Jina] Fetching via Jina Reader: %s", jinaURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, jinaURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create jina request: %w", err)
	}
	req.Header.Set("Accept", "text/plain")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("jina request failed: %w", err)
	}
	defer resp.Body.Close()

	log.Printf("[Scraper.Jina] Response status: %d", resp.StatusCode)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("jina status code error: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read jina response: %w", err)
	}

	log.Printf("[Scraper.Jina] Successfully extracted %d characters", len(body))
	return string(body), nil
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence
func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "\n...[truncated]"
}
