// Package extraction fetches review pages and strips them down to readable
// text. A bounded worker pool fans out over many URLs and joins before the
// scrape stage completes.
package extraction

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"reviewlens/types"
)

// Document is the cleaned content of one scraped page.
type Document struct {
	URL       string    `json:"url"`
	Title     string    `json:"title,omitempty"`
	Text      string    `json:"text"`
	Excerpt   string    `json:"excerpt,omitempty"`
	ScrapedAt time.Time `json:"scraped_at"`
}

// Client extracts cleaned text from a single URL.
// Errors are classified as types.KindUpstreamTransient (unreachable),
// types.KindUpstreamQuota (blocked) or types.KindUpstreamMalformed (empty).
type Client interface {
	Extract(ctx context.Context, pageURL string) (*Document, error)
}

// ReadabilityClient extracts page content with go-readability over a plain
// HTTP fetch, so HTTP-level failures (blocked, unreachable) stay
// distinguishable from empty-content failures.
type ReadabilityClient struct {
	httpClient *http.Client
	userAgent  string
}

// NewReadabilityClient builds an extraction client with the given per-page
// timeout.
func NewReadabilityClient(timeout time.Duration) *ReadabilityClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ReadabilityClient{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  "Mozilla/5.0 (compatible; reviewlens/1.0)",
	}
}

func (c *ReadabilityClient) Extract(ctx context.Context, pageURL string) (*Document, error) {
	if pageURL == "" {
		return nil, types.E(types.KindValidation, "page URL is empty")
	}
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return nil, types.Wrap(types.KindValidation, err, "invalid URL %q", pageURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, types.Wrap(types.KindInternal, err, "build request for %s", pageURL)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, types.Wrap(types.KindUpstreamTransient, err, "fetch %s", pageURL)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		return nil, types.E(types.KindUpstreamQuota, "blocked by %s (status %d)", parsed.Host, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, types.E(types.KindUpstreamTransient, "fetch %s: status %d", pageURL, resp.StatusCode)
	}

	article, err := readability.FromReader(resp.Body, parsed)
	if err != nil {
		return nil, types.Wrap(types.KindUpstreamMalformed, err, "readability extraction failed for %s", pageURL)
	}

	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return nil, types.E(types.KindUpstreamMalformed, "no readable content at %s", pageURL)
	}

	return &Document{
		URL:       pageURL,
		Title:     article.Title,
		Text:      text,
		Excerpt:   article.Excerpt,
		ScrapedAt: time.Now().UTC(),
	}, nil
}

// Domain returns the registrable-ish host of the document's URL, without a
// www. prefix. Used for archive keys and scrape logging.
func (d *Document) Domain() string {
	parsed, err := url.Parse(d.URL)
	if err != nil || parsed.Host == "" {
		return "unknown"
	}
	return strings.TrimPrefix(parsed.Host, "www.")
}
