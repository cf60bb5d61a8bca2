package discovery

import (
	"context"
	"log"
	"strings"

	"github.com/mmcdole/gofeed"
)

// FeedPresets maps friendly names to review-site RSS feeds.
var FeedPresets = map[string]string{
	"verge":    "https://www.theverge.com/rss/reviews/index.xml",
	"wired":    "https://www.wired.com/feed/category/gear/latest/rss",
	"engadget": "https://www.engadget.com/rss.xml",
}

// ResolveFeedURL resolves a preset name to its URL, or returns the input
// unchanged when it is already a URL.
func ResolveFeedURL(feed string) string {
	if url, ok := FeedPresets[feed]; ok {
		return url
	}
	return feed
}

// FeedScanner supplements a primary discovery client with entries from
// review-site RSS feeds whose titles mention the product. Feed errors are
// logged and skipped; the primary client's result is never degraded.
type FeedScanner struct {
	primary Client
	feeds   []string
	parser  *gofeed.Parser
}

// NewFeedScanner wraps primary with feed scanning over the given feeds
// (preset names or URLs).
func NewFeedScanner(primary Client, feeds []string) *FeedScanner {
	return &FeedScanner{
		primary: primary,
		feeds:   feeds,
		parser:  gofeed.NewParser(),
	}
}

func (s *FeedScanner) Search(ctx context.Context, productName string) ([]string, error) {
	urls, err := s.primary.Search(ctx, productName)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(productName)
	for _, feed := range s.feeds {
		feedURL := ResolveFeedURL(feed)
		parsed, err := s.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			log.Printf("[discovery] skipping feed %s: %v", feedURL, err)
			continue
		}
		for _, item := range parsed.Items {
			if item.Link == "" {
				continue
			}
			if strings.Contains(strings.ToLower(item.Title), needle) {
				urls = append(urls, item.Link)
			}
		}
	}

	return dedupe(urls), nil
}
