// Package discovery turns a product name into candidate review-page URLs.
// Providers: Serper (google.serper.dev), Google Custom Search, and an
// optional review-site feed scanner that supplements either with URLs from
// configured RSS feeds.
package discovery

import "context"

// Client searches the web for pages reviewing the named product.
// Errors are classified as types.KindUpstreamQuota, types.KindUpstreamTransient
// or types.KindNoSourcesFound.
type Client interface {
	Search(ctx context.Context, productName string) ([]string, error)
}

// dedupe keeps the first occurrence of each URL, preserving order.
func dedupe(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
