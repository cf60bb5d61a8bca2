package discovery

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

type staticClient struct {
	urls []string
	err  error
}

func (c *staticClient) Search(context.Context, string) ([]string, error) {
	return c.urls, c.err
}

func TestResolveFeedURL(t *testing.T) {
	if got := ResolveFeedURL("verge"); got != FeedPresets["verge"] {
		t.Fatalf("preset not resolved: %s", got)
	}
	custom := "https://example.com/feed.xml"
	if got := ResolveFeedURL(custom); got != custom {
		t.Fatalf("URL should pass through unchanged, got %s", got)
	}
}

func TestFeedScannerSupplementsMatches(t *testing.T) {
	rss := `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Reviews</title>
<item><title>Pixel 9 review: great camera</title><link>https://reviews.example/pixel-9</link></item>
<item><title>Unrelated gadget</title><link>https://reviews.example/other</link></item>
</channel></rss>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, rss)
	}))
	defer srv.Close()

	primary := &staticClient{urls: []string{"https://primary.example/review"}}
	s := NewFeedScanner(primary, []string{srv.URL})

	urls, err := s.Search(context.Background(), "Pixel 9")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	want := []string{"https://primary.example/review", "https://reviews.example/pixel-9"}
	if len(urls) != len(want) {
		t.Fatalf("got %v; want %v", urls, want)
	}
	for i := range want {
		if urls[i] != want[i] {
			t.Fatalf("urls[%d] = %s; want %s", i, urls[i], want[i])
		}
	}
}

func TestFeedScannerSkipsBrokenFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	primary := &staticClient{urls: []string{"https://primary.example/review"}}
	s := NewFeedScanner(primary, []string{srv.URL})

	urls, err := s.Search(context.Background(), "Pixel 9")
	if err != nil {
		t.Fatalf("broken feed must not fail the search: %v", err)
	}
	if len(urls) != 1 || urls[0] != "https://primary.example/review" {
		t.Fatalf("primary results degraded: %v", urls)
	}
}
