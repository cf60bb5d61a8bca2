package discovery

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"reviewlens/types"
)

func serperServer(t *testing.T, status int, links []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-KEY") == "" {
			t.Errorf("missing X-API-KEY header")
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if q, _ := req["q"].(string); q != "iPhone 15 Pro shopping reviews" {
			t.Errorf("query = %q", q)
		}

		w.WriteHeader(status)
		if status != http.StatusOK {
			return
		}
		organic := make([]map[string]string, 0, len(links))
		for _, l := range links {
			organic = append(organic, map[string]string{"link": l})
		}
		json.NewEncoder(w).Encode(map[string]any{"organic": organic})
	}))
}

func TestSerperSearchSkipsFirstResult(t *testing.T) {
	srv := serperServer(t, http.StatusOK, []string{
		"https://apple.com/iphone",
		"https://rtings.com/review",
		"https://theverge.com/review",
		"https://rtings.com/review",
	})
	defer srv.Close()

	c := NewSerperClient("key", srv.URL, 10)
	urls, err := c.Search(context.Background(), "iPhone 15 Pro")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	// First organic hit skipped, duplicate collapsed.
	want := []string{"https://rtings.com/review", "https://theverge.com/review"}
	if len(urls) != len(want) {
		t.Fatalf("got %d urls %v; want %d", len(urls), urls, len(want))
	}
	for i := range want {
		if urls[i] != want[i] {
			t.Fatalf("urls[%d] = %s; want %s", i, urls[i], want[i])
		}
	}
}

func TestSerperSearchOnlyFirstResult(t *testing.T) {
	srv := serperServer(t, http.StatusOK, []string{"https://apple.com/iphone"})
	defer srv.Close()

	c := NewSerperClient("key", srv.URL, 10)
	_, err := c.Search(context.Background(), "iPhone 15 Pro")
	if !types.IsKind(err, types.KindNoSourcesFound) {
		t.Fatalf("want no_sources_found, got %v", err)
	}
}

func TestSerperSearchQuota(t *testing.T) {
	srv := serperServer(t, http.StatusTooManyRequests, nil)
	defer srv.Close()

	c := NewSerperClient("key", srv.URL, 10)
	_, err := c.Search(context.Background(), "iPhone 15 Pro")
	if !types.IsKind(err, types.KindUpstreamQuota) {
		t.Fatalf("want upstream_quota, got %v", err)
	}
}

func TestSerperSearchServerError(t *testing.T) {
	srv := serperServer(t, http.StatusInternalServerError, nil)
	defer srv.Close()

	c := NewSerperClient("key", srv.URL, 10)
	_, err := c.Search(context.Background(), "iPhone 15 Pro")
	if !types.IsKind(err, types.KindUpstreamTransient) {
		t.Fatalf("want upstream_transient, got %v", err)
	}
}
