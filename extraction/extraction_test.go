package extraction

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"reviewlens/types"
)

const reviewHTML = `<!DOCTYPE html>
<html><head><title>Pixel 9 Review</title></head>
<body><article>
<h1>Pixel 9 Review</h1>
<p>The Pixel 9 has an excellent camera and the battery easily lasts a full day of heavy use.
The display is bright and the software experience remains the cleanest on Android.
After two weeks of testing we came away impressed with nearly every aspect of this phone.</p>
<p>Our only real complaint is the price, which has crept up again this year. Buyers on a
budget should look at the previous generation, which remains on sale.</p>
</article></body></html>`

func TestExtractParsesArticle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.UserAgent(), "reviewlens") {
			t.Errorf("user agent not set: %q", r.UserAgent())
		}
		fmt.Fprint(w, reviewHTML)
	}))
	defer srv.Close()

	c := NewReadabilityClient(5 * time.Second)
	doc, err := c.Extract(context.Background(), srv.URL+"/pixel-9-review")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !strings.Contains(doc.Text, "excellent camera") {
		t.Fatalf("article text not extracted: %q", doc.Text)
	}
	if doc.ScrapedAt.IsZero() {
		t.Fatalf("ScrapedAt not stamped")
	}
}

func TestExtractClassifiesStatuses(t *testing.T) {
	cases := []struct {
		status int
		kind   types.ErrorKind
	}{
		{http.StatusForbidden, types.KindUpstreamQuota},
		{http.StatusTooManyRequests, types.KindUpstreamQuota},
		{http.StatusInternalServerError, types.KindUpstreamTransient},
		{http.StatusNotFound, types.KindUpstreamTransient},
	}

	for _, c := range cases {
		t.Run(fmt.Sprintf("status %d", c.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(c.status)
			}))
			defer srv.Close()

			client := NewReadabilityClient(5 * time.Second)
			_, err := client.Extract(context.Background(), srv.URL)
			if !types.IsKind(err, c.kind) {
				t.Fatalf("want %s, got %v", c.kind, err)
			}
		})
	}
}

func TestExtractEmptyPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body></body></html>")
	}))
	defer srv.Close()

	c := NewReadabilityClient(5 * time.Second)
	_, err := c.Extract(context.Background(), srv.URL)
	if !types.IsKind(err, types.KindUpstreamMalformed) {
		t.Fatalf("want upstream_malformed_response, got %v", err)
	}
}

func TestExtractRejectsEmptyURL(t *testing.T) {
	c := NewReadabilityClient(5 * time.Second)
	_, err := c.Extract(context.Background(), "")
	if !types.IsKind(err, types.KindValidation) {
		t.Fatalf("want validation, got %v", err)
	}
}

func TestDocumentDomain(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://www.theverge.com/review", "theverge.com"},
		{"https://rtings.com/phone", "rtings.com"},
		{"not a url at all ://", "unknown"},
	}
	for _, c := range cases {
		d := &Document{URL: c.url}
		if got := d.Domain(); got != c.want {
			t.Errorf("Domain(%q) = %q; want %q", c.url, got, c.want)
		}
	}
}
