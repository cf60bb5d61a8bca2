package extraction

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeExtractor returns a canned document per URL, tracking peak concurrency.
type fakeExtractor struct {
	mu      sync.Mutex
	active  int
	peak    int
	delay   time.Duration
	failing map[string]bool
}

func (f *fakeExtractor) Extract(ctx context.Context, url string) (*Document, error) {
	f.mu.Lock()
	f.active++
	if f.active > f.peak {
		f.peak = f.active
	}
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	f.active--
	f.mu.Unlock()

	if f.failing[url] {
		return nil, errors.New("blocked")
	}
	return &Document{URL: url, Text: "content of " + url}, nil
}

func urlsN(n int) []string {
	urls := make([]string, n)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://example.com/%d", i)
	}
	return urls
}

func TestExtractAllPreservesOrder(t *testing.T) {
	urls := urlsN(8)
	results := ExtractAll(context.Background(), &fakeExtractor{}, urls, 3, nil)

	if len(results) != len(urls) {
		t.Fatalf("got %d results; want %d", len(results), len(urls))
	}
	for i, r := range results {
		if r.URL != urls[i] {
			t.Fatalf("results[%d].URL = %s; want %s", i, r.URL, urls[i])
		}
		if r.Err != nil || r.Doc == nil {
			t.Fatalf("results[%d] unexpected failure: %v", i, r.Err)
		}
	}
}

func TestExtractAllBoundsConcurrency(t *testing.T) {
	f := &fakeExtractor{delay: 20 * time.Millisecond}
	ExtractAll(context.Background(), f, urlsN(10), 3, nil)
	if f.peak > 3 {
		t.Fatalf("peak concurrency %d exceeds worker bound 3", f.peak)
	}
}

func TestExtractAllCountsFailures(t *testing.T) {
	urls := urlsN(5)
	f := &fakeExtractor{failing: map[string]bool{urls[1]: true, urls[3]: true}}

	var lastDone, lastSucceeded int32
	results := ExtractAll(context.Background(), f, urls, 2, func(done, total, succeeded int) {
		atomic.StoreInt32(&lastDone, int32(done))
		atomic.StoreInt32(&lastSucceeded, int32(succeeded))
		if total != len(urls) {
			t.Errorf("total = %d; want %d", total, len(urls))
		}
	})

	var ok int
	for _, r := range results {
		if r.Err == nil {
			ok++
		}
	}
	if ok != 3 {
		t.Fatalf("got %d successes; want 3", ok)
	}
	if atomic.LoadInt32(&lastDone) != 5 || atomic.LoadInt32(&lastSucceeded) != 3 {
		t.Fatalf("final progress = (%d, %d); want (5, 3)",
			atomic.LoadInt32(&lastDone), atomic.LoadInt32(&lastSucceeded))
	}
}

func TestExtractAllCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// One slow worker: the first URL is dispatched, the dispatcher blocks on
	// the second, then the context is cancelled under it.
	urls := urlsN(6)
	timer := time.AfterFunc(10*time.Millisecond, cancel)
	defer timer.Stop()
	results := ExtractAll(ctx, &fakeExtractor{delay: 100 * time.Millisecond}, urls, 1, nil)

	if len(results) != len(urls) {
		t.Fatalf("got %d results; want %d even when cancelled", len(results), len(urls))
	}
	var settledWithCtxErr int
	for _, r := range results {
		if errors.Is(r.Err, context.Canceled) {
			settledWithCtxErr++
		}
	}
	if settledWithCtxErr == 0 {
		t.Fatalf("cancelled run should mark unattempted URLs with the context error")
	}
}
