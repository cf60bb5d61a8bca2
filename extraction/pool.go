package extraction

import (
	"context"
	"log"
	"sync"
)

// Result pairs a URL with its extraction outcome.
type Result struct {
	URL string
	Doc *Document
	Err error
}

// ProgressFunc is invoked after each URL settles. done counts settled URLs,
// succeeded counts those that yielded content.
type ProgressFunc func(done, total, succeeded int)

// ExtractAll fans out over urls with at most workers concurrent extractions
// and joins before returning. Results preserve input order. Individual
// failures are recorded, never fatal; the caller decides what zero successes
// means.
func ExtractAll(ctx context.Context, client Client, urls []string, workers int, onProgress ProgressFunc) []Result {
	if workers <= 0 {
		workers = 4
	}
	if workers > len(urls) {
		workers = len(urls)
	}

	results := make([]Result, len(urls))
	jobs := make(chan int)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		done      int
		succeeded int
	)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for i := range jobs {
				doc, err := client.Extract(ctx, urls[i])
				results[i] = Result{URL: urls[i], Doc: doc, Err: err}
				if err != nil {
					log.Printf("[extract %d] failed %s: %v", workerID, urls[i], err)
				}

				mu.Lock()
				done++
				if err == nil {
					succeeded++
				}
				d, s := done, succeeded
				mu.Unlock()

				if onProgress != nil {
					onProgress(d, len(urls), s)
				}
			}
		}(w)
	}

	for i := range urls {
		select {
		case jobs <- i:
		case <-ctx.Done():
			// Leave the remaining URLs unattempted; mark them settled so the
			// caller's accounting matches len(urls).
			mu.Lock()
			for j := i; j < len(urls); j++ {
				results[j] = Result{URL: urls[j], Err: ctx.Err()}
				done++
			}
			mu.Unlock()
			close(jobs)
			wg.Wait()
			return results
		}
	}
	close(jobs)
	wg.Wait()
	return results
}
