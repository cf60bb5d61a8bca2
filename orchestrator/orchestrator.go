// Package orchestrator drives a product through the analysis pipeline:
// search -> scrape -> analyze. Each stage transition persists a run snapshot
// before proceeding, and the product status field acts as the single-writer
// lock per product.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"reviewlens/archive"
	"reviewlens/discovery"
	"reviewlens/extraction"
	"reviewlens/store"
	"reviewlens/synthesis"
	"reviewlens/types"
)

// Progress bands per stage. Progress only ever moves forward within a run.
const (
	progressQueued      = 5
	progressSearching   = 10
	progressScrapeStart = 20
	progressScrapeEnd   = 60
	progressAnalyzing   = 60
	progressSaving      = 90
	progressDone        = 100
)

const corpusSeparator = "\n\n---\n\n"

// Orchestrator runs analysis pipelines. Many products may run concurrently;
// the CAS status gate guarantees at most one live run per product id.
type Orchestrator struct {
	store       store.Store
	discovery   discovery.Client
	extractor   extraction.Client
	synthesizer synthesis.Client
	archiver    *archive.Archiver // nil when archival is not configured

	scrapeWorkers int
	runTimeout    time.Duration

	// Guards run snapshot writes; scrape workers report progress concurrently.
	runMu sync.Mutex
}

// Config wires an Orchestrator.
type Config struct {
	Store         store.Store
	Discovery     discovery.Client
	Extractor     extraction.Client
	Synthesizer   synthesis.Client
	Archiver      *archive.Archiver
	ScrapeWorkers int
	RunTimeout    time.Duration
}

// New builds an Orchestrator.
func New(cfg Config) *Orchestrator {
	workers := cfg.ScrapeWorkers
	if workers <= 0 {
		workers = 4
	}
	timeout := cfg.RunTimeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &Orchestrator{
		store:         cfg.Store,
		discovery:     cfg.Discovery,
		extractor:     cfg.Extractor,
		synthesizer:   cfg.Synthesizer,
		archiver:      cfg.Archiver,
		scrapeWorkers: workers,
		runTimeout:    timeout,
	}
}

// StartAnalysis accepts an analysis request for the product and runs the
// pipeline asynchronously. Products already processing are rejected with a
// conflict; pending, failed and completed products start a fresh run (a
// completed product's analysis is replaced wholesale).
func (o *Orchestrator) StartAnalysis(ctx context.Context, productID string) error {
	p, err := o.store.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	if p.Status == types.StatusProcessing {
		return types.E(types.KindConflict, "analysis already in progress for %s", productID)
	}

	ok, err := o.store.CompareAndSetStatus(ctx, productID, p.Status, types.StatusProcessing)
	if err != nil {
		return err
	}
	if !ok {
		// Lost the race to a concurrent StartAnalysis.
		return types.E(types.KindConflict, "analysis already in progress for %s", productID)
	}

	// Seed a fresh run before returning so a status poll issued right after
	// the 202 never sees the previous run's terminal state.
	now := time.Now().UTC()
	run := &types.PipelineRun{
		ProductID:   productID,
		Stage:       types.StageSearch,
		Status:      types.RunInProgress,
		Progress:    progressQueued,
		CurrentStep: "Queued for analysis",
		StartedAt:   now,
		UpdatedAt:   now,
	}
	if err := o.store.PutRun(ctx, run); err != nil {
		// Roll the gate back so the product is not stuck in processing.
		if _, casErr := o.store.CompareAndSetStatus(ctx, productID, types.StatusProcessing, p.Status); casErr != nil {
			log.Printf("[pipeline] %s: rollback failed: %v", productID, casErr)
		}
		return err
	}

	go o.run(p, run)
	return nil
}

// run executes the pipeline to a terminal state. It owns the product's
// status for the duration (set to processing by StartAnalysis).
func (o *Orchestrator) run(p *types.Product, run *types.PipelineRun) {
	ctx, cancel := context.WithTimeout(context.Background(), o.runTimeout)
	defer cancel()

	log.Printf("[pipeline] %s: run started", p.ID)
	start := time.Now()

	stats, err := o.execute(ctx, p, run)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			err = types.Wrap(types.KindUpstreamTransient, err, "analysis run timed out after %s", o.runTimeout)
		}
		o.fail(p.ID, run, err)
		return
	}

	// Persist stats before releasing the status gate; the orchestrator is
	// the only writer while the product is processing.
	fresh, gerr := o.store.GetProduct(context.Background(), p.ID)
	if gerr == nil {
		fresh.ProcessingStats = stats
		if perr := o.store.PutProduct(context.Background(), fresh); perr != nil {
			log.Printf("[pipeline] %s: failed to persist stats: %v", p.ID, perr)
		}
	}

	if _, cerr := o.store.CompareAndSetStatus(context.Background(), p.ID, types.StatusProcessing, types.StatusCompleted); cerr != nil {
		log.Printf("[pipeline] %s: completion transition failed: %v", p.ID, cerr)
	}
	o.writeRun(run, types.StageAnalyze, types.RunCompleted, progressDone, "Analysis complete")

	log.Printf("[pipeline] %s: run completed in %s (%d/%d pages scraped)",
		p.ID, time.Since(start).Round(time.Millisecond), stats.ScrapesSucceeded, stats.ScrapesAttempted)
}

// execute runs the three stages and persists the analysis result. The
// returned stats are recorded on the product on success.
func (o *Orchestrator) execute(ctx context.Context, p *types.Product, run *types.PipelineRun) (*types.ProcessingStats, error) {
	// Stage 1: search.
	o.writeRun(run, types.StageSearch, types.RunInProgress, progressSearching,
		fmt.Sprintf("Searching for review URLs for %s", p.Name))

	urls, err := o.discovery.Search(ctx, p.Name)
	if err != nil {
		return nil, err
	}
	if len(urls) == 0 {
		return nil, types.E(types.KindNoSourcesFound, "no review sources found for %q", p.Name)
	}
	log.Printf("[pipeline] %s: found %d candidate URLs", p.ID, len(urls))

	// Stage 2: scrape, bounded fan-out with a join barrier. Individual page
	// failures are tolerated; the run fails only when every page fails.
	o.writeRun(run, types.StageScrape, types.RunInProgress, progressScrapeStart,
		fmt.Sprintf("Found %d URLs, starting scrape", len(urls)))

	results := extraction.ExtractAll(ctx, o.extractor, urls, o.scrapeWorkers,
		func(done, total, succeeded int) {
			progress := progressScrapeStart + done*(progressScrapeEnd-progressScrapeStart)/total
			o.writeRun(run, types.StageScrape, types.RunInProgress, progress,
				fmt.Sprintf("Scraped %d/%d pages", done, total))
		})

	var docs []*extraction.Document
	for _, r := range results {
		if r.Err == nil && r.Doc != nil {
			docs = append(docs, r.Doc)
		}
	}
	stats := &types.ProcessingStats{
		SourcesFound:     len(urls),
		ScrapesAttempted: len(urls),
		ScrapesSucceeded: len(docs),
	}
	log.Printf("[pipeline] %s: scraped %d/%d pages", p.ID, len(docs), len(urls))

	if o.archiver != nil && len(docs) > 0 {
		if err := o.archiver.ArchivePages(ctx, p.ID, docs); err != nil {
			log.Printf("[pipeline] %s: archive failed: %v", p.ID, err)
		}
	}

	if len(docs) == 0 {
		return nil, types.E(types.KindNoSourcesFound,
			"no usable content extracted from any of %d sources", len(urls))
	}

	// Stage 3: analyze.
	o.writeRun(run, types.StageAnalyze, types.RunInProgress, progressAnalyzing,
		fmt.Sprintf("Analyzing %d review pages", len(docs)))

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}
	analysis, err := o.synthesizer.Analyze(ctx, strings.Join(texts, corpusSeparator))
	if err != nil {
		return nil, err
	}
	analysis.ProductID = p.ID
	analysis.AnalyzedAt = time.Now().UTC()

	o.writeRun(run, types.StageAnalyze, types.RunInProgress, progressSaving, "Saving analysis")
	if err := o.store.PutAnalysis(ctx, analysis); err != nil {
		return nil, err
	}
	if o.archiver != nil {
		if err := o.archiver.ArchiveAnalysis(ctx, analysis); err != nil {
			log.Printf("[pipeline] %s: analysis archive failed: %v", p.ID, err)
		}
	}
	return stats, nil
}

// fail drives the run to its failed terminal state, retaining the error on
// the run and flipping the product to failed. Progress is left where it was;
// it never moves backwards within a run.
func (o *Orchestrator) fail(productID string, run *types.PipelineRun, err error) {
	log.Printf("[pipeline] %s: run failed: %v", productID, err)

	o.runMu.Lock()
	defer o.runMu.Unlock()
	msg := errMessage(err)
	run.Status = types.RunFailed
	run.CurrentStep = "Error: " + msg
	run.Error = msg
	run.UpdatedAt = time.Now().UTC()
	if perr := o.store.PutRun(context.Background(), run); perr != nil {
		log.Printf("[pipeline] %s: failed to persist run error: %v", productID, perr)
	}

	if _, cerr := o.store.CompareAndSetStatus(context.Background(), productID, types.StatusProcessing, types.StatusFailed); cerr != nil {
		log.Printf("[pipeline] %s: failure transition failed: %v", productID, cerr)
	}
}

// writeRun persists the next run snapshot. Progress never decreases within a
// run; stale writes are clamped.
func (o *Orchestrator) writeRun(run *types.PipelineRun, stage types.Stage, status string, progress int, step string) {
	o.runMu.Lock()
	defer o.runMu.Unlock()
	if progress < run.Progress {
		progress = run.Progress
	}
	run.Stage = stage
	run.Status = status
	run.Progress = progress
	run.CurrentStep = step
	run.UpdatedAt = time.Now().UTC()
	if status == types.RunCompleted {
		run.Error = ""
	}
	if err := o.store.PutRun(context.Background(), run); err != nil {
		log.Printf("[pipeline] %s: failed to persist run snapshot: %v", run.ProductID, err)
	}
}

func errMessage(err error) string {
	var terr *types.Error
	if errors.As(err, &terr) && terr.Message != "" {
		return terr.Message
	}
	return err.Error()
}
