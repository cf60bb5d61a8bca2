package orchestrator

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"reviewlens/types"
)

// Scheduler periodically re-runs analyses that have grown stale, so long-lived
// deployments keep review data fresh without manual re-triggering.
type Scheduler struct {
	orch   *Orchestrator
	cron   *cron.Cron
	maxAge time.Duration
}

// NewScheduler builds a refresh scheduler. spec is a standard cron expression
// ("0 3 * * *" for daily at 3am); maxAge is how old an analysis may be before
// a refresh run is queued.
func NewScheduler(orch *Orchestrator, spec string, maxAge time.Duration) (*Scheduler, error) {
	s := &Scheduler{
		orch:   orch,
		cron:   cron.New(),
		maxAge: maxAge,
	}
	if _, err := s.cron.AddFunc(spec, s.refresh); err != nil {
		return nil, types.Wrap(types.KindValidation, err, "invalid refresh cron expression %q", spec)
	}
	return s, nil
}

// Start begins running the cron in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Printf("[scheduler] refresh scheduler started (max age %s)", s.maxAge)
}

// Stop stops the cron and waits for any in-flight refresh trigger to return.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// refresh walks all completed products and re-queues those whose analysis is
// older than maxAge. Conflicts (a run already in flight) are skipped quietly.
func (s *Scheduler) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	products, err := s.orch.store.ListProducts(ctx)
	if err != nil {
		log.Printf("[scheduler] list products failed: %v", err)
		return
	}

	cutoff := time.Now().UTC().Add(-s.maxAge)
	queued := 0
	for _, p := range products {
		if p.Status != types.StatusCompleted {
			continue
		}
		analysis, err := s.orch.store.GetAnalysis(ctx, p.ID)
		if err != nil {
			if !types.IsKind(err, types.KindNotFound) {
				log.Printf("[scheduler] %s: load analysis failed: %v", p.ID, err)
			}
			continue
		}
		if analysis.AnalyzedAt.After(cutoff) {
			continue
		}
		if err := s.orch.StartAnalysis(ctx, p.ID); err != nil {
			if !types.IsKind(err, types.KindConflict) {
				log.Printf("[scheduler] %s: refresh failed to start: %v", p.ID, err)
			}
			continue
		}
		queued++
	}
	if queued > 0 {
		log.Printf("[scheduler] queued %d refresh runs", queued)
	}
}
