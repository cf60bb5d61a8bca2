package orchestrator

import (
	"context"
	"testing"
	"time"

	"reviewlens/store"
	"reviewlens/types"
)

func TestGetStatusUsesRunSnapshot(t *testing.T) {
	s := store.NewMemoryStore()
	o := newTestOrchestrator(s, &fakeSearch{}, &fakeExtractor{}, &fakeSynth{})
	ctx := context.Background()

	seedPending(t, s, "p")
	if _, err := s.CompareAndSetStatus(ctx, "p", types.StatusPending, types.StatusProcessing); err != nil {
		t.Fatalf("CAS: %v", err)
	}
	run := &types.PipelineRun{
		ProductID:   "p",
		Stage:       types.StageScrape,
		Status:      types.RunInProgress,
		Progress:    45,
		CurrentStep: "Scraped 5/8 pages",
		StartedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	if err := s.PutRun(ctx, run); err != nil {
		t.Fatalf("PutRun: %v", err)
	}

	report, err := o.GetStatus(ctx, "p")
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if report.Stage != "scrape" || report.Progress != 45 || report.CurrentStep != "Scraped 5/8 pages" {
		t.Fatalf("report = %+v", report)
	}
	if report.Status != types.StatusProcessing {
		t.Fatalf("status = %s; want processing", report.Status)
	}
}

func TestGetStatusFallbacks(t *testing.T) {
	cases := []struct {
		name         string
		status       types.ProductStatus
		wantStage    string
		wantProgress int
		wantStep     string
	}{
		{"pending", types.StatusPending, "pending", 0, "Waiting to start analysis"},
		{"completed", types.StatusCompleted, "analyze", 100, "Analysis complete"},
		{"failed", types.StatusFailed, "analyze", 0, "Analysis failed"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := store.NewMemoryStore()
			o := newTestOrchestrator(s, &fakeSearch{}, &fakeExtractor{}, &fakeSynth{})
			ctx := context.Background()

			p := &types.Product{ID: "p", Name: "p", Status: c.status, CreatedAt: time.Now().UTC()}
			if err := s.PutProduct(ctx, p); err != nil {
				t.Fatalf("PutProduct: %v", err)
			}

			report, err := o.GetStatus(ctx, "p")
			if err != nil {
				t.Fatalf("GetStatus: %v", err)
			}
			if report.Stage != c.wantStage || report.Progress != c.wantProgress || report.CurrentStep != c.wantStep {
				t.Fatalf("report = %+v; want stage=%s progress=%d step=%q",
					report, c.wantStage, c.wantProgress, c.wantStep)
			}
		})
	}
}

func TestGetStatusUnknownProduct(t *testing.T) {
	o := newTestOrchestrator(store.NewMemoryStore(), &fakeSearch{}, &fakeExtractor{}, &fakeSynth{})
	_, err := o.GetStatus(context.Background(), "ghost")
	if !types.IsKind(err, types.KindNotFound) {
		t.Fatalf("want not_found, got %v", err)
	}
}
