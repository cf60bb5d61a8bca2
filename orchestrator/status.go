package orchestrator

import (
	"context"

	"reviewlens/types"
)

// StatusReport is what a status poll returns: the product's lifecycle state
// plus the latest run snapshot, synthesized when no run has happened yet.
type StatusReport struct {
	ProductID   string              `json:"product_id"`
	Status      types.ProductStatus `json:"status"`
	Stage       string              `json:"stage"`
	Progress    int                 `json:"progress"`
	CurrentStep string              `json:"current_step"`
	Error       string              `json:"error,omitempty"`
}

// GetStatus reports analysis progress for a product. When a run snapshot
// exists it is authoritative; otherwise the report is derived from the
// product status alone (a product can be completed or failed with no stored
// run after a restore from archive).
func (o *Orchestrator) GetStatus(ctx context.Context, productID string) (*StatusReport, error) {
	p, err := o.store.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	run, err := o.store.GetRun(ctx, productID)
	if err == nil {
		return &StatusReport{
			ProductID:   p.ID,
			Status:      p.Status,
			Stage:       string(run.Stage),
			Progress:    run.Progress,
			CurrentStep: run.CurrentStep,
			Error:       run.Error,
		}, nil
	}
	if !types.IsKind(err, types.KindNotFound) {
		return nil, err
	}

	report := &StatusReport{ProductID: p.ID, Status: p.Status}
	switch p.Status {
	case types.StatusCompleted:
		report.Stage = string(types.StageAnalyze)
		report.Progress = 100
		report.CurrentStep = "Analysis complete"
	case types.StatusFailed:
		report.Stage = string(types.StageAnalyze)
		report.CurrentStep = "Analysis failed"
		report.Error = "analysis failed"
	default:
		report.Stage = "pending"
		report.CurrentStep = "Waiting to start analysis"
	}
	return report, nil
}
