package types

import "time"

// Stage is one of the three ordered pipeline phases.
type Stage string

const (
	StageSearch  Stage = "search"
	StageScrape  Stage = "scrape"
	StageAnalyze Stage = "analyze"
)

// Run statuses mirror the product lifecycle at a finer grain.
const (
	RunInProgress = "in_progress"
	RunCompleted  = "completed"
	RunFailed     = "failed"
)

// PipelineRun is the live progress snapshot of one analysis attempt.
// At most one run exists per product; a re-run overwrites the previous one.
type PipelineRun struct {
	ProductID   string    `json:"product_id"`
	Stage       Stage     `json:"stage"`
	Status      string    `json:"status"`
	Progress    int       `json:"progress"` // 0-100
	CurrentStep string    `json:"current_step"`
	StartedAt   time.Time `json:"started_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Error       string    `json:"error,omitempty"`
}
