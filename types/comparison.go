package types

import "time"

// ProsCons is the pass-through pros/cons pair for one compared product.
type ProsCons struct {
	Pros []string `json:"pros"`
	Cons []string `json:"cons"`
}

// ComparisonSummary is the narrative wrap-up of a comparison.
type ComparisonSummary struct {
	Recommendation string `json:"recommendation,omitempty"`
	FinalVerdict   string `json:"final_verdict,omitempty"`
}

// Comparison is a head-to-head comparison of 2-4 analyzed products.
// Immutable once written; retrievable by ID.
type Comparison struct {
	ID               string    `json:"comparison_id"`
	CreatedAt        time.Time `json:"created_at"`
	ComparedProducts []string  `json:"compared_products"`

	OverallWinner   string `json:"overall_winner"`
	WinnerReasoning string `json:"winner_reasoning"`

	// feature -> product id -> score. Products with no data for a feature
	// are omitted from that feature's inner map, not zero-filled.
	Matrix map[string]map[string]float64 `json:"comparison_matrix"`

	ProsCons         map[string]ProsCons `json:"pros_cons"`
	VerdictByUseCase map[string]string   `json:"verdict_by_use_case"`
	KeyDifferences   []string            `json:"key_differences"`
	Summary          ComparisonSummary   `json:"summary"`
}
