// Package synthesis turns an aggregated review corpus into a structured
// analysis document using an LLM, and validates the model's JSON output
// against the minimal required shape.
package synthesis

import (
	"context"

	"reviewlens/types"
)

// Client synthesizes a structured analysis from concatenated review text.
// Errors are classified as types.KindUpstreamQuota, types.KindUpstreamTransient
// or types.KindUpstreamMalformed.
type Client interface {
	Analyze(ctx context.Context, corpus string) (*types.AnalysisResult, error)
}
