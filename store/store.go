// Package store persists products, pipeline runs, analysis results and
// comparisons behind a small key-value contract. Two implementations exist:
// a Redis-backed store for real deployments and an in-memory store used when
// no Redis address is configured (and by tests).
package store

import (
	"context"

	"reviewlens/types"
)

// Store is the persistence contract used by the orchestrator, the comparison
// engine and the API layer. All operations are atomic per key; the only
// cross-key discipline required is CompareAndSetStatus, which gives
// single-writer-per-product semantics without a global lock.
type Store interface {
	GetProduct(ctx context.Context, id string) (*types.Product, error)
	PutProduct(ctx context.Context, p *types.Product) error
	ListProducts(ctx context.Context) ([]*types.Product, error)

	// CompareAndSetStatus atomically transitions a product's status.
	// Returns false when the current status does not match expected.
	CompareAndSetStatus(ctx context.Context, id string, expected, next types.ProductStatus) (bool, error)

	GetRun(ctx context.Context, productID string) (*types.PipelineRun, error)
	PutRun(ctx context.Context, run *types.PipelineRun) error

	GetAnalysis(ctx context.Context, productID string) (*types.AnalysisResult, error)
	PutAnalysis(ctx context.Context, res *types.AnalysisResult) error

	GetComparison(ctx context.Context, id string) (*types.Comparison, error)
	PutComparison(ctx context.Context, c *types.Comparison) error

	Close() error
}

func notFound(what, id string) error {
	return types.E(types.KindNotFound, "%s %q not found", what, id)
}
