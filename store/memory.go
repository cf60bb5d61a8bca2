package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"reviewlens/types"
)

// MemoryStore is a process-local Store. It backs local development when no
// Redis address is configured, and doubles as the test store. Records are
// deep-copied through JSON on the way in and out so callers never share
// mutable state with the store.
type MemoryStore struct {
	mu          sync.RWMutex
	products    map[string][]byte
	runs        map[string][]byte
	analyses    map[string][]byte
	comparisons map[string][]byte
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products:    make(map[string][]byte),
		runs:        make(map[string][]byte),
		analyses:    make(map[string][]byte),
		comparisons: make(map[string][]byte),
	}
}

func (s *MemoryStore) GetProduct(_ context.Context, id string) (*types.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.products[id]
	if !ok {
		return nil, notFound("product", id)
	}
	var p types.Product
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, types.Wrap(types.KindInternal, err, "decode product %s", id)
	}
	return &p, nil
}

func (s *MemoryStore) PutProduct(_ context.Context, p *types.Product) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return types.Wrap(types.KindInternal, err, "encode product %s", p.ID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = raw
	return nil
}

func (s *MemoryStore) ListProducts(_ context.Context) ([]*types.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]*types.Product, 0, len(s.products))
	for id, raw := range s.products {
		var p types.Product
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, types.Wrap(types.KindInternal, err, "decode product %s", id)
		}
		products = append(products, &p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

func (s *MemoryStore) CompareAndSetStatus(_ context.Context, id string, expected, next types.ProductStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok := s.products[id]
	if !ok {
		return false, notFound("product", id)
	}
	var p types.Product
	if err := json.Unmarshal(raw, &p); err != nil {
		return false, types.Wrap(types.KindInternal, err, "decode product %s", id)
	}
	if p.Status != expected {
		return false, nil
	}
	p.Status = next
	updated, err := json.Marshal(&p)
	if err != nil {
		return false, types.Wrap(types.KindInternal, err, "encode product %s", id)
	}
	s.products[id] = updated
	return true, nil
}

func (s *MemoryStore) GetRun(_ context.Context, productID string) (*types.PipelineRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.runs[productID]
	if !ok {
		return nil, notFound("run", productID)
	}
	var run types.PipelineRun
	if err := json.Unmarshal(raw, &run); err != nil {
		return nil, types.Wrap(types.KindInternal, err, "decode run %s", productID)
	}
	return &run, nil
}

func (s *MemoryStore) PutRun(_ context.Context, run *types.PipelineRun) error {
	raw, err := json.Marshal(run)
	if err != nil {
		return types.Wrap(types.KindInternal, err, "encode run %s", run.ProductID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ProductID] = raw
	return nil
}

func (s *MemoryStore) GetAnalysis(_ context.Context, productID string) (*types.AnalysisResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.analyses[productID]
	if !ok {
		return nil, notFound("analysis", productID)
	}
	var res types.AnalysisResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, types.Wrap(types.KindInternal, err, "decode analysis %s", productID)
	}
	return &res, nil
}

func (s *MemoryStore) PutAnalysis(_ context.Context, res *types.AnalysisResult) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return types.Wrap(types.KindInternal, err, "encode analysis %s", res.ProductID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyses[res.ProductID] = raw
	return nil
}

func (s *MemoryStore) GetComparison(_ context.Context, id string) (*types.Comparison, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.comparisons[id]
	if !ok {
		return nil, notFound("comparison", id)
	}
	var c types.Comparison
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, types.Wrap(types.KindInternal, err, "decode comparison %s", id)
	}
	return &c, nil
}

func (s *MemoryStore) PutComparison(_ context.Context, c *types.Comparison) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return types.Wrap(types.KindInternal, err, "encode comparison %s", c.ID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comparisons[c.ID] = raw
	return nil
}

func (s *MemoryStore) Close() error { return nil }
