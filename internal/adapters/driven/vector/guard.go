// Package vector holds backend-independent decorators for driven.VectorIndex.
// Backends live in the badger, qdrant and pgvector subpackages; an in-memory
// index is in storage/memory.
package vector

import (
	"context"
	"fmt"

	"github.com/custodia-labs/resumatch/internal/core/domain"
	"github.com/custodia-labs/resumatch/internal/core/ports/driven"
	"github.com/custodia-labs/resumatch/internal/logger"
	"github.com/custodia-labs/resumatch/internal/vecmath"
)

// Ensure Guard implements the interface.
var _ driven.VectorIndex = (*Guard)(nil)

// Guard normalises vectors before they reach a backend and keeps degenerate
// vectors (all-zero, NaN, Inf) away from it entirely. Degenerate queries
// return an empty match set; degenerate upserts fail with ErrDegenerateVector.
type Guard struct {
	inner      driven.VectorIndex
	dimensions int
}

// NewGuard wraps inner. A positive dimensions rejects vectors of any other length.
func NewGuard(inner driven.VectorIndex, dimensions int) *Guard {
	return &Guard{inner: inner, dimensions: dimensions}
}

// Upsert normalises every record and forwards the batch.
func (g *Guard) Upsert(ctx context.Context, records []driven.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	clean := make([]driven.VectorRecord, 0, len(records))
	for _, r := range records {
		if err := g.checkDimensions(r.Vector); err != nil {
			return fmt.Errorf("record %s: %w", r.ID, err)
		}
		vec := vecmath.Normalize(r.Vector)
		if vec == nil {
			return fmt.Errorf("record %s: %w", r.ID, domain.ErrDegenerateVector)
		}
		r.Vector = vec
		clean = append(clean, r)
	}
	return g.inner.Upsert(ctx, clean)
}

// Query normalises the query vector and forwards it.
func (g *Guard) Query(ctx context.Context, vector []float32, topK int, filter driven.VectorFilter) ([]domain.RetrievalHit, error) {
	if topK <= 0 {
		return nil, nil
	}
	if err := g.checkDimensions(vector); err != nil {
		return nil, err
	}
	vec := vecmath.Normalize(vector)
	if vec == nil {
		logger.Debug("vector query skipped: degenerate query vector")
		return nil, nil
	}
	return g.inner.Query(ctx, vec, topK, filter)
}

// Fetch forwards to the backend.
func (g *Guard) Fetch(ctx context.Context, id string) (*driven.VectorRecord, error) {
	return g.inner.Fetch(ctx, id)
}

// Delete forwards to the backend.
func (g *Guard) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return g.inner.Delete(ctx, ids)
}

// DeleteDocument forwards to the backend.
func (g *Guard) DeleteDocument(ctx context.Context, documentID string) error {
	return g.inner.DeleteDocument(ctx, documentID)
}

// Close closes the backend.
func (g *Guard) Close() error {
	return g.inner.Close()
}

func (g *Guard) checkDimensions(vec []float32) error {
	if g.dimensions > 0 && len(vec) != g.dimensions {
		return fmt.Errorf("%w: got %d, want %d", domain.ErrDimensionMismatch, len(vec), g.dimensions)
	}
	return nil
}
