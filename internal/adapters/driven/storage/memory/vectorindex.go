package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/resumatch/internal/core/domain"
	"github.com/custodia-labs/resumatch/internal/core/ports/driven"
	"github.com/custodia-labs/resumatch/internal/vecmath"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex is a brute-force cosine index held in memory.
// SetAvailable(false) simulates an unreachable backend.
type VectorIndex struct {
	mu          sync.RWMutex
	records     map[string]driven.VectorRecord
	unavailable bool
}

// NewVectorIndex creates an empty vector index.
func NewVectorIndex() *VectorIndex {
	return &VectorIndex{records: make(map[string]driven.VectorRecord)}
}

// SetAvailable toggles the simulated availability of the index.
func (v *VectorIndex) SetAvailable(available bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.unavailable = !available
}

// Len returns the number of stored vectors.
func (v *VectorIndex) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.records)
}

// Upsert inserts or overwrites records by ID.
func (v *VectorIndex) Upsert(_ context.Context, records []driven.VectorRecord) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.unavailable {
		return domain.ErrVectorIndexUnavailable
	}
	for _, r := range records {
		vec := make([]float32, len(r.Vector))
		copy(vec, r.Vector)
		r.Vector = vec
		v.records[r.ID] = r
	}
	return nil
}

// Query returns the topK records most similar to vector.
func (v *VectorIndex) Query(ctx context.Context, vector []float32, topK int, filter driven.VectorFilter) ([]domain.RetrievalHit, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.unavailable {
		return nil, domain.ErrVectorIndexUnavailable
	}

	hits := make([]domain.RetrievalHit, 0, len(v.records))
	for id, r := range v.records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !filter.Matches(r.Level, r.Metadata) {
			continue
		}
		hits = append(hits, domain.RetrievalHit{
			SourceID: id,
			Score:    vecmath.Cosine(vector, r.Vector),
			Metadata: r.Metadata,
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].SourceID < hits[j].SourceID
	})
	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// Fetch retrieves a record by ID.
func (v *VectorIndex) Fetch(_ context.Context, id string) (*driven.VectorRecord, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.unavailable {
		return nil, domain.ErrVectorIndexUnavailable
	}
	r, ok := v.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &r, nil
}

// Delete removes records by ID.
func (v *VectorIndex) Delete(_ context.Context, ids []string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.unavailable {
		return domain.ErrVectorIndexUnavailable
	}
	for _, id := range ids {
		delete(v.records, id)
	}
	return nil
}

// DeleteDocument removes every vector of a document.
func (v *VectorIndex) DeleteDocument(_ context.Context, documentID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.unavailable {
		return domain.ErrVectorIndexUnavailable
	}
	for id, r := range v.records {
		if r.Metadata.DocumentID == documentID {
			delete(v.records, id)
		}
	}
	return nil
}

// Close is a no-op.
func (v *VectorIndex) Close() error {
	return nil
}
