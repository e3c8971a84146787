package driven

import (
	"context"

	"github.com/custodia-labs/resumatch/internal/core/domain"
)

// VectorIndex stores embeddings and answers cosine nearest-neighbour queries.
// Vectors are L2-normalised before they reach the index.
type VectorIndex interface {
	// Upsert inserts or overwrites records by ID.
	Upsert(ctx context.Context, records []VectorRecord) error

	// Query returns up to topK neighbours of vector that match filter,
	// sorted by cosine similarity descending.
	Query(ctx context.Context, vector []float32, topK int, filter VectorFilter) ([]domain.RetrievalHit, error)

	// Fetch retrieves a record by ID.
	// Returns domain.ErrNotFound if it does not exist.
	Fetch(ctx context.Context, id string) (*VectorRecord, error)

	// Delete removes records by ID. Missing IDs are ignored.
	Delete(ctx context.Context, ids []string) error

	// DeleteDocument removes every vector belonging to a document.
	DeleteDocument(ctx context.Context, documentID string) error

	// Close releases resources.
	Close() error
}

// VectorRecord is a stored embedding with its provenance.
type VectorRecord struct {
	ID       string
	Vector   []float32
	Level    domain.VectorLevel
	Metadata domain.ChunkMetadata
}

// VectorFilter restricts a query to a namespace. Empty fields match anything.
type VectorFilter struct {
	Level        domain.VectorLevel
	DocumentType domain.DocumentType
	ChunkType    domain.ChunkType
}

// Matches reports whether a record passes the filter.
func (f VectorFilter) Matches(level domain.VectorLevel, meta domain.ChunkMetadata) bool {
	if f.Level != "" && f.Level != level {
		return false
	}
	if f.DocumentType != "" && f.DocumentType != meta.DocumentType {
		return false
	}
	if f.ChunkType != "" && f.ChunkType != meta.ChunkType {
		return false
	}
	return true
}
