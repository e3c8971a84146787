package driven

import (
	"context"

	"github.com/custodia-labs/resumatch/internal/core/domain"
)

// DocumentStore reads applicant documents and persists their derived chunks.
// The document lifecycle belongs to the external store; the engine only
// writes chunk records back.
type DocumentStore interface {
	// FindByID retrieves a document by ID.
	// Returns domain.ErrNotFound if it does not exist.
	FindByID(ctx context.Context, id string) (*domain.Document, error)

	// FindMany retrieves the documents that exist among ids, in ids order.
	FindMany(ctx context.Context, ids []string) ([]domain.Document, error)

	// FindAll returns every document in the corpus.
	FindAll(ctx context.Context) ([]domain.Document, error)

	// Save stores or updates a document.
	Save(ctx context.Context, doc *domain.Document) error

	// Delete removes a document and its chunks.
	Delete(ctx context.Context, id string) error

	// SaveChunks upserts chunks by chunk ID.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// GetChunks retrieves all chunks for a document ordered by type and index.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// DeleteChunks removes the given chunk IDs.
	DeleteChunks(ctx context.Context, chunkIDs []string) error
}
