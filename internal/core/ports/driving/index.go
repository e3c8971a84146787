package driving

import (
	"context"

	"github.com/custodia-labs/resumatch/internal/core/domain"
)

// IndexService maintains the keyword and vector indices.
type IndexService interface {
	// IndexDocument chunks a document and writes it to both indices.
	// Re-indexing the same document overwrites by chunk ID.
	IndexDocument(ctx context.Context, doc *domain.Document) (domain.IndexResult, error)

	// BuildFullIndex re-indexes every document in the document store.
	BuildFullIndex(ctx context.Context) (domain.BulkIndexResult, error)

	// DeleteDocumentData removes a document's chunks, vectors and keyword entry.
	DeleteDocumentData(ctx context.Context, documentID string) (domain.DeleteResult, error)
}

// ReindexStatus reports on the background full reindex of long-running processes.
type ReindexStatus interface {
	// LastRun returns the most recent run, if any.
	LastRun() (domain.ReindexRun, bool)
}
