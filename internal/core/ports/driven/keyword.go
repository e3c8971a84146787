package driven

import (
	"context"

	"github.com/custodia-labs/resumatch/internal/core/domain"
)

// KeywordIndex provides lexical (BM25-style) retrieval over whole documents.
type KeywordIndex interface {
	// Index adds or replaces the entry for doc.DocumentID.
	Index(ctx context.Context, doc domain.KeywordDocument) error

	// Delete removes the entry for a document. Deleting a missing entry is not an error.
	Delete(ctx context.Context, documentID string) error

	// Search runs a boosted multi-field match OR'd with an exact token-set match.
	// Hits are document hits sorted by native score descending, ties by
	// document ID ascending. Scores are positive and unbounded.
	Search(ctx context.Context, query KeywordQuery) ([]domain.RetrievalHit, error)

	// Stats reports index size.
	Stats(ctx context.Context) (KeywordStats, error)

	// Ping verifies the index is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// KeywordQuery is a lexical query.
type KeywordQuery struct {
	// Text is the raw query string, matched against the weighted text fields.
	Text string

	// Tokens is the normalised token set, matched against the token attribute.
	Tokens []string

	// Limit is the maximum number of hits.
	Limit int

	// DocumentType restricts hits to one document type when set.
	DocumentType domain.DocumentType
}

// Field boosts applied by keyword index implementations.
const (
	BoostName     = 3.0
	BoostPosition = 3.0
	BoostSkills   = 2.5
	BoostBody     = 1.0
	BoostTokens   = 4.0
)

// KeywordStats summarises the keyword index.
type KeywordStats struct {
	Documents int
}
