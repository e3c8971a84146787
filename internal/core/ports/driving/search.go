package driving

import (
	"context"

	"github.com/custodia-labs/resumatch/internal/core/domain"
)

// SearchService provides query-style retrieval to external actors.
type SearchService interface {
	// SearchHybrid fuses keyword and vector retrieval into one ranked list.
	SearchHybrid(ctx context.Context, query string, opts domain.SearchOptions) (domain.SearchResponse, error)

	// SearchByKeywords runs keyword retrieval only and returns highlighted hits.
	SearchByKeywords(ctx context.Context, query string, limit int) (domain.KeywordSearchResponse, error)
}

// SimilarityService compares a stored document with the rest of the corpus.
type SimilarityService interface {
	// FindSimilarDocuments returns candidates above the similarity threshold.
	FindSimilarDocuments(ctx context.Context, documentID string, limit int) (domain.SimilarityResponse, error)

	// CheckPlagiarism returns only candidates at or above the plagiarism threshold.
	CheckPlagiarism(ctx context.Context, documentID string, limit int) (domain.SimilarityResponse, error)
}
