package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// ErrEmptyQuery indicates a search was requested with nothing to search for.
	ErrEmptyQuery = errors.New("nothing to search")

	// ErrNothingToIndex indicates a document has no usable text.
	ErrNothingToIndex = errors.New("nothing to index")

	// ErrNoBackends indicates neither a keyword nor a vector index is configured.
	// This is the only failure surfaced to callers as an error.
	ErrNoBackends = errors.New("no retrieval backends configured")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Vector/semantic retrieval is disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrKeywordIndexUnavailable indicates the keyword index is not reachable.
	// Lexical retrieval is disabled.
	ErrKeywordIndexUnavailable = errors.New("keyword index unavailable")

	// ErrVectorIndexUnavailable indicates the vector index is not configured.
	// Semantic similarity search is disabled.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrDegenerateVector indicates an all-zero or non-finite embedding.
	ErrDegenerateVector = errors.New("degenerate vector")

	// ErrDimensionMismatch indicates a vector of the wrong dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)
