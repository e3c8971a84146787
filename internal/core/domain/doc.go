// Package domain defines the core business entities for resumatch.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An applicant document (résumé, cover letter, portfolio)
//   - Chunk: A typed, bounded passage derived from one document
//   - RetrievalHit: A channel-native match from the keyword or vector index
//   - FusedResult: A document ranked by the weighted fusion of both channels
//   - SimilarityVerdict: A candidate document with its aggregate similarity
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
