// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - DocumentStore: Applicant documents and their derived chunks
//   - ConfigStore: Application configuration
//   - PostProcessorPipeline: Turns a document into chunks
//
// # Optional Interfaces
//
// These can be nil - the engine degrades gracefully, but at least one
// retrieval index must be present:
//
//   - KeywordIndex: Lexical BM25 retrieval. Without it, search is vector-only.
//   - VectorIndex: Nearest-neighbour retrieval. Only used when EmbeddingService is configured.
//   - EmbeddingService: Generates vector embeddings. Without it, VectorIndex is also disabled.
//   - MorphAnalyzer: Part-of-speech tagging. Without it, tokenization uses the fallback path.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
