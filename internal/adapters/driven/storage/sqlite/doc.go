// Package sqlite provides a SQLite-backed document store and keyword index.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Two driven ports share one connection:
//
//   - DocumentStore: applicant documents and their derived chunks
//   - KeywordIndex: FTS5 full-text index ranked with weighted BM25
//
// # Schema
//
// The relational schema is managed through versioned migrations stored in the
// migrations/ directory. The FTS5 table is created separately when the keyword
// index starts; if the SQLite build lacks FTS5 the index runs disabled and every
// search reports domain.ErrKeywordIndexUnavailable.
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
