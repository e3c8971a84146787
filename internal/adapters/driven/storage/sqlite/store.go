package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/resumatch/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/resumatch/internal/core/domain"
	"github.com/custodia-labs/resumatch/internal/core/ports/driven"
)

// Store owns the SQLite connection and hands out the port implementations
// that share it.
type Store struct {
	db      *sql.DB
	path    string
	keyword *keywordIndex
}

// NewStore opens (or creates) the database file at path and applies pending
// migrations. The parent directory is created when missing.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: database path is empty", domain.ErrInvalidInput)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	// Transactions begin IMMEDIATE so concurrent writers queue on busy_timeout
	// instead of failing with SQLITE_BUSY when a read lock is upgraded.
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: path,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	s.keyword = newKeywordIndex(db)

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// DocumentStore returns a DocumentStore interface backed by this store.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{db: s.db}
}

// KeywordIndex returns the FTS5 keyword index backed by this store.
func (s *Store) KeywordIndex() driven.KeywordIndex {
	return s.keyword
}

// migrate runs all pending migrations and records their versions.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_documents.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Document Store ====================

// documentStore implements driven.DocumentStore.
type documentStore struct {
	db *sql.DB
}

var _ driven.DocumentStore = (*documentStore)(nil)

const documentColumns = `id, applicant_id, document_type, applicant_name, position,
	fields, items, extracted_text, created_at`

// Save stores or updates a document.
func (s *documentStore) Save(ctx context.Context, doc *domain.Document) error {
	fieldsJSON, err := json.Marshal(doc.Fields)
	if err != nil {
		return fmt.Errorf("marshalling fields: %w", err)
	}
	itemsJSON, err := json.Marshal(doc.Items)
	if err != nil {
		return fmt.Errorf("marshalling items: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			applicant_id = excluded.applicant_id,
			document_type = excluded.document_type,
			applicant_name = excluded.applicant_name,
			position = excluded.position,
			fields = excluded.fields,
			items = excluded.items,
			extracted_text = excluded.extracted_text,
			created_at = excluded.created_at
	`, doc.ID, doc.ApplicantID, string(doc.Type), doc.ApplicantName, doc.Position,
		string(fieldsJSON), string(itemsJSON), doc.ExtractedText, doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// FindByID retrieves a document by ID.
func (s *documentStore) FindByID(ctx context.Context, id string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return doc, err
}

// FindMany retrieves the documents that exist among ids, in ids order.
func (s *documentStore) FindMany(ctx context.Context, ids []string) ([]domain.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]domain.Document, len(ids))
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		byID[doc.ID] = *doc
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	docs := make([]domain.Document, 0, len(byID))
	for _, id := range ids {
		if doc, ok := byID[id]; ok {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// FindAll returns every document in insertion order.
func (s *documentStore) FindAll(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+documentColumns+` FROM documents ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// Delete removes a document and its chunks.
func (s *documentStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", id); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// SaveChunks upserts chunks by chunk ID.
func (s *documentStore) SaveChunks(ctx context.Context, chunks []domain.Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, applicant_id, document_type, chunk_type, chunk_index, content, tokens)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_id = excluded.document_id,
			applicant_id = excluded.applicant_id,
			document_type = excluded.document_type,
			chunk_type = excluded.chunk_type,
			chunk_index = excluded.chunk_index,
			content = excluded.content,
			tokens = excluded.tokens
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		tokens := chunk.Tokens
		if tokens == nil {
			tokens = []string{}
		}
		tokensJSON, err := json.Marshal(tokens)
		if err != nil {
			return fmt.Errorf("marshalling chunk tokens: %w", err)
		}

		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.DocumentID, chunk.ApplicantID,
			string(chunk.DocumentType), string(chunk.Type), chunk.Index, chunk.Content,
			string(tokensJSON)); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetChunks retrieves all chunks for a document ordered by type and index.
func (s *documentStore) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, applicant_id, document_type, chunk_type, chunk_index, content, tokens
		FROM chunks WHERE document_id = ?
		ORDER BY chunk_type, chunk_index
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, *chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return chunks, nil
}

// DeleteChunks removes the given chunk IDs.
func (s *documentStore) DeleteChunks(ctx context.Context, chunkIDs []string) error {
	if len(chunkIDs) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(chunkIDs)), ",")
	args := make([]any, len(chunkIDs))
	for i, id := range chunkIDs {
		args[i] = id
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE id IN (`+placeholders+`)`, args...); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanDocument scans a document row. sql.ErrNoRows is returned unwrapped.
func scanDocument(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var docType, fieldsJSON, itemsJSON string

	if err := row.Scan(&doc.ID, &doc.ApplicantID, &docType, &doc.ApplicantName, &doc.Position,
		&fieldsJSON, &itemsJSON, &doc.ExtractedText, &doc.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	doc.Type = domain.DocumentType(docType)

	if fieldsJSON != "" && fieldsJSON != "null" {
		if err := json.Unmarshal([]byte(fieldsJSON), &doc.Fields); err != nil {
			return nil, fmt.Errorf("unmarshaling fields: %w", err)
		}
	}
	if itemsJSON != "" && itemsJSON != "null" {
		if err := json.Unmarshal([]byte(itemsJSON), &doc.Items); err != nil {
			return nil, fmt.Errorf("unmarshaling items: %w", err)
		}
	}

	return &doc, nil
}

// scanChunk scans a chunk row.
func scanChunk(row rowScanner) (*domain.Chunk, error) {
	var chunk domain.Chunk
	var docType, chunkType, tokensJSON string

	if err := row.Scan(&chunk.ID, &chunk.DocumentID, &chunk.ApplicantID, &docType,
		&chunkType, &chunk.Index, &chunk.Content, &tokensJSON); err != nil {
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}
	chunk.DocumentType = domain.DocumentType(docType)
	chunk.Type = domain.ChunkType(chunkType)

	if tokensJSON != "" {
		if err := json.Unmarshal([]byte(tokensJSON), &chunk.Tokens); err != nil {
			return nil, fmt.Errorf("unmarshaling chunk tokens: %w", err)
		}
	}
	if len(chunk.Tokens) == 0 {
		chunk.Tokens = nil
	}

	return &chunk, nil
}
