// Package pgvector provides a VectorIndex stored in PostgreSQL with the
// pgvector extension. Similarity is computed by the database as
// 1 - cosine distance.
package pgvector

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	_ "github.com/lib/pq" // Postgres driver
	"github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/resumatch/internal/core/domain"
	"github.com/custodia-labs/resumatch/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// DefaultTable is the table used when none is configured.
const DefaultTable = "resumatch_vectors"

var tableName = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Index is a pgvector-backed vector index.
type Index struct {
	db    *sql.DB
	table string
}

// Open connects to dsn and prepares the schema.
func Open(ctx context.Context, dsn, table string) (*Index, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	idx, err := New(ctx, db, table)
	if err != nil {
		db.Close()
		return nil, err
	}
	return idx, nil
}

// New prepares the schema on an existing connection.
func New(ctx context.Context, db *sql.DB, table string) (*Index, error) {
	if table == "" {
		table = DefaultTable
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("%w: table name %q", domain.ErrInvalidInput, table)
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrVectorIndexUnavailable, err)
	}

	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS ` + table + ` (
			id            TEXT PRIMARY KEY,
			document_id   TEXT NOT NULL,
			level         TEXT NOT NULL,
			document_type TEXT NOT NULL,
			chunk_type    TEXT NOT NULL,
			metadata      JSONB NOT NULL,
			embedding     vector NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS ` + table + `_document_idx ON ` + table + ` (document_id)`,
		`CREATE INDEX IF NOT EXISTS ` + table + `_namespace_idx ON ` + table + ` (level, document_type)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("preparing schema: %w", err)
		}
	}

	return &Index{db: db, table: table}, nil
}

// Upsert writes records inside one transaction.
func (x *Index) Upsert(ctx context.Context, records []driven.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO `+x.table+` (id, document_id, level, document_type, chunk_type, metadata, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			document_id = EXCLUDED.document_id,
			level = EXCLUDED.level,
			document_type = EXCLUDED.document_type,
			chunk_type = EXCLUDED.chunk_type,
			metadata = EXCLUDED.metadata,
			embedding = EXCLUDED.embedding`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		meta, err := json.Marshal(r.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling metadata: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, r.ID, r.Metadata.DocumentID, string(r.Level),
			string(r.Metadata.DocumentType), string(r.Metadata.ChunkType), string(meta),
			pgvector.NewVector(r.Vector)); err != nil {
			return fmt.Errorf("upsert vector %s: %w", r.ID, err)
		}
	}

	return tx.Commit()
}

// Query runs an ordered cosine-distance scan restricted by filter.
func (x *Index) Query(ctx context.Context, vector []float32, topK int, filter driven.VectorFilter) ([]domain.RetrievalHit, error) {
	query, args := buildQuery(x.table, pgvector.NewVector(vector), topK, filter)

	rows, err := x.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrVectorIndexUnavailable, err)
	}
	defer rows.Close()

	var hits []domain.RetrievalHit
	for rows.Next() {
		var hit domain.RetrievalHit
		var meta []byte
		if err := rows.Scan(&hit.SourceID, &meta, &hit.Score); err != nil {
			return nil, fmt.Errorf("scan hit: %w", err)
		}
		if err := json.Unmarshal(meta, &hit.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling metadata: %w", err)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating hits: %w", err)
	}
	return hits, nil
}

// Fetch retrieves a record by ID.
func (x *Index) Fetch(ctx context.Context, id string) (*driven.VectorRecord, error) {
	var level string
	var meta []byte
	var vec pgvector.Vector

	err := x.db.QueryRowContext(ctx,
		`SELECT level, metadata, embedding FROM `+x.table+` WHERE id = $1`, id,
	).Scan(&level, &meta, &vec)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch vector %s: %w", id, err)
	}

	rec := &driven.VectorRecord{ID: id, Vector: vec.Slice(), Level: domain.VectorLevel(level)}
	if err := json.Unmarshal(meta, &rec.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshaling metadata: %w", err)
	}
	return rec, nil
}

// Delete removes records by ID.
func (x *Index) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	_, err := x.db.ExecContext(ctx,
		`DELETE FROM `+x.table+` WHERE id IN (`+strings.Join(placeholders, ", ")+`)`, args...)
	if err != nil {
		return fmt.Errorf("delete vectors: %w", err)
	}
	return nil
}

// DeleteDocument removes every vector of a document.
func (x *Index) DeleteDocument(ctx context.Context, documentID string) error {
	if _, err := x.db.ExecContext(ctx, `DELETE FROM `+x.table+` WHERE document_id = $1`, documentID); err != nil {
		return fmt.Errorf("delete document vectors: %w", err)
	}
	return nil
}

// Close closes the connection.
func (x *Index) Close() error {
	return x.db.Close()
}

// buildQuery assembles the similarity query. Ties are broken by id.
func buildQuery(table string, vector pgvector.Vector, topK int, filter driven.VectorFilter) (string, []any) {
	args := []any{vector}
	var where []string
	add := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		where = append(where, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("level", string(filter.Level))
	add("document_type", string(filter.DocumentType))
	add("chunk_type", string(filter.ChunkType))

	var b strings.Builder
	b.WriteString("SELECT id, metadata, 1 - (embedding <=> $1) AS similarity FROM ")
	b.WriteString(table)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY embedding <=> $1, id")
	if topK > 0 {
		args = append(args, topK)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	return b.String(), args
}
