package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"unicode"

	"github.com/custodia-labs/resumatch/internal/core/domain"
	"github.com/custodia-labs/resumatch/internal/core/ports/driven"
	"github.com/custodia-labs/resumatch/internal/logger"
)

const createKeywordTable = `
	CREATE VIRTUAL TABLE IF NOT EXISTS keyword_fts USING fts5(
		document_id UNINDEXED,
		applicant_id UNINDEXED,
		document_type UNINDEXED,
		name,
		position,
		skills,
		body,
		tokens,
		tokenize = 'unicode61'
	)`

// bodyColumn is the zero-based FTS column used for snippets.
const bodyColumn = 6

// snippetTokens is the snippet window size in tokens.
const snippetTokens = 24

// rankExpr weights the FTS columns in declaration order. Unindexed columns get zero.
var rankExpr = fmt.Sprintf("bm25(keyword_fts, 0, 0, 0, %g, %g, %g, %g, %g)",
	driven.BoostName, driven.BoostPosition, driven.BoostSkills, driven.BoostBody, driven.BoostTokens)

// keywordIndex implements driven.KeywordIndex on an FTS5 virtual table.
// When the table cannot be created the index is disabled: searches fail with
// domain.ErrKeywordIndexUnavailable and writes are skipped.
type keywordIndex struct {
	db       *sql.DB
	disabled error
}

var _ driven.KeywordIndex = (*keywordIndex)(nil)

func newKeywordIndex(db *sql.DB) *keywordIndex {
	k := &keywordIndex{db: db}
	if _, err := db.Exec(createKeywordTable); err != nil {
		logger.Warn("keyword index disabled: %v", err)
		k.disabled = err
	}
	return k
}

// Index replaces the entry for a document.
func (k *keywordIndex) Index(ctx context.Context, doc domain.KeywordDocument) error {
	if k.disabled != nil {
		return nil
	}

	tx, err := k.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM keyword_fts WHERE document_id = ?", doc.DocumentID); err != nil {
		return fmt.Errorf("clearing keyword entry: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO keyword_fts (document_id, applicant_id, document_type, name, position, skills, body, tokens)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, doc.DocumentID, doc.ApplicantID, string(doc.DocumentType), doc.Name, doc.Position,
		doc.Skills, doc.Body, strings.Join(doc.Tokens, " "))
	if err != nil {
		return fmt.Errorf("inserting keyword entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Delete removes the entry for a document.
func (k *keywordIndex) Delete(ctx context.Context, documentID string) error {
	if k.disabled != nil {
		return nil
	}
	if _, err := k.db.ExecContext(ctx, "DELETE FROM keyword_fts WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("deleting keyword entry: %w", err)
	}
	return nil
}

// Search runs the weighted field match OR'd with the token match.
func (k *keywordIndex) Search(ctx context.Context, query driven.KeywordQuery) ([]domain.RetrievalHit, error) {
	if k.disabled != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrKeywordIndexUnavailable, k.disabled)
	}

	match := matchExpression(query.Text, query.Tokens)
	if match == "" {
		return nil, nil
	}

	stmt := `
		SELECT document_id, applicant_id, document_type, body,
			-` + rankExpr + ` AS score,
			snippet(keyword_fts, ` + fmt.Sprint(bodyColumn) + `, '<em>', '</em>', '...', ` + fmt.Sprint(snippetTokens) + `)
		FROM keyword_fts
		WHERE keyword_fts MATCH ?`
	args := []any{match}
	if query.DocumentType != "" {
		stmt += " AND document_type = ?"
		args = append(args, string(query.DocumentType))
	}
	stmt += " ORDER BY score DESC, document_id ASC"
	if query.Limit > 0 {
		stmt += " LIMIT ?"
		args = append(args, query.Limit)
	}

	rows, err := k.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrKeywordIndexUnavailable, err)
	}
	defer rows.Close()

	var hits []domain.RetrievalHit
	for rows.Next() {
		var id, applicantID, docType, body, snippet string
		var score float64
		if err := rows.Scan(&id, &applicantID, &docType, &body, &score, &snippet); err != nil {
			return nil, fmt.Errorf("scanning keyword hit: %w", err)
		}
		if score <= 0 {
			continue
		}

		hit := domain.RetrievalHit{
			SourceID: id,
			Score:    score,
			Metadata: domain.ChunkMetadata{
				DocumentID:   id,
				ApplicantID:  applicantID,
				DocumentType: domain.DocumentType(docType),
				Preview:      domain.Preview(body, domain.PreviewLength),
			},
		}
		if strings.Contains(snippet, "<em>") {
			hit.Highlights = []string{snippet}
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating keyword hits: %w", err)
	}
	return hits, nil
}

// Stats reports the number of indexed documents.
func (k *keywordIndex) Stats(ctx context.Context) (driven.KeywordStats, error) {
	if k.disabled != nil {
		return driven.KeywordStats{}, domain.ErrKeywordIndexUnavailable
	}
	var n int
	if err := k.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM keyword_fts").Scan(&n); err != nil {
		return driven.KeywordStats{}, fmt.Errorf("counting keyword entries: %w", err)
	}
	return driven.KeywordStats{Documents: n}, nil
}

// Ping verifies the index is usable.
func (k *keywordIndex) Ping(ctx context.Context) error {
	if k.disabled != nil {
		return domain.ErrKeywordIndexUnavailable
	}
	return k.db.PingContext(ctx)
}

// Close is a no-op; the connection belongs to the Store.
func (k *keywordIndex) Close() error {
	return nil
}

// matchExpression builds an FTS5 query of the form
//
//	{name position skills body} : ("a" OR "b") OR tokens : ("t1" OR "t2")
//
// Every term is quoted so user input cannot inject FTS syntax.
func matchExpression(text string, tokens []string) string {
	terms := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var parts []string
	if group := orGroup(terms); group != "" {
		parts = append(parts, "{name position skills body} : "+group)
	}
	if group := orGroup(tokens); group != "" {
		parts = append(parts, "tokens : "+group)
	}
	return strings.Join(parts, " OR ")
}

func orGroup(terms []string) string {
	seen := make(map[string]bool, len(terms))
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		quoted = append(quoted, `"`+strings.ReplaceAll(t, `"`, `""`)+`"`)
	}
	if len(quoted) == 0 {
		return ""
	}
	return "(" + strings.Join(quoted, " OR ") + ")"
}
