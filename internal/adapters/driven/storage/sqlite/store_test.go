package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/resumatch/internal/core/domain"
)

// setupTestStore creates a SQLite store in a temporary directory.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(filepath.Join(t.TempDir(), "data", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })
	return store
}

func testDocument(id string) *domain.Document {
	return &domain.Document{
		ID:            id,
		ApplicantID:   "applicant-" + id,
		Type:          domain.DocumentTypeCoverLetter,
		ApplicantName: "Kim Minsu",
		Position:      "Backend Engineer",
		Fields: map[string]string{
			domain.FieldMotivation: "I want to build reliable payment systems.",
			domain.FieldSkills:     "Go, PostgreSQL",
		},
		CreatedAt: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestNewStore_EmptyPath(t *testing.T) {
	_, err := NewStore("")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNewStore_ReopenSkipsAppliedMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	first, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, first.DocumentStore().Save(context.Background(), testDocument("d1")))
	require.NoError(t, first.Close())

	second, err := NewStore(path)
	require.NoError(t, err)
	defer second.Close()

	assert.Equal(t, path, second.Path())
	doc, err := second.DocumentStore().FindByID(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, "Kim Minsu", doc.ApplicantName)
}

func TestDocumentStore_SaveAndFind(t *testing.T) {
	store := setupTestStore(t)
	docs := store.DocumentStore()
	ctx := context.Background()

	portfolio := &domain.Document{
		ID:        "p1",
		Type:      domain.DocumentTypePortfolio,
		Fields:    map[string]string{domain.FieldSummary: "Design work"},
		Items:     []domain.PortfolioItem{{Title: "Checkout redesign", Description: "A/B tested"}},
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, docs.Save(ctx, testDocument("d1")))
	require.NoError(t, docs.Save(ctx, portfolio))

	got, err := docs.FindByID(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, domain.DocumentTypeCoverLetter, got.Type)
	assert.Equal(t, "Go, PostgreSQL", got.Fields[domain.FieldSkills])
	assert.True(t, got.CreatedAt.Equal(testDocument("d1").CreatedAt))

	got, err = docs.FindByID(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Checkout redesign", got.Items[0].Title)

	_, err = docs.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	all, err := docs.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "d1", all[0].ID)

	many, err := docs.FindMany(ctx, []string{"p1", "missing", "d1"})
	require.NoError(t, err)
	require.Len(t, many, 2)
	assert.Equal(t, "p1", many[0].ID)
	assert.Equal(t, "d1", many[1].ID)
}

func TestDocumentStore_SaveUpdates(t *testing.T) {
	store := setupTestStore(t)
	docs := store.DocumentStore()
	ctx := context.Background()

	doc := testDocument("d1")
	require.NoError(t, docs.Save(ctx, doc))
	doc.Position = "Platform Engineer"
	require.NoError(t, docs.Save(ctx, doc))

	got, err := docs.FindByID(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "Platform Engineer", got.Position)

	all, _ := docs.FindAll(ctx)
	assert.Len(t, all, 1)
}

func TestDocumentStore_Chunks(t *testing.T) {
	store := setupTestStore(t)
	docs := store.DocumentStore()
	ctx := context.Background()

	require.NoError(t, docs.SaveChunks(ctx, []domain.Chunk{
		{ID: "c3", DocumentID: "d1", DocumentType: domain.DocumentTypeResume, Type: domain.FieldSkills, Content: "Go"},
		{ID: "c2", DocumentID: "d1", DocumentType: domain.DocumentTypeResume, Type: domain.FieldExtractedText, Index: 1, Content: "second"},
		{ID: "c1", DocumentID: "d1", DocumentType: domain.DocumentTypeResume, Type: domain.FieldExtractedText, Index: 0, Content: "first", Tokens: []string{"first"}},
		{ID: "other", DocumentID: "d2", DocumentType: domain.DocumentTypeResume, Type: domain.FieldSkills, Content: "Java"},
	}))

	chunks, err := docs.GetChunks(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, []string{"c1", "c2", "c3"}, []string{chunks[0].ID, chunks[1].ID, chunks[2].ID})
	assert.Equal(t, []string{"first"}, chunks[0].Tokens)
	assert.Nil(t, chunks[1].Tokens)
	assert.Equal(t, domain.ChunkType(domain.FieldExtractedText), chunks[0].Type)

	require.NoError(t, docs.SaveChunks(ctx, []domain.Chunk{
		{ID: "c1", DocumentID: "d1", DocumentType: domain.DocumentTypeResume, Type: domain.FieldExtractedText, Content: "rewritten"},
	}))
	require.NoError(t, docs.DeleteChunks(ctx, []string{"c2"}))
	require.NoError(t, docs.DeleteChunks(ctx, nil))

	chunks, err = docs.GetChunks(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "rewritten", chunks[0].Content)
}

func TestDocumentStore_DeleteRemovesChunks(t *testing.T) {
	store := setupTestStore(t)
	docs := store.DocumentStore()
	ctx := context.Background()

	require.NoError(t, docs.Save(ctx, testDocument("d1")))
	require.NoError(t, docs.SaveChunks(ctx, []domain.Chunk{
		{ID: "c1", DocumentID: "d1", DocumentType: domain.DocumentTypeCoverLetter, Type: domain.FieldMotivation, Content: "x"},
	}))

	require.NoError(t, docs.Delete(ctx, "d1"))
	require.NoError(t, docs.Delete(ctx, "d1"))

	_, err := docs.FindByID(ctx, "d1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	chunks, err := docs.GetChunks(ctx, "d1")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}
