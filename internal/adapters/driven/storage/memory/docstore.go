// Package memory provides in-memory implementations of the driven ports.
// They back tests and the "memory" backends selectable from configuration.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/resumatch/internal/core/domain"
	"github.com/custodia-labs/resumatch/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	order     []string
	chunks    map[string][]domain.Chunk
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]domain.Document),
		chunks:    make(map[string][]domain.Chunk),
	}
}

// Save stores or updates a document.
func (s *DocumentStore) Save(_ context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.documents[doc.ID]; !exists {
		s.order = append(s.order, doc.ID)
	}
	s.documents[doc.ID] = *doc
	return nil
}

// FindByID retrieves a document by ID.
func (s *DocumentStore) FindByID(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// FindMany retrieves the documents that exist among ids, in ids order.
func (s *DocumentStore) FindMany(_ context.Context, ids []string) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Document, 0, len(ids))
	for _, id := range ids {
		if doc, ok := s.documents[id]; ok {
			result = append(result, doc)
		}
	}
	return result, nil
}

// FindAll returns every document in insertion order.
func (s *DocumentStore) FindAll(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Document, 0, len(s.order))
	for _, id := range s.order {
		result = append(result, s.documents[id])
	}
	return result, nil
}

// Delete removes a document and its chunks.
func (s *DocumentStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[id]; ok {
		delete(s.documents, id)
		for i, existing := range s.order {
			if existing == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
	delete(s.chunks, id)
	return nil
}

// SaveChunks upserts chunks by ID, grouped by document.
func (s *DocumentStore) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, chunk := range chunks {
		existing := s.chunks[chunk.DocumentID]
		replaced := false
		for i := range existing {
			if existing[i].ID == chunk.ID {
				existing[i] = chunk
				replaced = true
				break
			}
		}
		if !replaced {
			existing = append(existing, chunk)
		}
		s.chunks[chunk.DocumentID] = existing
	}
	return nil
}

// GetChunks retrieves all chunks for a document ordered by type and index.
func (s *DocumentStore) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.chunks[documentID]
	if len(stored) == 0 {
		return nil, nil
	}
	out := make([]domain.Chunk, len(stored))
	copy(out, stored)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].Index < out[j].Index
	})
	return out, nil
}

// DeleteChunks removes the given chunk IDs.
func (s *DocumentStore) DeleteChunks(_ context.Context, chunkIDs []string) error {
	if len(chunkIDs) == 0 {
		return nil
	}
	drop := make(map[string]bool, len(chunkIDs))
	for _, id := range chunkIDs {
		drop[id] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for docID, chunks := range s.chunks {
		kept := chunks[:0]
		for _, c := range chunks {
			if !drop[c.ID] {
				kept = append(kept, c)
			}
		}
		if len(kept) == 0 {
			delete(s.chunks, docID)
		} else {
			s.chunks[docID] = kept
		}
	}
	return nil
}
