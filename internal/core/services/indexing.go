package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/panjf2000/ants/v2"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/resumatch/internal/core/domain"
	"github.com/custodia-labs/resumatch/internal/core/ports/driven"
	"github.com/custodia-labs/resumatch/internal/core/ports/driving"
	"github.com/custodia-labs/resumatch/internal/logger"
	"github.com/custodia-labs/resumatch/internal/vecmath"
)

// Ensure IndexService implements the interfaces.
var (
	_ driving.IndexService  = (*IndexService)(nil)
	_ driving.SettingsAware = (*IndexService)(nil)
)

// summaryHashKey is the metadata key holding the hash of the summarised text.
const summaryHashKey = "content_hash"

// IndexService writes documents into the keyword and vector indices.
type IndexService struct {
	settingsHolder

	docStore         driven.DocumentStore
	pipeline         driven.PostProcessorPipeline
	keywordIndex     driven.KeywordIndex
	vectorIndex      driven.VectorIndex
	embeddingService driven.EmbeddingService
}

// NewIndexService creates a new indexing service.
// keywordIndex, vectorIndex and embeddingService are optional (can be nil).
func NewIndexService(
	docStore driven.DocumentStore,
	pipeline driven.PostProcessorPipeline,
	keywordIndex driven.KeywordIndex,
	vectorIndex driven.VectorIndex,
	embeddingService driven.EmbeddingService,
	settings domain.EngineSettings,
) *IndexService {
	s := &IndexService{
		docStore:         docStore,
		pipeline:         pipeline,
		keywordIndex:     keywordIndex,
		vectorIndex:      vectorIndex,
		embeddingService: embeddingService,
	}
	s.SetSettings(settings)
	return s
}

func (s *IndexService) vectorsEnabled() bool {
	return s.vectorIndex != nil && s.embeddingService != nil
}

// IndexDocument chunks a document and writes it to both indices.
//
// The keyword entry and the vectors are written concurrently and
// independently: a failure in one store is reported in the result and never
// rolls back the other. Stale chunks of a previous indexing are removed.
func (s *IndexService) IndexDocument(ctx context.Context, doc *domain.Document) (domain.IndexResult, error) {
	if doc == nil || doc.ID == "" {
		return domain.IndexResult{Message: "document id is required"}, nil
	}
	result := domain.IndexResult{DocumentID: doc.ID}

	if s.keywordIndex == nil && !s.vectorsEnabled() {
		return result, domain.ErrNoBackends
	}

	logger.Debug("Indexing document %s (%s)", doc.ID, doc.Type)

	chunks, err := s.pipeline.Process(ctx, doc)
	if err != nil {
		return result, fmt.Errorf("chunk document %s: %w", doc.ID, err)
	}
	if len(chunks) == 0 {
		result.Message = domain.ErrNothingToIndex.Error()
		return result, nil
	}
	result.ChunkCount = len(chunks)

	if err := s.removeStaleChunks(ctx, doc.ID, chunks); err != nil {
		return result, err
	}
	if err := s.docStore.SaveChunks(ctx, chunks); err != nil {
		return result, fmt.Errorf("save chunks for %s: %w", doc.ID, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	if s.keywordIndex != nil {
		g.Go(func() error {
			if err := s.keywordIndex.Index(gctx, keywordDocument(doc, chunks)); err != nil {
				logger.Warn("Keyword indexing failed for %s: %v", doc.ID, err)
				return nil
			}
			result.KeywordIndexed = true
			return nil
		})
	}
	if s.vectorsEnabled() {
		g.Go(func() error {
			indexed, skipped := s.indexChunkVectors(gctx, chunks)
			result.VectorsIndexed = indexed
			result.ChunksSkipped = skipped
			result.SummaryReused = s.indexSummaryVector(gctx, doc)
			return nil
		})
	}
	_ = g.Wait()

	result.Success = result.KeywordIndexed || result.VectorsIndexed > 0
	switch {
	case !result.Success:
		result.Message = "no index accepted the document"
	case result.ChunksSkipped > 0:
		result.Message = fmt.Sprintf("indexed %d chunks, %d without vectors", result.ChunkCount, result.ChunksSkipped)
	default:
		result.Message = fmt.Sprintf("indexed %d chunks", result.ChunkCount)
	}
	logger.Info("Document %s: %s", doc.ID, result.Message)
	return result, nil
}

// BuildFullIndex re-indexes every document in the document store.
// Documents are indexed on a worker pool; one document's failure is counted
// and does not stop the run.
func (s *IndexService) BuildFullIndex(ctx context.Context) (domain.BulkIndexResult, error) {
	logger.Section("Full Reindex")

	if s.keywordIndex == nil && !s.vectorsEnabled() {
		return domain.BulkIndexResult{}, domain.ErrNoBackends
	}

	docs, err := s.docStore.FindAll(ctx)
	if err != nil {
		return domain.BulkIndexResult{}, fmt.Errorf("list documents: %w", err)
	}
	if len(docs) == 0 {
		return domain.BulkIndexResult{Success: true, Message: "no documents to index"}, nil
	}

	pool, err := ants.NewPool(s.Settings().Indexing.Workers)
	if err != nil {
		return domain.BulkIndexResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var indexed, failed atomic.Int64
	var wg sync.WaitGroup
	for i := range docs {
		doc := &docs[i]
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				failed.Add(1)
				return
			}
			res, err := s.IndexDocument(ctx, doc)
			if err == nil && !res.Success {
				err = errors.New(res.Message)
			}
			if err == nil {
				if rejected := s.rejectedBy(res); len(rejected) > 0 {
					err = fmt.Errorf("not accepted by %s", strings.Join(rejected, ", "))
				}
			}
			if err != nil {
				logger.Warn("Reindex of %s failed: %v", doc.ID, err)
				failed.Add(1)
				return
			}
			indexed.Add(1)
		})
		if submitErr != nil {
			wg.Done()
			logger.Warn("Could not schedule %s: %v", doc.ID, submitErr)
			failed.Add(1)
		}
	}
	wg.Wait()

	result := domain.BulkIndexResult{
		TotalIndexed: int(indexed.Load()),
		TotalFailed:  int(failed.Load()),
	}
	result.Success = result.TotalFailed == 0
	result.Message = fmt.Sprintf("indexed %d of %d documents", result.TotalIndexed, len(docs))
	logger.Info("Full reindex: %s (%d failed)", result.Message, result.TotalFailed)
	return result, nil
}

// rejectedBy names the configured stores that did not take a document which
// produced chunks. A full reindex repairs drift between the stores, so a
// document missing from either one is a failure there.
func (s *IndexService) rejectedBy(res domain.IndexResult) []string {
	if res.ChunkCount == 0 {
		return nil
	}
	var rejected []string
	if s.keywordIndex != nil && !res.KeywordIndexed {
		rejected = append(rejected, "keyword index")
	}
	if s.vectorsEnabled() && res.VectorsIndexed == 0 {
		rejected = append(rejected, "vector index")
	}
	return rejected
}

// DeleteDocumentData removes a document's vectors, keyword entry and stored chunks.
// The document itself belongs to the document store and is left in place.
func (s *IndexService) DeleteDocumentData(ctx context.Context, documentID string) (domain.DeleteResult, error) {
	if documentID == "" {
		return domain.DeleteResult{}, fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}
	result := domain.DeleteResult{DocumentID: documentID}

	if s.vectorIndex != nil {
		if err := s.vectorIndex.DeleteDocument(ctx, documentID); err != nil {
			logger.Warn("Vector delete failed for %s: %v", documentID, err)
		} else {
			result.VectorDeleted = true
		}
	}
	if s.keywordIndex != nil {
		if err := s.keywordIndex.Delete(ctx, documentID); err != nil {
			logger.Warn("Keyword delete failed for %s: %v", documentID, err)
		} else {
			result.KeywordDeleted = true
		}
	}

	chunks, err := s.docStore.GetChunks(ctx, documentID)
	if err != nil {
		logger.Warn("Loading chunks of %s failed: %v", documentID, err)
		return result, nil
	}
	if len(chunks) > 0 {
		if err := s.docStore.DeleteChunks(ctx, chunkIDs(chunks)); err != nil {
			logger.Warn("Deleting chunks of %s failed: %v", documentID, err)
		}
	}
	return result, nil
}

// removeStaleChunks deletes previously stored chunks that the new chunking
// no longer produces, together with their vectors.
func (s *IndexService) removeStaleChunks(ctx context.Context, documentID string, fresh []domain.Chunk) error {
	existing, err := s.docStore.GetChunks(ctx, documentID)
	if err != nil {
		return fmt.Errorf("load chunks for %s: %w", documentID, err)
	}

	keep := make(map[string]bool, len(fresh))
	for i := range fresh {
		keep[fresh[i].ID] = true
	}
	var stale []string
	for i := range existing {
		if !keep[existing[i].ID] {
			stale = append(stale, existing[i].ID)
		}
	}
	if len(stale) == 0 {
		return nil
	}

	logger.Debug("Removing %d stale chunks of %s", len(stale), documentID)
	if err := s.docStore.DeleteChunks(ctx, stale); err != nil {
		return fmt.Errorf("delete stale chunks for %s: %w", documentID, err)
	}
	if s.vectorIndex != nil {
		if err := s.vectorIndex.Delete(ctx, stale); err != nil {
			logger.Warn("Deleting stale vectors of %s failed: %v", documentID, err)
		}
	}
	return nil
}

// indexChunkVectors embeds and upserts one vector per chunk.
// Chunks whose embedding fails or is degenerate are skipped.
func (s *IndexService) indexChunkVectors(ctx context.Context, chunks []domain.Chunk) (indexed, skipped int) {
	vectors := s.embedChunks(ctx, chunks)

	records := make([]driven.VectorRecord, 0, len(chunks))
	for i := range chunks {
		if vectors[i] == nil || vecmath.IsDegenerate(vectors[i]) {
			logger.Warn("Skipping chunk %s: no usable embedding", chunks[i].ID)
			skipped++
			continue
		}
		records = append(records, driven.VectorRecord{
			ID:       chunks[i].VectorID(),
			Vector:   vectors[i],
			Level:    domain.VectorLevelChunk,
			Metadata: chunks[i].Metadata(),
		})
	}
	if len(records) == 0 {
		return 0, skipped
	}

	if err := s.vectorIndex.Upsert(ctx, records); err != nil {
		logger.Warn("Vector upsert failed: %v", err)
		return 0, len(chunks)
	}
	return len(records), skipped
}

// embedChunks embeds chunk contents in one batch, falling back to one call
// per chunk when the batch fails. A nil entry marks a chunk without a vector.
func (s *IndexService) embedChunks(ctx context.Context, chunks []domain.Chunk) [][]float32 {
	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Content
	}

	vectors, err := s.embeddingService.EmbedBatch(ctx, texts)
	if err == nil && len(vectors) == len(texts) {
		return vectors
	}
	if err != nil {
		logger.Warn("Batch embedding failed, embedding chunks one by one: %v", err)
	} else {
		logger.Warn("Batch embedding returned %d vectors for %d chunks", len(vectors), len(texts))
	}

	vectors = make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := s.embeddingService.Embed(ctx, text)
		if err != nil {
			logger.Warn("Embedding chunk %s failed: %v", chunks[i].ID, err)
			continue
		}
		vectors[i] = vec
	}
	return vectors
}

// indexSummaryVector writes the document-level vector used by hybrid search.
// An existing summary built from the same text is reused.
func (s *IndexService) indexSummaryVector(ctx context.Context, doc *domain.Document) (reused bool) {
	text := summaryText(doc, s.Settings().Indexing.SummaryMaxChars)
	if text == "" {
		return false
	}
	id := domain.SummaryVectorID(doc.ID)
	hash := strconv.FormatUint(xxhash.Sum64String(text), 16)

	existing, err := s.vectorIndex.Fetch(ctx, id)
	switch {
	case err == nil && existing.Metadata.Extra[summaryHashKey] == hash:
		logger.Debug("Summary vector for %s is current", doc.ID)
		return true
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		logger.Warn("Summary lookup for %s failed: %v", doc.ID, err)
	}

	vec, err := s.embeddingService.Embed(ctx, text)
	if err != nil {
		logger.Warn("Summary embedding for %s failed: %v", doc.ID, err)
		return false
	}
	if vecmath.IsDegenerate(vec) {
		logger.Warn("Summary embedding for %s is degenerate", doc.ID)
		return false
	}

	record := driven.VectorRecord{
		ID:     id,
		Vector: vec,
		Level:  domain.VectorLevelDocument,
		Metadata: domain.ChunkMetadata{
			DocumentID:   doc.ID,
			ApplicantID:  doc.ApplicantID,
			DocumentType: doc.Type,
			Preview:      domain.Preview(text, domain.PreviewLength),
			Extra:        map[string]string{summaryHashKey: hash},
		},
	}
	if err := s.vectorIndex.Upsert(ctx, []driven.VectorRecord{record}); err != nil {
		logger.Warn("Summary upsert for %s failed: %v", doc.ID, err)
	}
	return false
}

// summaryText is the document text embedded as its summary vector.
func summaryText(doc *domain.Document, maxChars int) string {
	text := doc.SearchableText()
	if maxChars > 0 {
		if runes := []rune(text); len(runes) > maxChars {
			text = string(runes[:maxChars])
		}
	}
	return text
}

// keywordDocument builds the keyword index entry for a document.
// The token set is the union of the chunk token sets in chunk order.
func keywordDocument(doc *domain.Document, chunks []domain.Chunk) domain.KeywordDocument {
	seen := make(map[string]bool)
	var tokens []string
	for i := range chunks {
		for _, t := range chunks[i].Tokens {
			if !seen[t] {
				seen[t] = true
				tokens = append(tokens, t)
			}
		}
	}

	return domain.KeywordDocument{
		DocumentID:   doc.ID,
		ApplicantID:  doc.ApplicantID,
		DocumentType: doc.Type,
		Name:         doc.ApplicantName,
		Position:     doc.Position,
		Skills:       doc.Field(domain.FieldSkills),
		Body:         doc.SearchableText(),
		Tokens:       tokens,
	}
}

func chunkIDs(chunks []domain.Chunk) []string {
	ids := make([]string, len(chunks))
	for i := range chunks {
		ids[i] = chunks[i].ID
	}
	return ids
}
