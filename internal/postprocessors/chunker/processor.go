// Package chunker splits applicant documents into typed, bounded passages.
//
// Structured fields become one chunk each, labelled with the field name.
// Free-form text (OCR output) and fields longer than the chunk size are
// split into overlapping fixed-size windows. Chunk IDs are UUIDv5 values
// derived from (document id, chunk type, chunk index), so re-chunking a
// document always yields the same IDs.
package chunker

import (
	"context"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/custodia-labs/resumatch/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = domain.DefaultChunkOverlap

// DefaultMinChunkChars is the default minimum window length.
const DefaultMinChunkChars = domain.DefaultMinChunkChars

// chunkNamespace seeds chunk ID generation. Changing it re-keys every chunk.
var chunkNamespace = uuid.MustParse("4b9e2f1a-6c3d-5e8f-a1b2-7d0c9e8f3a65")

// ChunkID returns the stable chunk ID for a (document, type, index) triple.
func ChunkID(documentID string, chunkType domain.ChunkType, index int) string {
	name := documentID + "|" + string(chunkType) + "|" + strconv.Itoa(index)
	return uuid.NewSHA1(chunkNamespace, []byte(name)).String()
}

// Processor splits documents into chunks.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize int
	overlap   int
	minChars  int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between windows in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// WithMinChunkChars sets the minimum window length.
func WithMinChunkChars(n int) Option {
	return func(p *Processor) {
		if n >= 0 {
			p.minChars = n
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
		minChars:  DefaultMinChunkChars,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}
	if p.minChars > p.chunkSize {
		p.minChars = p.chunkSize
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits the document into chunks.
// Input chunks are ignored; this processor creates new chunks from the document.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	var chunks []domain.Chunk

	for _, field := range doc.FieldNames() {
		text := doc.Field(field)
		if isMeaningless(text) {
			continue
		}
		chunks = append(chunks, p.fieldChunks(doc, domain.ChunkType(field), text)...)
	}

	for i, item := range doc.Items {
		title := strings.TrimSpace(item.Title)
		if isMeaningless(title) {
			continue
		}
		chunks = append(chunks, p.newChunk(doc, domain.FieldItemTitle, i, truncateRunes(title, p.chunkSize)))
	}

	if text := doc.Field(domain.FieldExtractedText); !isMeaningless(text) {
		chunks = append(chunks, p.windows(doc, domain.FieldExtractedText, text)...)
	}

	return chunks, nil
}

// fieldChunks emits one chunk for a structured field, or windows when the
// field does not fit in a single chunk.
func (p *Processor) fieldChunks(doc *domain.Document, chunkType domain.ChunkType, text string) []domain.Chunk {
	if len([]rune(text)) <= p.chunkSize {
		return []domain.Chunk{p.newChunk(doc, chunkType, 0, text)}
	}
	return p.windows(doc, chunkType, text)
}

// windows splits text into chunkSize-rune windows that share overlap runes
// with their predecessor, stopping once the tail is covered. Windows shorter
// than minChars are dropped unless the text yields only one window.
func (p *Processor) windows(doc *domain.Document, chunkType domain.ChunkType, text string) []domain.Chunk {
	runes := []rune(text)
	n := len(runes)
	step := p.chunkSize - p.overlap

	var spans [][2]int
	for start := 0; start < n; start += step {
		end := start + p.chunkSize
		if end > n {
			end = n
		}
		spans = append(spans, [2]int{start, end})
		if end == n {
			break
		}
	}

	chunks := make([]domain.Chunk, 0, len(spans))
	index := 0
	for _, span := range spans {
		window := strings.TrimSpace(string(runes[span[0]:span[1]]))
		if isMeaningless(window) {
			continue
		}
		if len([]rune(window)) < p.minChars && len(spans) > 1 {
			continue
		}
		chunks = append(chunks, p.newChunk(doc, chunkType, index, window))
		index++
	}
	return chunks
}

func (p *Processor) newChunk(doc *domain.Document, chunkType domain.ChunkType, index int, text string) domain.Chunk {
	return domain.Chunk{
		ID:           ChunkID(doc.ID, chunkType, index),
		DocumentID:   doc.ID,
		ApplicantID:  doc.ApplicantID,
		DocumentType: doc.Type,
		Type:         chunkType,
		Index:        index,
		Content:      text,
	}
}

// isMeaningless reports whether text is empty after trimming, or is at most
// two characters without any letter or digit.
func isMeaningless(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return true
	}
	if len([]rune(text)) > 2 {
		return false
	}
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
