// Package tokens annotates chunks with their normalised keyword set.
package tokens

import (
	"context"

	"github.com/custodia-labs/resumatch/internal/core/domain"
)

// Tokenizer converts text into an ordered keyword set.
type Tokenizer interface {
	Tokenize(text string) []string
}

// Processor fills Chunk.Tokens. It must run after a chunk-producing processor.
type Processor struct {
	tokenizer Tokenizer
}

// New creates a token annotation processor.
func New(tokenizer Tokenizer) *Processor {
	return &Processor{tokenizer: tokenizer}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "tokens"
}

// Process sets the token set of every chunk. Chunks are modified in place.
func (p *Processor) Process(_ context.Context, _ *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	for i := range chunks {
		chunks[i].Tokens = p.tokenizer.Tokenize(chunks[i].Content)
	}
	return chunks, nil
}
