package postprocessors

import (
	"github.com/custodia-labs/resumatch/internal/core/domain"
	"github.com/custodia-labs/resumatch/internal/core/ports/driven"
	"github.com/custodia-labs/resumatch/internal/postprocessors/chunker"
	"github.com/custodia-labs/resumatch/internal/postprocessors/tokens"
)

// DefaultProcessors is the standard pipeline order.
var DefaultProcessors = []string{"chunker", "tokens"}

// RegisterDefaults registers all built-in processors with the registry.
// Call this during application initialisation to enable standard processors.
func RegisterDefaults(r *Registry, tokenizer tokens.Tokenizer) {
	r.Register("chunker", buildChunker)
	r.Register("tokens", func(map[string]any) (driven.PostProcessor, error) {
		return tokens.New(tokenizer), nil
	})
}

// NewDefaultPipeline builds the chunker and token annotator from chunking settings.
func NewDefaultPipeline(settings domain.ChunkingSettings, tokenizer tokens.Tokenizer) (*Pipeline, error) {
	r := NewRegistry()
	RegisterDefaults(r, tokenizer)

	configs := map[string]map[string]any{
		"chunker": {
			"chunk_size":      settings.ChunkSize,
			"overlap":         settings.ChunkOverlap,
			"min_chunk_chars": settings.MinChunkChars,
		},
	}
	return r.BuildPipeline(DefaultProcessors, configs)
}

// buildChunker creates a chunker processor from generic config.
// Supported config keys:
//   - chunk_size (int): Characters per chunk (default: 500)
//   - overlap (int): Overlapping characters between windows (default: 50)
//   - min_chunk_chars (int): Minimum window length (default: 20)
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option

	if cfg != nil {
		if size := getIntFromConfig(cfg, "chunk_size"); size > 0 {
			opts = append(opts, chunker.WithChunkSize(size))
		}
		if _, ok := cfg["overlap"]; ok {
			opts = append(opts, chunker.WithOverlap(getIntFromConfig(cfg, "overlap")))
		}
		if _, ok := cfg["min_chunk_chars"]; ok {
			opts = append(opts, chunker.WithMinChunkChars(getIntFromConfig(cfg, "min_chunk_chars")))
		}
	}

	return chunker.New(opts...), nil
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) int {
	val, ok := cfg[key]
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
