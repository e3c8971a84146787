package mcp

import (
	"github.com/custodia-labs/resumatch/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search provides hybrid and keyword search.
	Search driving.SearchService

	// Similarity compares documents with the corpus.
	Similarity driving.SimilarityService

	// Settings exposes the active engine settings. Optional.
	Settings driving.SettingsService

	// Reindex reports on the background reindex. Optional.
	Reindex driving.ReindexStatus
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	if p.Similarity == nil {
		return ErrMissingSimilarityService
	}
	return nil
}
