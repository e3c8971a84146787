package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")

// ErrMissingSimilarityService is returned when the similarity service is not provided.
var ErrMissingSimilarityService = errors.New("mcp: similarity service is required")
