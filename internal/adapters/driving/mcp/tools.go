package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/resumatch/internal/core/domain"
)

// SearchHybridInput is the input schema for the search_hybrid tool.
type SearchHybridInput struct {
	Query         string  `json:"query" jsonschema:"free-text query, e.g. a skill set or role description"`
	Limit         int     `json:"limit,omitempty" jsonschema:"maximum number of results (default from settings)"`
	VectorWeight  float64 `json:"vector_weight,omitempty" jsonschema:"weight of semantic similarity, 0 to 1"`
	KeywordWeight float64 `json:"keyword_weight,omitempty" jsonschema:"weight of keyword relevance, 0 to 1"`
	DocumentType  string  `json:"document_type,omitempty" jsonschema:"restrict to resume, cover_letter or portfolio"`
}

// SearchKeywordsInput is the input schema for the search_keywords tool.
type SearchKeywordsInput struct {
	Query string `json:"query" jsonschema:"keywords to match"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results (default from settings)"`
}

// DocumentInput is the input schema for the document comparison tools.
type DocumentInput struct {
	DocumentID string `json:"document_id" jsonschema:"id of the stored document to compare"`
	Limit      int    `json:"limit,omitempty" jsonschema:"maximum number of candidates (default from settings)"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_hybrid",
		Description: "Rank applicant documents by a weighted fusion of semantic and keyword relevance",
	}, s.handleSearchHybrid)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_keywords",
		Description: "Find applicant documents by keywords, with highlighted passages",
	}, s.handleSearchKeywords)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "find_similar_documents",
		Description: "Find documents similar to a stored document, with per-section evidence and a risk level",
	}, s.handleFindSimilar)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "check_plagiarism",
		Description: "List documents whose similarity to a stored document reaches the plagiarism threshold",
	}, s.handleCheckPlagiarism)
}

func (s *Server) handleSearchHybrid(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchHybridInput,
) (*mcp.CallToolResult, domain.SearchResponse, error) {
	docType := domain.DocumentType(input.DocumentType)
	if docType != "" && !docType.IsValid() {
		return nil, domain.SearchResponse{}, fmt.Errorf("%w: unknown document type %q", domain.ErrInvalidInput, input.DocumentType)
	}

	resp, err := s.ports.Search.SearchHybrid(ctx, input.Query, domain.SearchOptions{
		Limit:        input.Limit,
		Weights:      domain.Weights{Vector: input.VectorWeight, Keyword: input.KeywordWeight},
		DocumentType: docType,
	})
	if err != nil {
		return nil, domain.SearchResponse{}, err
	}
	return nil, resp, nil
}

func (s *Server) handleSearchKeywords(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchKeywordsInput,
) (*mcp.CallToolResult, domain.KeywordSearchResponse, error) {
	resp, err := s.ports.Search.SearchByKeywords(ctx, input.Query, input.Limit)
	if err != nil {
		return nil, domain.KeywordSearchResponse{}, err
	}
	return nil, resp, nil
}

func (s *Server) handleFindSimilar(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DocumentInput,
) (*mcp.CallToolResult, domain.SimilarityResponse, error) {
	resp, err := s.ports.Similarity.FindSimilarDocuments(ctx, input.DocumentID, input.Limit)
	if err != nil {
		return nil, domain.SimilarityResponse{}, err
	}
	return nil, resp, nil
}

func (s *Server) handleCheckPlagiarism(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DocumentInput,
) (*mcp.CallToolResult, domain.SimilarityResponse, error) {
	resp, err := s.ports.Similarity.CheckPlagiarism(ctx, input.DocumentID, input.Limit)
	if err != nil {
		return nil, domain.SimilarityResponse{}, err
	}
	return nil, resp, nil
}
