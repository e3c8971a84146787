package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/resumatch/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for resumatch resources.
	uriScheme = "resumatch://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "settings",
		Name:        "settings",
		Description: "Active fusion weights, thresholds and limits",
		MIMEType:    "application/json",
	}, s.handleSettingsResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "reindex",
		Name:        "reindex",
		Description: "Outcome of the most recent background full reindex",
		MIMEType:    "application/json",
	}, s.handleReindexResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "documents/{documentId}/similar",
		Name:        "similar-documents",
		Description: "Documents similar to a stored document",
		MIMEType:    "application/json",
	}, s.handleSimilarResource)
}

// settingsView is the JSON shape of the engine settings.
type settingsView struct {
	VectorWeight        float64            `json:"vector_weight"`
	KeywordWeight       float64            `json:"keyword_weight"`
	KeywordScale        float64            `json:"keyword_scale"`
	ChannelTimeoutMS    int64              `json:"channel_timeout_ms"`
	DefaultLimit        int                `json:"default_limit"`
	SimilarityThreshold float64            `json:"similarity_threshold"`
	FieldThresholds     map[string]float64 `json:"field_thresholds,omitempty"`
	PlagiarismThreshold float64            `json:"plagiarism_threshold"`
	PlagiarismHigh      float64            `json:"plagiarism_high_threshold"`
	ChunkSize           int                `json:"chunk_size"`
	ChunkOverlap        int                `json:"chunk_overlap"`
}

func newSettingsView(s domain.EngineSettings) settingsView {
	return settingsView{
		VectorWeight:        s.Fusion.Weights.Vector,
		KeywordWeight:       s.Fusion.Weights.Keyword,
		KeywordScale:        s.Fusion.KeywordScale,
		ChannelTimeoutMS:    s.Search.ChannelTimeout.Milliseconds(),
		DefaultLimit:        s.Search.DefaultLimit,
		SimilarityThreshold: s.Similarity.Threshold,
		FieldThresholds:     s.Similarity.FieldThresholds,
		PlagiarismThreshold: s.Plagiarism.Threshold,
		PlagiarismHigh:      s.Plagiarism.HighThreshold,
		ChunkSize:           s.Chunking.ChunkSize,
		ChunkOverlap:        s.Chunking.ChunkOverlap,
	}
}

// handleSettingsResource returns the engine settings.
func (s *Server) handleSettingsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	settings := domain.DefaultEngineSettings()
	if s.ports.Settings != nil {
		settings = s.ports.Settings.Engine()
	}
	return jsonResource(req.Params.URI, newSettingsView(settings))
}

// handleReindexResource returns the last background reindex run.
func (s *Server) handleReindexResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	type reindexInfo struct {
		Ran     bool               `json:"ran"`
		LastRun *domain.ReindexRun `json:"last_run,omitempty"`
	}

	var info reindexInfo
	if s.ports.Reindex != nil {
		if run, ok := s.ports.Reindex.LastRun(); ok {
			info.Ran = true
			info.LastRun = &run
		}
	}
	return jsonResource(req.Params.URI, info)
}

// handleSimilarResource runs a similarity check for the document in the URI.
func (s *Server) handleSimilarResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// Extract documentId from URI: resumatch://documents/{documentId}/similar
	docID := extractDocumentID(req.Params.URI)
	if docID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	resp, err := s.ports.Similarity.FindSimilarDocuments(ctx, docID, 0)
	if err != nil {
		return nil, fmt.Errorf("finding similar documents: %w", err)
	}
	return jsonResource(req.Params.URI, resp)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractDocumentID extracts the document ID from a URI like resumatch://documents/{documentId}/similar.
func extractDocumentID(uri string) string {
	const prefix = uriScheme + "documents/"
	const suffix = "/similar"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}

	return strings.TrimSuffix(uri, suffix)
}
