package mcp

import (
	"context"
	"net/http/httptest"
	"sort"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// connect opens a client session against server over in-memory transports.
func connect(t *testing.T, server *Server) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	serverSession, err := server.server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func TestNewServer(t *testing.T) {
	t.Run("nil search service returns error", func(t *testing.T) {
		ports := &Ports{Similarity: &mockSimilarityService{}}
		server, err := NewServer(ports)
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingSearchService)
	})

	t.Run("nil similarity service returns error", func(t *testing.T) {
		ports := &Ports{Search: &mockSearchService{}}
		server, err := NewServer(ports)
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingSimilarityService)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		ports := &Ports{
			Search:     &mockSearchService{},
			Similarity: &mockSimilarityService{},
		}
		server, err := NewServer(ports)
		require.NoError(t, err)
		assert.NotNil(t, server)
	})
}

func TestPorts_Validate(t *testing.T) {
	t.Run("empty ports", func(t *testing.T) {
		ports := &Ports{}
		assert.ErrorIs(t, ports.Validate(), ErrMissingSearchService)
	})

	t.Run("required ports only is valid", func(t *testing.T) {
		ports := &Ports{
			Search:     &mockSearchService{},
			Similarity: &mockSimilarityService{},
		}
		assert.NoError(t, ports.Validate())
	})

	t.Run("all ports is valid", func(t *testing.T) {
		ports := &Ports{
			Search:     &mockSearchService{},
			Similarity: &mockSimilarityService{},
			Settings:   &mockSettingsService{},
			Reindex:    &mockReindexStatus{},
		}
		assert.NoError(t, ports.Validate())
	})
}

func TestServer_ListsToolsAndResources(t *testing.T) {
	ctx := context.Background()
	server, err := NewServer(&Ports{
		Search:     &mockSearchService{},
		Similarity: &mockSimilarityService{},
		Reindex:    &mockReindexStatus{},
	})
	require.NoError(t, err)
	session := connect(t, server)

	tools, err := session.ListTools(ctx, &mcp.ListToolsParams{})
	require.NoError(t, err)
	var toolNames []string
	for _, tool := range tools.Tools {
		toolNames = append(toolNames, tool.Name)
	}
	sort.Strings(toolNames)
	assert.Equal(t, []string{"check_plagiarism", "find_similar_documents", "search_hybrid", "search_keywords"}, toolNames)

	resources, err := session.ListResources(ctx, &mcp.ListResourcesParams{})
	require.NoError(t, err)
	var uris []string
	for _, resource := range resources.Resources {
		uris = append(uris, resource.URI)
	}
	assert.ElementsMatch(t, []string{"resumatch://settings", "resumatch://reindex"}, uris)

	templates, err := session.ListResourceTemplates(ctx, &mcp.ListResourceTemplatesParams{})
	require.NoError(t, err)
	require.Len(t, templates.ResourceTemplates, 1)
	assert.Equal(t, "resumatch://documents/{documentId}/similar", templates.ResourceTemplates[0].URITemplate)

	initResult := session.InitializeResult()
	require.NotNil(t, initResult)
	assert.Equal(t, "resumatch", initResult.ServerInfo.Name)
	assert.Contains(t, initResult.Instructions, "search_hybrid")
}

func TestServer_Handler(t *testing.T) {
	ctx := context.Background()
	server := newTestServer(&mockSearchService{}, &mockSimilarityService{})
	httpServer := httptest.NewServer(server.Handler())
	defer httpServer.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, &mcp.StreamableClientTransport{Endpoint: httpServer.URL}, nil)
	require.NoError(t, err)
	defer session.Close()

	tools, err := session.ListTools(ctx, &mcp.ListToolsParams{})
	require.NoError(t, err)
	assert.Len(t, tools.Tools, 4)
}
