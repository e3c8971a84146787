// Package mcp exposes the retrieval engine to MCP clients. Tools cover hybrid
// and keyword search plus the similarity and plagiarism checks; resources
// publish the active settings, the last background reindex and the similar
// documents of a stored document.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/resumatch/internal/logger"
)

// Version is reported to clients during initialisation.
const Version = "0.1.0"

// instructions tells clients which tool answers which kind of question.
const instructions = "Use search_hybrid for natural language questions over resumes and cover letters, " +
	"search_keywords for exact terms such as skills or company names, " +
	"find_similar_documents to list documents close to a stored one, " +
	"and check_plagiarism to grade how much of a document is shared with others."

// shutdownTimeout bounds how long RunHTTP waits for open requests on exit.
const shutdownTimeout = 5 * time.Second

// Server serves the search and similarity tools over MCP. Without a settings
// port the settings resource reports the defaults.
type Server struct {
	ports  *Ports
	server *mcp.Server
}

// NewServer validates ports and registers every tool and resource.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	impl := &mcp.Implementation{
		Name:    "resumatch",
		Version: Version,
	}

	s := &Server{
		ports:  ports,
		server: mcp.NewServer(impl, &mcp.ServerOptions{Instructions: instructions}),
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Run serves one client over stdin and stdout until ctx is cancelled or the
// client disconnects.
func (s *Server) Run(ctx context.Context) error {
	logger.Info("MCP server listening on stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Handler returns the streamable HTTP handler; every session shares this server.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)
}

// RunHTTP serves Handler on addr. Cancelling ctx drains open requests for up
// to shutdownTimeout and returns nil.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("MCP HTTP shutdown: %v", err)
		}
	}()

	logger.Info("MCP server listening on http://%s", addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
