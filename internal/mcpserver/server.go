// Package mcpserver exposes the document processor as an MCP tool.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ToolName is the name under which the processor is registered
const ToolName = "document_processor"

const toolDescription = `Process research documents to extract and validate claims.
Actions: "process" extracts claims from a document, "validate" checks one claim
(claimIndex and claim required), "update" rewrites the document with citations or
corrections, "status" reports validation progress.`

// Handler answers a JSON request with the dispatcher's response text
type Handler interface {
	Handle(ctx context.Context, input string) string
}

// Server wraps an MCP server with the document_processor tool registered
type Server struct {
	server  *mcp.Server
	handler Handler
	logger  *slog.Logger
}

// NewServer creates the MCP server for a handler
func NewServer(handler Handler, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "claimcheck",
			Version: version,
		}, nil),
		handler: handler,
		logger:  logger.With("component", "mcp"),
	}
	s.server.AddTool(&mcp.Tool{
		Name:        ToolName,
		Description: toolDescription,
		InputSchema: inputSchema(),
	}, s.handleTool)

	return s
}

// MCP returns the underlying SDK server
func (s *Server) MCP() *mcp.Server {
	return s.server
}

func inputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"action": map[string]any{
				"type":        "string",
				"enum":        []string{"process", "validate", "update", "status"},
				"description": "Action to perform",
			},
			"filePath": map[string]any{
				"type":        "string",
				"description": "Document path relative to the research directory",
			},
			"claimIndex": map[string]any{
				"type":        "number",
				"description": "Index of the claim to validate",
			},
			"claim": map[string]any{
				"type":        "string",
				"description": "Claim text to validate",
			},
		},
		"required": []string{"action", "filePath"},
	}
}

// handleTool forwards the raw arguments to the handler.
// Dispatcher errors are part of the response text, not tool errors.
func (s *Server) handleTool(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.Params.Arguments
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	start := time.Now()
	out := s.handler.Handle(ctx, string(args))
	s.logger.Debug("tool call", "tool", ToolName, "duration", time.Since(start))

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: out}},
	}, nil
}

// ServeStdio runs the server over stdin/stdout until ctx is cancelled
func (s *Server) ServeStdio(ctx context.Context) error {
	s.logger.Info("serving MCP over stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// HTTPHandler returns the streamable HTTP endpoint, with Prometheus metrics
// mounted at metricsPath when it is non-empty.
func (s *Server) HTTPHandler(metricsPath string) http.Handler {
	mux := http.NewServeMux()
	if metricsPath != "" {
		mux.Handle(metricsPath, promhttp.Handler())
	}
	mux.Handle("/", mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil))
	return mux
}

// ServeHTTP listens on addr until ctx is cancelled
func (s *Server) ServeHTTP(ctx context.Context, addr, metricsPath string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.HTTPHandler(metricsPath),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	s.logger.Info("serving MCP over HTTP", "addr", addr, "metrics", metricsPath)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve http: %w", err)
	}
	return nil
}
