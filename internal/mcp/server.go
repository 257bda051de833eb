// Package mcp exposes the manual library to AI agents over the Model
// Context Protocol.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/manualview/internal/manual"
	"github.com/ziadkadry99/manualview/internal/qa"
	"github.com/ziadkadry99/manualview/internal/search"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Library lists and loads manuals.
type Library interface {
	Search(ctx context.Context, q string) ([]manual.Summary, error)
	Get(ctx context.Context, id int) (*manual.Manual, error)
}

// Asker answers questions about the library.
type Asker interface {
	Ask(ctx context.Context, question string) (*qa.Answer, error)
}

// Server wraps an MCP server that exposes manual tools.
type Server struct {
	library Library
	index   *search.Index
	asker   Asker
	mcp     *server.MCPServer
}

// NewServer creates a new MCP server. index and asker may be nil, in which
// case the tools that need them report that they are unavailable.
func NewServer(library Library, index *search.Index, asker Asker) *Server {
	s := &Server{
		library: library,
		index:   index,
		asker:   asker,
	}

	s.mcp = server.NewMCPServer(
		"manualview",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(listManualsTool, s.handleListManuals)
	s.mcp.AddTool(getManualTool, s.handleGetManual)
	s.mcp.AddTool(searchManualsTool, s.handleSearchManuals)
	s.mcp.AddTool(askManualsTool, s.handleAskManuals)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
