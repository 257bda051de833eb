package mcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/manualview/internal/export"
	"github.com/ziadkadry99/manualview/internal/manual"
	"github.com/ziadkadry99/manualview/internal/qa"
	"github.com/ziadkadry99/manualview/internal/search"
)

// handleListManuals lists manual ids and titles.
func (s *Server) handleListManuals(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.library.Search(ctx, request.GetString("query", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing manuals failed: %v", err)), nil
	}
	if len(list) == 0 {
		return mcp.NewToolResultText("No manuals found. Import converted manuals with `manualview import`."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d manual(s):\n", len(list))
	for _, m := range list {
		fmt.Fprintf(&sb, "- [%d] %s", m.ManualID, m.Title)
		if m.SourcePath != "" {
			fmt.Fprintf(&sb, " (%s)", m.SourcePath)
		}
		sb.WriteString("\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// handleGetManual returns one manual as structured Markdown or wire JSON.
func (s *Server) handleGetManual(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireInt("manual_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: manual_id"), nil
	}

	m, err := s.library.Get(ctx, id)
	if errors.Is(err, manual.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("Manual %d not found. Use list_manuals to see available ids.", id)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load manual %d: %v", id, err)), nil
	}

	switch request.GetString("format", "markdown") {
	case "json":
		var buf bytes.Buffer
		if err := manual.Encode(&buf, m); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encoding manual: %v", err)), nil
		}
		return mcp.NewToolResultText(buf.String()), nil
	case "markdown":
		return mcp.NewToolResultText(export.Markdown(m)), nil
	default:
		return mcp.NewToolResultError("format must be markdown or json"), nil
	}
}

// handleSearchManuals performs semantic search over indexed passages.
func (s *Server) handleSearchManuals(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}
	if s.index == nil || s.index.Count() == 0 {
		return mcp.NewToolResultText("The manuals are not indexed yet. Run `manualview index` to build the search index."), nil
	}

	limit := request.GetInt("limit", 8)
	if limit <= 0 {
		limit = 8
	}
	passages, err := s.index.Search(ctx, query, limit, request.GetInt("manual_id", 0))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	return mcp.NewToolResultText(search.FormatPassages(passages)), nil
}

// handleAskManuals answers a question from the manual library.
func (s *Server) handleAskManuals(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: question"), nil
	}
	if s.asker == nil {
		return mcp.NewToolResultError("AI model is not configured. Set llm.provider in the config file."), nil
	}

	ans, err := s.asker.Ask(ctx, question)
	switch {
	case errors.Is(err, qa.ErrEmptyQuestion):
		return mcp.NewToolResultError("question must not be empty"), nil
	case errors.Is(err, qa.ErrNoProvider):
		return mcp.NewToolResultError("AI model is not configured. Set llm.provider in the config file."), nil
	case err != nil:
		return mcp.NewToolResultError(fmt.Sprintf("failed to get answer: %v", err)), nil
	}

	var sb strings.Builder
	sb.WriteString(ans.Answer)
	if len(ans.Sources) > 0 {
		sb.WriteString("\n\nSources:\n")
		for _, p := range ans.Sources {
			fmt.Fprintf(&sb, "- %s / %s\n", p.ManualTitle, p.TabTitle)
		}
	}
	if ans.Truncated {
		sb.WriteString("\n(The manual library was truncated to fit the model context.)\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}
