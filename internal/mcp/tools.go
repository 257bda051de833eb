package mcp

import "github.com/mark3labs/mcp-go/mcp"

// listManualsTool defines the list_manuals MCP tool.
var listManualsTool = mcp.NewTool("list_manuals",
	mcp.WithDescription("List the installation manuals in the library, optionally filtered by title."),
	mcp.WithString("query",
		mcp.Description("Case-insensitive substring of the manual title"),
	),
)

// getManualTool defines the get_manual MCP tool.
var getManualTool = mcp.NewTool("get_manual",
	mcp.WithDescription("Get the full content of one manual: features, requirements, installation steps and usage."),
	mcp.WithNumber("manual_id",
		mcp.Required(),
		mcp.Description("Manual id as returned by list_manuals"),
	),
	mcp.WithString("format",
		mcp.Description("Output format (default markdown)"),
		mcp.Enum("markdown", "json"),
	),
)

// searchManualsTool defines the search_manuals MCP tool.
var searchManualsTool = mcp.NewTool("search_manuals",
	mcp.WithDescription("Search manual steps, lists and usage text semantically."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language search query"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of passages to return (default 8)"),
	),
	mcp.WithNumber("manual_id",
		mcp.Description("Restrict results to one manual"),
	),
)

// askManualsTool defines the ask_manuals MCP tool.
var askManualsTool = mcp.NewTool("ask_manuals",
	mcp.WithDescription("Ask a question about the products in the library. The answer is generated from the manuals only."),
	mcp.WithString("question",
		mcp.Required(),
		mcp.Description("The user's question"),
	),
)
