package mcp

import "github.com/mark3labs/mcp-go/mcp"

// searchDocumentsTool defines the search_documents MCP tool.
var searchDocumentsTool = mcp.NewTool("search_documents",
	mcp.WithDescription("Search documents in the document management service by name, description, extension, tag or modification date. Returns matching files with download links and metadata."),
	mcp.WithString("token",
		mcp.Description("API token; takes precedence over username"),
	),
	mcp.WithString("username",
		mcp.Description("Username to exchange for an API token"),
	),
	mcp.WithNumber("folder_id",
		mcp.Description("Folder to search below (default 0, the root)"),
	),
	mcp.WithString("type",
		mcp.Description("Search type (default v)"),
		mcp.Enum("v", "a", "o", "h", "s", "d"),
	),
	mcp.WithString("filename",
		mcp.Description("Text to match against file names"),
	),
	mcp.WithString("description",
		mcp.Description("Text to match against file descriptions"),
	),
	mcp.WithArray("extensions",
		mcp.Description("File extensions to include, without the dot"),
		mcp.Items(map[string]any{"type": "string"}),
	),
	mcp.WithArray("tags",
		mcp.Description("Tags the files must carry"),
		mcp.Items(map[string]any{"type": "string"}),
	),
	mcp.WithString("from_date",
		mcp.Description("Only files modified on or after this date (YYYY-MM-DD)"),
	),
	mcp.WithString("to_date",
		mcp.Description("Only files modified on or before this date (YYYY-MM-DD)"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of results to list (default 20)"),
	),
)

// listTagsTool defines the list_tags MCP tool.
var listTagsTool = mcp.NewTool("list_tags",
	mcp.WithDescription("List the document tags visible to the caller with their usage counts."),
	mcp.WithString("token",
		mcp.Description("API token; takes precedence over username"),
	),
	mcp.WithString("username",
		mcp.Description("Username to exchange for an API token"),
	),
)
