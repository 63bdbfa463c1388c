// Package mcp exposes the store as Model Context Protocol tools.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterTools registers every novelbit tool with s.
func RegisterTools(s *server.MCPServer, h *HandlerSet) {
	s.AddTool(mcp.NewTool("compute_fingerprint",
		mcp.WithDescription("Compute the (max, min) fingerprint of a text"),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Text to fingerprint; may be empty")),
	), h.HandleComputeFingerprint)

	s.AddTool(mcp.NewTool("search_attributes",
		mcp.WithDescription("Rank stored attribute paths by fingerprint proximity and text similarity"),
		mcp.WithString("query",
			mcp.Description("Approximate attribute path or fragment")),
		mcp.WithString("keywords",
			mcp.Description("Comma-separated keywords that must all appear in a result")),
		mcp.WithNumber("limit",
			mcp.Description("Maximum results (default: 50)")),
	), h.HandleSearchAttributes)

	s.AddTool(mcp.NewTool("list_data",
		mcp.WithDescription("List records stored under an attribute path, most recent first"),
		mcp.WithString("attribute_path",
			mcp.Required(),
			mcp.Description(`Attribute path, segments joined by " → "`)),
		mcp.WithNumber("limit",
			mcp.Description("Maximum records (default: 100)")),
	), h.HandleListData)

	s.AddTool(mcp.NewTool("save_data",
		mcp.WithDescription("Save text under an attribute path; identical text is reported as a duplicate"),
		mcp.WithString("attribute_path",
			mcp.Required(),
			mcp.Description(`Attribute path, segments joined by " → "`)),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Content to store")),
		mcp.WithObject("metadata",
			mcp.Description("Free-form metadata stored with the record")),
	), h.HandleSaveData)

	s.AddTool(mcp.NewTool("delete_data",
		mcp.WithDescription("Delete one record by text, or the whole attribute when text is omitted"),
		mcp.WithString("attribute_path",
			mcp.Required(),
			mcp.Description(`Attribute path, segments joined by " → "`)),
		mcp.WithString("text",
			mcp.Description("Record text; omit to delete the attribute and all its records")),
	), h.HandleDeleteData)

	s.AddTool(mcp.NewTool("get_stats",
		mcp.WithDescription("Count stored attributes, records and attributes without records"),
	), h.HandleGetStats)
}
