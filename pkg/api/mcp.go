package api

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hazyhaar/returns-tracker/pkg/kit"
	"github.com/hazyhaar/returns-tracker/pkg/track"
)

// RegisterMCPTools registers the returns-tracker MCP tools on the server.
// Upload stays HTTP-only: spreadsheet payloads do not belong in tool
// arguments.
func RegisterMCPTools(srv *server.MCPServer, tr *track.Tracker) {
	registerSearch(srv, tr)
	registerRefresh(srv, tr)
	registerDiagnostics(srv, tr)
}

func registerSearch(srv *server.MCPServer, tr *track.Tracker) {
	tool := mcp.NewTool("search_imei",
		mcp.WithDescription("Look up one return/exchange record by device IMEI. Exact match first, substring fallback."),
		mcp.WithString("imei", mcp.Required(), mcp.Description("The IMEI to search for (15+ digits)")),
	)

	kit.RegisterMCPTool(srv, tool, searchEndpoint(tr), func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		args := req.GetArguments()
		query, _ := args["imei"].(string)
		return &kit.MCPDecodeResult{Request: &searchReq{Query: query}}, nil
	})
}

func registerRefresh(srv *server.MCPServer, tr *track.Tracker) {
	tool := mcp.NewTool("refresh_data",
		mcp.WithDescription("Invalidate the payload cache and reload the returns spreadsheet from its source."),
	)

	kit.RegisterMCPTool(srv, tool, refreshEndpoint(tr), func(_ mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: nil}, nil
	})
}

func registerDiagnostics(srv *server.MCPServer, tr *track.Tracker) {
	tool := mcp.NewTool("table_diagnostics",
		mcp.WithDescription("Row count, column list, and sample IMEIs of the currently loaded dataset."),
	)

	kit.RegisterMCPTool(srv, tool, diagnosticsEndpoint(tr), func(_ mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: nil}, nil
	})
}
