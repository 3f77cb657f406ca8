package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer creates a configured MCP server with all shoewatch tools registered.
func NewMCPServer(cfg Config) *server.MCPServer {
	s := server.NewMCPServer("shoewatch", "1.0.0")
	client := NewShoewatchClient(cfg)
	h := NewHandlers(client)

	s.AddTool(ToolAnalyzeHistory, h.HandleAnalyzeHistory)
	s.AddTool(ToolStartSession, h.HandleStartSession)
	s.AddTool(ToolRecordOutcome, h.HandleRecordOutcome)
	s.AddTool(ToolUndoOutcome, h.HandleUndoOutcome)
	s.AddTool(ToolClearSession, h.HandleClearSession)
	s.AddTool(ToolGetAnalysis, h.HandleGetAnalysis)
	s.AddTool(ToolListSessions, h.HandleListSessions)

	return s
}
