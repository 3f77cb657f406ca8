package mcpserver

import "github.com/mark3labs/mcp-go/mcp"

// Tool definitions for the shoewatch MCP server.
// Descriptions are what the LLM reads to decide which tool to use.

var ToolAnalyzeHistory = mcp.NewTool("analyze_history",
	mcp.WithDescription(
		"Analyze a baccarat outcome history for suspicious patterns, risk, and manipulation signals. "+
			"Nothing is stored; the full report comes back in one call. "+
			"Use a tracked session instead when outcomes arrive one at a time."),
	mcp.WithString("history",
		mcp.Required(),
		mcp.Description("The outcome history, either as compact letters ('PPBTB', P=player, B=banker, T=tie) "+
			"or as comma-separated words ('player,banker,tie')")),
)

var ToolStartSession = mcp.NewTool("start_session",
	mcp.WithDescription(
		"Start a new tracked shoe session. Returns the session ID to use with "+
			"record_outcome, undo_outcome, clear_session, and get_analysis. "+
			"Each recorded outcome triggers a fresh analysis of the whole shoe."),
	mcp.WithString("label",
		mcp.Description("Optional human-readable label for the session (e.g. 'table 7 evening')")),
)

var ToolRecordOutcome = mcp.NewTool("record_outcome",
	mcp.WithDescription(
		"Record one resolved round in a tracked session and get the updated analysis. "+
			"The report covers the entire shoe so far: patterns, risk, manipulation, and the next-round call."),
	mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("The session ID from start_session")),
	mcp.WithString("outcome",
		mcp.Required(),
		mcp.Description("The round's result: 'player', 'banker', or 'tie' (single letters P/B/T also work)"),
		mcp.Enum("player", "banker", "tie")),
)

var ToolUndoOutcome = mcp.NewTool("undo_outcome",
	mcp.WithDescription(
		"Remove the most recently recorded outcome from a session (e.g. after a data-entry mistake) "+
			"and get the re-run analysis."),
	mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("The session ID from start_session")),
)

var ToolClearSession = mcp.NewTool("clear_session",
	mcp.WithDescription(
		"Reset a session's history to empty, e.g. when a new shoe starts at the same table. "+
			"The session itself survives and keeps its ID."),
	mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("The session ID from start_session")),
)

var ToolGetAnalysis = mcp.NewTool("get_analysis",
	mcp.WithDescription(
		"Get the current analysis for a tracked session without recording anything: "+
			"detected patterns, risk and manipulation scores, and the advisory next-round call."),
	mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("The session ID from start_session")),
)

var ToolListSessions = mcp.NewTool("list_sessions",
	mcp.WithDescription(
		"List tracked shoe sessions, newest first, with their labels and round counts. "+
			"Use this to find a session ID you lost track of."),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of sessions to return (default 20)")),
)
