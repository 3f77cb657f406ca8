package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mbd888/shoewatch/internal/analysis"
	"github.com/mbd888/shoewatch/internal/outcome"
)

// Handlers holds the handler functions for each MCP tool.
type Handlers struct {
	client *ShoewatchClient
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(client *ShoewatchClient) *Handlers {
	return &Handlers{client: client}
}

// HandleAnalyzeHistory runs the stateless engine over a caller-supplied history.
func (h *Handlers) HandleAnalyzeHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	history := req.GetString("history", "")
	if history == "" {
		return mcp.NewToolResultError("history is required"), nil
	}

	// Parse locally first: an invalid symbol gets reported with its position
	// without a round-trip, and the parsed sequence feeds the report header.
	parsed, err := outcome.ParseSequence(history)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid history: %v", err)), nil
	}

	raw, err := h.client.AnalyzeHistory(ctx, history)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Analysis failed: %v", err)), nil
	}

	var payload struct {
		Rounds int              `json:"rounds"`
		Result *analysis.Result `json:"result"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Result == nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse analysis: %v", err)), nil
	}

	return mcp.NewToolResultText(analysis.RenderReport(parsed, payload.Result)), nil
}

// HandleStartSession creates a new tracked session.
func (h *Handlers) HandleStartSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	label := req.GetString("label", "")

	raw, err := h.client.StartSession(ctx, label)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to start session: %v", err)), nil
	}

	snap, err := parseSnapshot(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse session: %v", err)), nil
	}

	var sb strings.Builder
	sb.WriteString("Session started.\n")
	fmt.Fprintf(&sb, "Session ID: %s\n", snap.Session.ID)
	if snap.Session.Label != "" {
		fmt.Fprintf(&sb, "Label: %s\n", snap.Session.Label)
	}
	sb.WriteString("\nRecord rounds with record_outcome as they resolve.")

	return mcp.NewToolResultText(sb.String()), nil
}

// HandleRecordOutcome appends one outcome and returns the fresh analysis.
func (h *Handlers) HandleRecordOutcome(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := req.GetString("session_id", "")
	if sessionID == "" {
		return mcp.NewToolResultError("session_id is required"), nil
	}
	outcomeStr := req.GetString("outcome", "")
	if outcomeStr == "" {
		return mcp.NewToolResultError("outcome is required"), nil
	}

	raw, err := h.client.RecordOutcome(ctx, sessionID, outcomeStr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to record outcome: %v", err)), nil
	}

	return snapshotResult(raw)
}

// HandleUndoOutcome removes the most recent outcome.
func (h *Handlers) HandleUndoOutcome(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := req.GetString("session_id", "")
	if sessionID == "" {
		return mcp.NewToolResultError("session_id is required"), nil
	}

	raw, err := h.client.UndoOutcome(ctx, sessionID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to undo: %v", err)), nil
	}

	snap, err := parseSnapshot(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse snapshot: %v", err)), nil
	}

	return mcp.NewToolResultText("Last outcome removed.\n\n" + formatSnapshot(snap)), nil
}

// HandleClearSession resets a session's history.
func (h *Handlers) HandleClearSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := req.GetString("session_id", "")
	if sessionID == "" {
		return mcp.NewToolResultError("session_id is required"), nil
	}

	raw, err := h.client.ClearSession(ctx, sessionID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to clear session: %v", err)), nil
	}

	snap, err := parseSnapshot(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse snapshot: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Session %s cleared. History is empty; the session keeps its ID for the next shoe.",
		snap.Session.ID)), nil
}

// HandleGetAnalysis returns the current analysis without recording anything.
func (h *Handlers) HandleGetAnalysis(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := req.GetString("session_id", "")
	if sessionID == "" {
		return mcp.NewToolResultError("session_id is required"), nil
	}

	raw, err := h.client.GetAnalysis(ctx, sessionID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get analysis: %v", err)), nil
	}

	return snapshotResult(raw)
}

// HandleListSessions lists tracked sessions.
func (h *Handlers) HandleListSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 20)

	raw, err := h.client.ListSessions(ctx, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list sessions: %v", err)), nil
	}

	text, err := formatSessionList(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse sessions: %v", err)), nil
	}

	return mcp.NewToolResultText(text), nil
}

// --- Formatting helpers ---

// snapshotPayload mirrors the {session, analysis} body every session
// mutation returns.
type snapshotPayload struct {
	Session struct {
		ID        string            `json:"id"`
		Label     string            `json:"label"`
		Outcomes  []outcome.Outcome `json:"outcomes"`
		UpdatedAt time.Time         `json:"updatedAt"`
	} `json:"session"`
	Analysis *analysis.Result `json:"analysis"`
}

func parseSnapshot(raw json.RawMessage) (*snapshotPayload, error) {
	var snap snapshotPayload
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, err
	}
	if snap.Session.ID == "" {
		return nil, fmt.Errorf("no session in response")
	}
	return &snap, nil
}

func formatSnapshot(snap *snapshotPayload) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "session: %s", snap.Session.ID)
	if snap.Session.Label != "" {
		fmt.Fprintf(&sb, " (%s)", snap.Session.Label)
	}
	sb.WriteString("\n")
	if snap.Analysis != nil {
		sb.WriteString(analysis.RenderReport(snap.Session.Outcomes, snap.Analysis))
	}
	return sb.String()
}

func snapshotResult(raw json.RawMessage) (*mcp.CallToolResult, error) {
	snap, err := parseSnapshot(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse snapshot: %v", err)), nil
	}
	return mcp.NewToolResultText(formatSnapshot(snap)), nil
}

func formatSessionList(raw json.RawMessage) (string, error) {
	var resp struct {
		Sessions []struct {
			ID        string            `json:"id"`
			Label     string            `json:"label"`
			Outcomes  []outcome.Outcome `json:"outcomes"`
			UpdatedAt time.Time         `json:"updatedAt"`
		} `json:"sessions"`
		HasMore bool `json:"hasMore"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("unexpected sessions response format")
	}

	if len(resp.Sessions) == 0 {
		return "No sessions found. Use start_session to begin tracking a shoe.", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d session(s):\n\n", len(resp.Sessions))
	for i, s := range resp.Sessions {
		fmt.Fprintf(&sb, "%d. %s", i+1, s.ID)
		if s.Label != "" {
			fmt.Fprintf(&sb, " (%s)", s.Label)
		}
		fmt.Fprintf(&sb, "\n   %d rounds, updated %s\n", len(s.Outcomes), s.UpdatedAt.UTC().Format("2006-01-02 15:04 UTC"))
	}
	if resp.HasMore {
		sb.WriteString("\nMore sessions exist; raise limit to see them.")
	}
	return sb.String(), nil
}
