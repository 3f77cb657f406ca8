package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Config holds the configuration for connecting to a shoewatch server.
type Config struct {
	APIURL string // Base URL, e.g. "http://localhost:8080"
}

// ShoewatchClient is a pure HTTP client for the shoewatch API.
type ShoewatchClient struct {
	cfg        Config
	httpClient *http.Client
}

// NewShoewatchClient creates a new client for the shoewatch API.
func NewShoewatchClient(cfg Config) *ShoewatchClient {
	return &ShoewatchClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// apiError represents an error response from the server.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// doRequest makes an HTTP request to the server and returns the response body.
func (c *ShoewatchClient) doRequest(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	u, err := url.Parse(c.cfg.APIURL + path)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, apiErr.Message)
		}
		return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody))
	}

	return json.RawMessage(respBody), nil
}

// AnalyzeHistory runs the stateless engine over a history string.
func (c *ShoewatchClient) AnalyzeHistory(ctx context.Context, history string) (json.RawMessage, error) {
	body := map[string]string{
		"history": history,
	}
	return c.doRequest(ctx, http.MethodPost, "/v1/analyze", nil, body)
}

// StartSession creates a new tracked session.
func (c *ShoewatchClient) StartSession(ctx context.Context, label string) (json.RawMessage, error) {
	body := map[string]string{}
	if label != "" {
		body["label"] = label
	}
	return c.doRequest(ctx, http.MethodPost, "/v1/sessions", nil, body)
}

// RecordOutcome appends one outcome to a session and returns the fresh snapshot.
func (c *ShoewatchClient) RecordOutcome(ctx context.Context, sessionID, outcomeStr string) (json.RawMessage, error) {
	path := "/v1/sessions/" + sessionID + "/outcomes"
	body := map[string]string{
		"outcome": outcomeStr,
	}
	return c.doRequest(ctx, http.MethodPost, path, nil, body)
}

// UndoOutcome removes the most recent outcome from a session.
func (c *ShoewatchClient) UndoOutcome(ctx context.Context, sessionID string) (json.RawMessage, error) {
	path := "/v1/sessions/" + sessionID + "/outcomes/last"
	return c.doRequest(ctx, http.MethodDelete, path, nil, nil)
}

// ClearSession resets a session's history to empty.
func (c *ShoewatchClient) ClearSession(ctx context.Context, sessionID string) (json.RawMessage, error) {
	path := "/v1/sessions/" + sessionID + "/outcomes"
	return c.doRequest(ctx, http.MethodDelete, path, nil, nil)
}

// GetAnalysis returns the current snapshot for a session.
func (c *ShoewatchClient) GetAnalysis(ctx context.Context, sessionID string) (json.RawMessage, error) {
	path := "/v1/sessions/" + sessionID + "/analysis"
	return c.doRequest(ctx, http.MethodGet, path, nil, nil)
}

// ListSessions lists tracked sessions, newest first.
func (c *ShoewatchClient) ListSessions(ctx context.Context, limit int) (json.RawMessage, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return c.doRequest(ctx, http.MethodGet, "/v1/sessions", q, nil)
}
