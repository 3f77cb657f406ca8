package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mbd888/shoewatch/internal/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testConfig returns a minimal config for testing
func testConfig() *config.Config {
	return &config.Config{
		Port:                       "0",
		Env:                        "development",
		LogLevel:                   "error",
		SessionMaxOutcomes:         416,
		AlertRiskThreshold:         55,
		AlertManipulationThreshold: 60,
		RateLimitRPM:               600,
		CORSOrigins:                []string{"*"},
	}
}

// newTestServer creates a server backed by in-memory stores
func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := New(testConfig())
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	return s
}

// ---------------------------------------------------------------------------
// Health endpoint tests
// ---------------------------------------------------------------------------

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/health", nil)
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if resp["status"] != "healthy" {
		t.Errorf("Expected status 'healthy', got %v", resp["status"])
	}
}

func TestLivenessEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/health/live", nil)
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
}

func TestReadinessEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/health/ready", nil)
	s.router.ServeHTTP(w, req)

	// Server hasn't called Run() so ready is false
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 (not ready), got %d", w.Code)
	}
}

// ---------------------------------------------------------------------------
// Route registration tests
// ---------------------------------------------------------------------------

func TestSessionRoutesRegistered(t *testing.T) {
	s := newTestServer(t)

	routes := s.router.Routes()
	sessionRoutes := map[string]bool{
		"POST:/v1/sessions":                     false,
		"GET:/v1/sessions":                      false,
		"GET:/v1/sessions/:id":                  false,
		"DELETE:/v1/sessions/:id":               false,
		"POST:/v1/sessions/:id/outcomes":        false,
		"DELETE:/v1/sessions/:id/outcomes/last": false,
		"DELETE:/v1/sessions/:id/outcomes":      false,
		"GET:/v1/sessions/:id/analysis":         false,
	}

	for _, route := range routes {
		key := route.Method + ":" + route.Path
		if _, ok := sessionRoutes[key]; ok {
			sessionRoutes[key] = true
		}
	}

	for route, found := range sessionRoutes {
		if !found {
			t.Errorf("Session route %s not registered", route)
		}
	}
}

func TestCoreRoutesRegistered(t *testing.T) {
	s := newTestServer(t)

	routes := s.router.Routes()
	expected := []string{
		"GET:/health",
		"GET:/health/live",
		"GET:/health/ready",
		"GET:/metrics",
		"GET:/",
		"GET:/ws",
		"GET:/api",
		"POST:/v1/analyze",
		"POST:/v1/alerts",
		"GET:/v1/alerts",
		"GET:/v1/alerts/:id",
		"DELETE:/v1/alerts/:id",
		"POST:/v1/alerts/:id/test",
		"GET:/v1/stats/overview",
		"GET:/v1/stats/patterns",
	}

	routeSet := make(map[string]bool)
	for _, route := range routes {
		routeSet[route.Method+":"+route.Path] = true
	}

	for _, e := range expected {
		if !routeSet[e] {
			t.Errorf("Core route %s not registered", e)
		}
	}
}

// ---------------------------------------------------------------------------
// Board page test
// ---------------------------------------------------------------------------

func TestBoardEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 for board page, got %d", w.Code)
	}

	if !strings.HasPrefix(w.Header().Get("Content-Type"), "text/html") {
		t.Errorf("Expected HTML Content-Type, got %q", w.Header().Get("Content-Type"))
	}

	if !strings.Contains(w.Body.String(), "Shoewatch") {
		t.Error("Expected board page to contain the app name")
	}
}

// ---------------------------------------------------------------------------
// Stateless analyze test
// ---------------------------------------------------------------------------

func TestAnalyzeEndpoint(t *testing.T) {
	s := newTestServer(t)

	body := `{"history":"PPBBPPBB"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/v1/analyze", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if resp["rounds"] != float64(8) {
		t.Errorf("Expected 8 rounds, got %v", resp["rounds"])
	}

	result, ok := resp["result"].(map[string]interface{})
	if !ok {
		t.Fatal("Expected result object in response")
	}
	for _, key := range []string{"patterns", "risk", "manipulation", "prediction"} {
		if _, ok := result[key]; !ok {
			t.Errorf("Expected %q in analysis result", key)
		}
	}
}

func TestAnalyzeEndpointInvalidOutcome(t *testing.T) {
	s := newTestServer(t)

	body := `{"history":"PPXB"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/v1/analyze", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if resp["error"] != "invalid_outcome" {
		t.Errorf("Expected invalid_outcome error, got %v", resp["error"])
	}
	if resp["position"] != float64(2) {
		t.Errorf("Expected position 2, got %v", resp["position"])
	}
}

// ---------------------------------------------------------------------------
// Session record flow test
// ---------------------------------------------------------------------------

func TestSessionRecordFlow(t *testing.T) {
	s := newTestServer(t)

	// Start a session
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/v1/sessions", strings.NewReader(`{"label":"table 7"}`))
	req.Header.Set("Content-Type", "application/json")
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var snap map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("Failed to parse snapshot: %v", err)
	}

	sess, ok := snap["session"].(map[string]interface{})
	if !ok {
		t.Fatal("Expected session object in snapshot")
	}
	id, _ := sess["id"].(string)
	if id == "" {
		t.Fatal("Expected session id in snapshot")
	}

	// Record two outcomes
	recordOutcome := func(val string) map[string]interface{} {
		t.Helper()
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/v1/sessions/"+id+"/outcomes", strings.NewReader(`{"outcome":"`+val+`"}`))
		req.Header.Set("Content-Type", "application/json")
		s.router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("Record %q: expected 200, got %d: %s", val, w.Code, w.Body.String())
		}
		var out map[string]interface{}
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("Failed to parse snapshot: %v", err)
		}
		return out
	}

	recordOutcome("P")
	out := recordOutcome("banker")

	outcomes := out["session"].(map[string]interface{})["outcomes"].([]interface{})
	if len(outcomes) != 2 {
		t.Fatalf("Expected 2 outcomes, got %d", len(outcomes))
	}
	if outcomes[0] != "player" || outcomes[1] != "banker" {
		t.Errorf("Unexpected outcomes: %v", outcomes)
	}

	// Undo the last outcome
	w = httptest.NewRecorder()
	req = httptest.NewRequest("DELETE", "/v1/sessions/"+id+"/outcomes/last", nil)
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Undo: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("Failed to parse snapshot: %v", err)
	}
	outcomes = snap["session"].(map[string]interface{})["outcomes"].([]interface{})
	if len(outcomes) != 1 {
		t.Fatalf("Expected 1 outcome after undo, got %d", len(outcomes))
	}

	// Clear the history
	w = httptest.NewRecorder()
	req = httptest.NewRequest("DELETE", "/v1/sessions/"+id+"/outcomes", nil)
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Clear: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("Failed to parse snapshot: %v", err)
	}
	outcomes = snap["session"].(map[string]interface{})["outcomes"].([]interface{})
	if len(outcomes) != 0 {
		t.Fatalf("Expected empty history after clear, got %d outcomes", len(outcomes))
	}
}

func TestSessionNotFound(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/v1/sessions/ses_missing/analysis", nil)
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}

// ---------------------------------------------------------------------------
// 404 test
// ---------------------------------------------------------------------------

func TestNotFoundRoute(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/v1/nonexistent", nil)
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}
