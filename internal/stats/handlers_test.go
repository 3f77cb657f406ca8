package stats

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/mbd888/shoewatch/internal/outcome"
	"github.com/mbd888/shoewatch/internal/sessions"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// setupTestHandler creates a handler over an empty in-memory session store.
func setupTestHandler() (*Handler, sessions.Store) {
	store := sessions.NewMemoryStore(0)
	return NewHandler(store), store
}

// seedSession stores a session with the given letter history.
func seedSession(t *testing.T, store sessions.Store, id, letters string) {
	t.Helper()

	seq, err := outcome.ParseSequence(letters)
	if err != nil {
		t.Fatalf("Bad test history %q: %v", letters, err)
	}
	now := time.Now()
	if err := store.Create(context.Background(), &sessions.Session{
		ID:        id,
		Outcomes:  seq,
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
}

// makeRequest calls the handler with an optional query string.
func makeRequest(t *testing.T, handler gin.HandlerFunc, query string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/test"+query, nil)
	handler(c)
	return w
}

// --- Overview endpoint ---

func TestOverview_AggregatesAcrossSessions(t *testing.T) {
	handler, store := setupTestHandler()

	// One programmed-looking shoe, two quiet ones.
	seedSession(t, store, "ses_hot", "PPBBPP")
	seedSession(t, store, "ses_quiet", "PB")
	seedSession(t, store, "ses_ties", "PTB")

	w := makeRequest(t, handler.Overview, "")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)

	assert.Equal(t, float64(3), resp["sessions"])
	assert.Equal(t, float64(11), resp["rounds"])

	outcomes := resp["outcomes"].(map[string]interface{})
	assert.Equal(t, float64(6), outcomes["player"])
	assert.Equal(t, float64(4), outcomes["banker"])
	assert.Equal(t, float64(1), outcomes["tie"])

	riskLevels := resp["riskLevels"].(map[string]interface{})
	assert.Equal(t, float64(2), riskLevels["low"])
	assert.Equal(t, float64(1), riskLevels["high"])
	assert.Equal(t, float64(0), riskLevels["critical"])

	high := resp["highRisk"].([]interface{})
	assert.Equal(t, 1, len(high))
	entry := high[0].(map[string]interface{})
	assert.Equal(t, "ses_hot", entry["id"])
	assert.Equal(t, float64(6), entry["rounds"])
	assert.Equal(t, float64(70), entry["riskScore"])
	assert.Equal(t, "high", entry["riskLevel"])
}

func TestOverview_EmptyStore_ReturnsZeroValues(t *testing.T) {
	handler, _ := setupTestHandler()

	w := makeRequest(t, handler.Overview, "")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)

	assert.Equal(t, float64(0), resp["sessions"])
	assert.Equal(t, float64(0), resp["rounds"])

	// highRisk must be an empty array, not null.
	high, ok := resp["highRisk"].([]interface{})
	assert.True(t, ok)
	assert.Equal(t, 0, len(high))
}

func TestOverview_LimitsHighRiskList(t *testing.T) {
	handler, store := setupTestHandler()

	seedSession(t, store, "ses_1", "PPBBPP")
	seedSession(t, store, "ses_2", "PPBBPP")
	seedSession(t, store, "ses_3", "PPBBPP")

	w := makeRequest(t, handler.Overview, "?limit=2")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)

	high := resp["highRisk"].([]interface{})
	assert.Equal(t, 2, len(high))

	riskLevels := resp["riskLevels"].(map[string]interface{})
	assert.Equal(t, float64(3), riskLevels["high"])
}

// --- Patterns endpoint ---

func TestPatterns_CountsByKind(t *testing.T) {
	handler, store := setupTestHandler()

	seedSession(t, store, "ses_1", "PPBBPP")
	seedSession(t, store, "ses_2", "PPBBPP")
	seedSession(t, store, "ses_3", "PB")

	w := makeRequest(t, handler.Patterns, "")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)

	assert.Equal(t, float64(3), resp["sessions"])
	assert.Equal(t, float64(2), resp["flaggedSessions"])
	assert.Equal(t, float64(2), resp["totalPatterns"])

	patterns := resp["patterns"].(map[string]interface{})
	assert.Equal(t, float64(2), patterns["micro_double_pattern"])
}

func TestPatterns_EmptyStore(t *testing.T) {
	handler, _ := setupTestHandler()

	w := makeRequest(t, handler.Patterns, "")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)

	assert.Equal(t, float64(0), resp["sessions"])
	assert.Equal(t, float64(0), resp["totalPatterns"])
}

// --- parseLimit helper ---

func TestParseLimit_DefaultAndCustom(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected int
	}{
		{"no query", "", 10},
		{"custom value", "limit=25", 25},
		{"caps at max", "limit=200", 100},
		{"invalid", "limit=abc", 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("GET", "/test?"+tt.query, nil)

			result := parseLimit(c, 10, 100)
			assert.Equal(t, tt.expected, result)
		})
	}
}
