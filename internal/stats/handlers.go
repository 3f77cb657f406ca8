// Package stats provides JSON API endpoints for cross-session analytics.
//
// Nothing here is precomputed: every request re-runs the analysis engine
// over the stored histories it aggregates. The engine is pure and cheap, so
// the numbers are always consistent with what each session's own analysis
// endpoint would report.
package stats

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mbd888/shoewatch/internal/analysis"
	"github.com/mbd888/shoewatch/internal/outcome"
	"github.com/mbd888/shoewatch/internal/sessions"
)

// scanLimit caps how many recent sessions one stats request re-analyzes.
const scanLimit = 500

// Handler provides stats API endpoints.
type Handler struct {
	store sessions.Store
}

// NewHandler creates a new stats handler.
func NewHandler(store sessions.Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes sets up stats routes under the given group.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/stats/overview", h.Overview)
	r.GET("/stats/patterns", h.Patterns)
}

// highRiskEntry is one row of the overview's high-risk session list.
type highRiskEntry struct {
	ID                string            `json:"id"`
	Label             string            `json:"label,omitempty"`
	Rounds            int               `json:"rounds"`
	RiskScore         int               `json:"riskScore"`
	RiskLevel         analysis.Tier     `json:"riskLevel"`
	ManipulationScore int               `json:"manipulationScore"`
	Strategy          analysis.Strategy `json:"strategy"`
}

// Overview returns outcome totals, the risk-level histogram, and the
// highest-risk sessions across recent shoes.
func (h *Handler) Overview(c *gin.Context) {
	ctx := c.Request.Context()
	limit := parseLimit(c, 10, 50)

	list, err := h.store.List(ctx, sessions.ListOptions{Limit: scanLimit})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	var rounds, player, banker, tie int
	riskLevels := map[analysis.Tier]int{
		analysis.TierLow:      0,
		analysis.TierMedium:   0,
		analysis.TierHigh:     0,
		analysis.TierCritical: 0,
	}
	var high []highRiskEntry

	for _, s := range list {
		p, b, t := outcome.Counts(s.Outcomes)
		player += p
		banker += b
		tie += t
		rounds += len(s.Outcomes)

		result, err := analysis.Analyze(s.Outcomes)
		if err != nil {
			// Stored histories are validated on write; skip rather than fail.
			continue
		}
		riskLevels[result.Risk.Level]++

		if result.Risk.Level == analysis.TierHigh || result.Risk.Level == analysis.TierCritical {
			high = append(high, highRiskEntry{
				ID:                s.ID,
				Label:             s.Label,
				Rounds:            s.Rounds(),
				RiskScore:         result.Risk.Score,
				RiskLevel:         result.Risk.Level,
				ManipulationScore: result.Manipulation.Score,
				Strategy:          result.Prediction.Strategy,
			})
		}
	}

	sort.SliceStable(high, func(i, j int) bool { return high[i].RiskScore > high[j].RiskScore })
	if len(high) > limit {
		high = high[:limit]
	}
	if high == nil {
		high = []highRiskEntry{}
	}

	c.JSON(http.StatusOK, gin.H{
		"sessions": len(list),
		"rounds":   rounds,
		"outcomes": gin.H{
			"player": player,
			"banker": banker,
			"tie":    tie,
		},
		"riskLevels": riskLevels,
		"highRisk":   high,
	})
}

// Patterns returns per-kind pattern counts across recent sessions.
func (h *Handler) Patterns(c *gin.Context) {
	ctx := c.Request.Context()
	limit := parseLimit(c, 100, scanLimit)

	list, err := h.store.List(ctx, sessions.ListOptions{Limit: limit})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	counts := map[analysis.Kind]int{}
	total := 0
	flagged := 0

	for _, s := range list {
		result, err := analysis.Analyze(s.Outcomes)
		if err != nil {
			continue
		}
		if len(result.Patterns) > 0 {
			flagged++
		}
		for _, p := range result.Patterns {
			counts[p.Kind()]++
			total++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"sessions":        len(list),
		"flaggedSessions": flagged,
		"patterns":        counts,
		"totalPatterns":   total,
	})
}

func parseLimit(c *gin.Context, defaultVal, maxVal int) int {
	limit := defaultVal
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxVal {
		limit = maxVal
	}
	return limit
}
