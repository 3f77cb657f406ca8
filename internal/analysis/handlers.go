package analysis

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mbd888/shoewatch/internal/metrics"
	"github.com/mbd888/shoewatch/internal/outcome"
)

// Handler exposes the stateless engine over HTTP. Session-backed analysis
// lives in the sessions package; this endpoint analyzes whatever history the
// caller sends, nothing is stored.
type Handler struct{}

// NewHandler creates an analysis handler.
func NewHandler() *Handler {
	return &Handler{}
}

// RegisterRoutes sets up analysis routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/analyze", h.Analyze)
}

// AnalyzeRequest carries a history either as a list of outcome words or as a
// compact letter string ("PPBTB"). Exactly one of the two should be set.
type AnalyzeRequest struct {
	Outcomes []string `json:"outcomes"`
	History  string   `json:"history"`
}

// Analyze handles POST /analyze.
func (h *Handler) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid request body",
		})
		return
	}
	if len(req.Outcomes) > 0 && req.History != "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Set either outcomes or history, not both",
		})
		return
	}

	history, err := parseHistory(req)
	if err != nil {
		respondInvalidOutcome(c, err)
		return
	}

	start := time.Now()
	result, err := Analyze(history)
	if err != nil {
		respondInvalidOutcome(c, err)
		return
	}
	metrics.ObserveAnalysis(start, string(result.Risk.Level), patternKinds(result.Patterns))

	c.JSON(http.StatusOK, gin.H{
		"rounds": len(history),
		"result": result,
	})
}

func parseHistory(req AnalyzeRequest) ([]outcome.Outcome, error) {
	if req.History != "" {
		return outcome.ParseSequence(req.History)
	}
	history := make([]outcome.Outcome, 0, len(req.Outcomes))
	for i, s := range req.Outcomes {
		o, err := outcome.Parse(s)
		if err != nil {
			return nil, &outcome.InvalidError{Position: i, Value: s}
		}
		history = append(history, o)
	}
	return history, nil
}

func patternKinds(patterns []Pattern) []string {
	kinds := make([]string, len(patterns))
	for i, p := range patterns {
		kinds[i] = string(p.Kind())
	}
	return kinds
}

func respondInvalidOutcome(c *gin.Context, err error) {
	var ie *outcome.InvalidError
	if errors.As(err, &ie) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":    "invalid_outcome",
			"message":  ie.Error(),
			"position": ie.Position,
			"value":    ie.Value,
		})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "invalid_request",
		"message": err.Error(),
	})
}
