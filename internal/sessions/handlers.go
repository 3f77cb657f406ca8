package sessions

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mbd888/shoewatch/internal/outcome"
	"github.com/mbd888/shoewatch/internal/pagination"
	"github.com/mbd888/shoewatch/internal/validation"
)

// Handler provides HTTP endpoints for session tracking
type Handler struct {
	service *Service
}

// NewHandler creates a new sessions handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes sets up session routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/sessions", h.StartSession)
	r.GET("/sessions", h.ListSessions)
	r.GET("/sessions/:id", h.GetSession)
	r.DELETE("/sessions/:id", h.DeleteSession)
	r.POST("/sessions/:id/outcomes", h.RecordOutcome)
	r.DELETE("/sessions/:id/outcomes/last", h.UndoOutcome)
	r.DELETE("/sessions/:id/outcomes", h.ClearSession)
	r.GET("/sessions/:id/analysis", h.GetAnalysis)
}

// StartSessionRequest for creating a session
type StartSessionRequest struct {
	Label string `json:"label"`
}

// StartSession handles POST /sessions
func (h *Handler) StartSession(c *gin.Context) {
	var req StartSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_request",
				"message": "Invalid request body",
			})
			return
		}
	}

	label := validation.SanitizeString(req.Label, validation.MaxLabelLength)
	snap, err := h.service.Start(c.Request.Context(), label)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "start_failed",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, snap)
}

// ListSessions handles GET /sessions
func (h *Handler) ListSessions(c *gin.Context) {
	limit := 20
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	cursor, err := pagination.Decode(c.Query("cursor"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_cursor",
			"message": "Invalid cursor",
		})
		return
	}

	// Fetch one extra row to learn whether another page exists.
	list, err := h.service.List(c.Request.Context(), ListOptions{
		Limit:  limit + 1,
		Cursor: cursor,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "list_failed",
			"message": err.Error(),
		})
		return
	}

	page, next, hasMore := pagination.ComputePage(list, limit, func(s *Session) (time.Time, string) {
		return s.CreatedAt, s.ID
	})

	c.JSON(http.StatusOK, gin.H{
		"sessions":   page,
		"count":      len(page),
		"nextCursor": next,
		"hasMore":    hasMore,
	})
}

// GetSession handles GET /sessions/:id
func (h *Handler) GetSession(c *gin.Context) {
	sess, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": sess})
}

// DeleteSession handles DELETE /sessions/:id
func (h *Handler) DeleteSession(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// RecordOutcomeRequest for appending an outcome
type RecordOutcomeRequest struct {
	Outcome string `json:"outcome" binding:"required"`
}

// RecordOutcome handles POST /sessions/:id/outcomes
func (h *Handler) RecordOutcome(c *gin.Context) {
	var req RecordOutcomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid request body",
		})
		return
	}

	o, err := outcome.Parse(req.Outcome)
	if err != nil {
		respondSessionError(c, err)
		return
	}

	snap, err := h.service.Record(c.Request.Context(), c.Param("id"), o)
	if err != nil {
		respondSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, snap)
}

// UndoOutcome handles DELETE /sessions/:id/outcomes/last
func (h *Handler) UndoOutcome(c *gin.Context) {
	snap, err := h.service.Undo(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, snap)
}

// ClearSession handles DELETE /sessions/:id/outcomes
func (h *Handler) ClearSession(c *gin.Context) {
	snap, err := h.service.Reset(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, snap)
}

// GetAnalysis handles GET /sessions/:id/analysis
func (h *Handler) GetAnalysis(c *gin.Context) {
	snap, err := h.service.Analysis(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, snap)
}

// respondSessionError maps domain errors to HTTP responses.
func respondSessionError(c *gin.Context, err error) {
	var ie *outcome.InvalidError
	switch {
	case errors.Is(err, ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "session_not_found",
			"message": "Session not found",
		})
	case errors.Is(err, ErrEmptyHistory):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "empty_history",
			"message": "Session history is empty",
		})
	case errors.Is(err, ErrHistoryFull):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "history_full",
			"message": "Session history is at capacity",
		})
	case errors.As(err, &ie):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":    "invalid_outcome",
			"message":  ie.Error(),
			"position": ie.Position,
			"value":    ie.Value,
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": err.Error(),
		})
	}
}
