package alerts

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mbd888/shoewatch/internal/idgen"
	"github.com/mbd888/shoewatch/internal/validation"
)

// Handler provides HTTP endpoints for alert subscription management
type Handler struct {
	store      Store
	dispatcher *Dispatcher
}

// NewHandler creates a new alert handler
func NewHandler(store Store, dispatcher *Dispatcher) *Handler {
	return &Handler{
		store:      store,
		dispatcher: dispatcher,
	}
}

// RegisterRoutes sets up alert routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/alerts", h.CreateAlert)
	r.GET("/alerts", h.ListAlerts)
	r.GET("/alerts/:id", h.GetAlert)
	r.DELETE("/alerts/:id", h.DeleteAlert)
	r.POST("/alerts/:id/test", h.TestAlert)
}

// CreateAlertRequest for creating an alert subscription
type CreateAlertRequest struct {
	URL      string   `json:"url" binding:"required"`
	Events   []string `json:"events" binding:"required"`
	MinScore int      `json:"minScore"`
}

// CreateAlert handles POST /alerts
func (h *Handler) CreateAlert(c *gin.Context) {
	var req CreateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid request body",
		})
		return
	}

	if errs := validation.Validate(
		validation.MaxLength("url", req.URL, 2048),
		validation.ScoreRange("minScore", req.MinScore),
	); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": errs.Error(),
			"details": errs,
		})
		return
	}

	if err := h.dispatcher.ValidateURL(req.URL); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_url",
			"message": err.Error(),
		})
		return
	}

	events := make([]EventKind, 0, len(req.Events))
	for _, e := range req.Events {
		kind := EventKind(e)
		if !ValidKind(kind) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_event",
				"message": "Unknown event kind: " + e,
			})
			return
		}
		events = append(events, kind)
	}

	secret := idgen.Hex(32)
	sub := &Subscription{
		ID:        idgen.WithPrefix("whk_"),
		URL:       req.URL,
		Secret:    secret,
		Events:    events,
		MinScore:  req.MinScore,
		Active:    true,
		CreatedAt: time.Now(),
	}

	if err := h.store.Create(c.Request.Context(), sub); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "create_failed",
			"message": "Failed to create alert subscription",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"alert":  sub,
		"secret": secret, // Only shown once!
		"usage": gin.H{
			"signature": "Verify with HMAC-SHA256(payload, secret)",
			"header":    "X-Shoewatch-Signature",
		},
	})
}

// ListAlerts handles GET /alerts
func (h *Handler) ListAlerts(c *gin.Context) {
	subs, err := h.store.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "list_failed",
			"message": "Failed to list alert subscriptions",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"alerts": subs,
		"count":  len(subs),
	})
}

// GetAlert handles GET /alerts/:id
func (h *Handler) GetAlert(c *gin.Context) {
	sub, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondStoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"alert": sub})
}

// DeleteAlert handles DELETE /alerts/:id
func (h *Handler) DeleteAlert(c *gin.Context) {
	if err := h.store.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.respondStoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "deleted",
		"message": "Alert subscription deleted",
	})
}

// TestAlert handles POST /alerts/:id/test. It synchronously delivers a
// synthetic event so operators can verify their endpoint and signature
// handling before real alerts fire.
func (h *Handler) TestAlert(c *gin.Context) {
	sub, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondStoreError(c, err)
		return
	}

	if err := h.dispatcher.SendTest(c.Request.Context(), sub); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "delivery_failed",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "delivered",
		"message": "Test event delivered",
	})
}

func (h *Handler) respondStoreError(c *gin.Context, err error) {
	if errors.Is(err, ErrSubscriptionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "alert_not_found",
			"message": "Alert subscription does not exist",
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "internal_error",
		"message": "Something went wrong",
	})
}

