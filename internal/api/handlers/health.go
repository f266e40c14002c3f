package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jstittsworth/lotto-engine/internal/services"
)

type HealthHandler struct {
	draws *services.DrawService
}

func NewHealthHandler(draws *services.DrawService) *HealthHandler {
	return &HealthHandler{draws: draws}
}

// GetHealth returns basic liveness status.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"service":   "lotto-engine",
		"timestamp": time.Now().UTC(),
	})
}

// GetReady reports readiness: the server is ready once the draw corpus
// is reachable and non-empty.
func (h *HealthHandler) GetReady(c *gin.Context) {
	count, err := h.draws.Count(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	if count == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"reason": "draw corpus is empty",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"draws":  count,
	})
}
