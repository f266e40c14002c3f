package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jstittsworth/lotto-engine/internal/models"
	"github.com/jstittsworth/lotto-engine/internal/services"
	"github.com/jstittsworth/lotto-engine/pkg/utils"
)

type DrawHandler struct {
	draws *services.DrawService
	sync  *services.DrawSyncService
}

func NewDrawHandler(draws *services.DrawService, sync *services.DrawSyncService) *DrawHandler {
	return &DrawHandler{
		draws: draws,
		sync:  sync,
	}
}

// ListDraws returns historical draws, optionally filtered by round range.
func (h *DrawHandler) ListDraws(c *gin.Context) {
	r, err := parseRoundRange(c)
	if err != nil {
		utils.SendValidationError(c, "Invalid round range", err.Error())
		return
	}

	draws, err := h.draws.FetchDraws(c.Request.Context(), r)
	if err != nil {
		utils.SendInternalError(c, "Failed to fetch draws")
		return
	}

	utils.SendSuccess(c, gin.H{
		"draws": draws,
		"count": len(draws),
	})
}

// GetLatestRound returns the newest round in the corpus, 0 when empty.
func (h *DrawHandler) GetLatestRound(c *gin.Context) {
	round, err := h.draws.LatestRound(c.Request.Context())
	if err != nil {
		utils.SendInternalError(c, "Failed to look up latest round")
		return
	}
	utils.SendSuccess(c, gin.H{"latest_round": round})
}

// SyncDraws pulls missing rounds from the upstream lottery API now,
// outside the background schedule.
func (h *DrawHandler) SyncDraws(c *gin.Context) {
	if h.sync == nil {
		utils.SendConflict(c, "Draw sync is not enabled")
		return
	}

	saved, err := h.sync.SyncNow(c.Request.Context())
	if err != nil {
		utils.SendInternalError(c, "Draw sync failed: "+err.Error())
		return
	}
	utils.SendSuccess(c, gin.H{"synced": saved})
}

func parseRoundRange(c *gin.Context) (*models.RoundRange, error) {
	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" && toStr == "" {
		return nil, nil
	}

	r := &models.RoundRange{}
	if fromStr != "" {
		from, err := strconv.Atoi(fromStr)
		if err != nil {
			return nil, err
		}
		r.From = from
	}
	if toStr != "" {
		to, err := strconv.Atoi(toStr)
		if err != nil {
			return nil, err
		}
		r.To = to
	}
	return r, nil
}
