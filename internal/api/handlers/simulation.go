package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/lotto-engine/internal/api/middleware"
	"github.com/jstittsworth/lotto-engine/internal/models"
	"github.com/jstittsworth/lotto-engine/internal/services"
	"github.com/jstittsworth/lotto-engine/internal/simulation"
	"github.com/jstittsworth/lotto-engine/pkg/utils"
)

type SimulationHandler struct {
	engine *simulation.Engine
	store  *services.BatchStore
	logger *logrus.Logger
}

func NewSimulationHandler(engine *simulation.Engine, store *services.BatchStore, logger *logrus.Logger) *SimulationHandler {
	return &SimulationHandler{
		engine: engine,
		store:  store,
		logger: logger,
	}
}

type startRequest struct {
	Rounds int `json:"rounds" binding:"omitempty,min=1"`
}

type runAllRequest struct {
	Methods []models.Method `json:"methods"`
	Rounds  int             `json:"rounds" binding:"omitempty,min=1"`
}

// StartSimulation begins a batch under the current configuration.
// Generation runs in the background; progress streams over the
// websocket and the finished batch lands in history and storage.
func (h *SimulationHandler) StartSimulation(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}

	ok, err := h.engine.CanRun(c.Request.Context())
	if err != nil {
		utils.SendInternalError(c, "Failed to check draw corpus: "+err.Error())
		return
	}
	if !ok {
		utils.SendConflict(c, "A simulation is already running or the draw corpus is empty")
		return
	}

	userID := middleware.UserID(c)
	go h.runBatch(req.Rounds, userID)

	utils.SendSuccess(c, gin.H{
		"status": "started",
		"config": h.engine.Config(),
	})
}

func (h *SimulationHandler) runBatch(rounds int, userID string) {
	ctx := context.Background()
	batch, err := h.engine.Start(ctx, rounds)
	if err != nil {
		h.logger.WithError(err).Error("simulation batch did not complete")
		return
	}
	if batch == nil {
		return
	}
	h.persist(ctx, batch, userID)
}

// RunAllMethods runs one batch per strategy sequentially.
func (h *SimulationHandler) RunAllMethods(c *gin.Context) {
	var req runAllRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}
	for _, method := range req.Methods {
		if !method.Valid() {
			utils.SendValidationError(c, "Unknown generation method", string(method))
			return
		}
	}

	ok, err := h.engine.CanRun(c.Request.Context())
	if err != nil {
		utils.SendInternalError(c, "Failed to check draw corpus: "+err.Error())
		return
	}
	if !ok {
		utils.SendConflict(c, "A simulation is already running or the draw corpus is empty")
		return
	}

	userID := middleware.UserID(c)
	go func() {
		ctx := context.Background()
		batches, err := h.engine.RunAll(ctx, req.Methods, req.Rounds)
		if err != nil {
			h.logger.WithError(err).Error("multi-method simulation finished with errors")
		}
		for _, batch := range batches {
			h.persist(ctx, batch, userID)
		}
	}()

	utils.SendSuccess(c, gin.H{
		"status":  "started",
		"methods": methodsOrDefault(req.Methods),
	})
}

// GetStatus returns the in-flight batch, or the most recent completed
// batch when the engine is idle.
func (h *SimulationHandler) GetStatus(c *gin.Context) {
	if batch := h.engine.Current(); batch != nil {
		utils.SendSuccess(c, batch)
		return
	}
	history := h.engine.History()
	if len(history) > 0 {
		utils.SendSuccess(c, history[0])
		return
	}
	utils.SendSuccess(c, gin.H{"status": "idle"})
}

// GetBatch looks a batch up by id, first in the engine, then in storage.
func (h *SimulationHandler) GetBatch(c *gin.Context) {
	id := c.Param("id")

	if batch := h.engine.Batch(id); batch != nil {
		utils.SendSuccess(c, batch)
		return
	}

	if h.store != nil {
		if batch, err := h.store.Get(c.Request.Context(), id); err == nil {
			utils.SendSuccess(c, batch)
			return
		}
	}
	utils.SendNotFound(c, "Batch not found")
}

// CancelSimulation aborts the in-flight batch. Cancelled work is
// dropped, not preserved.
func (h *SimulationHandler) CancelSimulation(c *gin.Context) {
	if !h.engine.IsRunning() {
		utils.SendConflict(c, "No simulation is running")
		return
	}
	h.engine.Cancel()
	utils.SendSuccess(c, gin.H{"status": "cancelled"})
}

// GetHistory returns retained completed batches, newest first. With
// ?stored=true it reads persisted batches instead of engine memory.
func (h *SimulationHandler) GetHistory(c *gin.Context) {
	if c.Query("stored") == "true" && h.store != nil {
		batches, err := h.store.Recent(c.Request.Context(), middleware.UserID(c), 0)
		if err != nil {
			utils.SendInternalError(c, "Failed to list stored batches")
			return
		}
		utils.SendSuccess(c, gin.H{"batches": batches, "count": len(batches)})
		return
	}

	history := h.engine.History()
	utils.SendSuccess(c, gin.H{"batches": history, "count": len(history)})
}

// GetStatistics returns the aggregate statistics of one batch.
func (h *SimulationHandler) GetStatistics(c *gin.Context) {
	id := c.Param("id")

	batch := h.engine.Batch(id)
	if batch == nil && h.store != nil {
		if stored, err := h.store.Get(c.Request.Context(), id); err == nil {
			batch = stored
		}
	}
	if batch == nil {
		utils.SendNotFound(c, "Batch not found")
		return
	}
	if batch.Statistics == nil {
		utils.SendConflict(c, "Batch has no statistics yet")
		return
	}
	utils.SendSuccess(c, batch.Statistics)
}

// GetConfig returns the active generation configuration.
func (h *SimulationHandler) GetConfig(c *gin.Context) {
	utils.SendSuccess(c, h.engine.Config())
}

// UpdateConfig replaces the generation configuration. Invalid configs
// are rejected whole; the running batch keeps its snapshot either way.
func (h *SimulationHandler) UpdateConfig(c *gin.Context) {
	var cfg models.GenerationConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}
	if err := h.engine.SetConfig(cfg); err != nil {
		utils.SendValidationError(c, "Invalid configuration", err.Error())
		return
	}
	utils.SendSuccess(c, h.engine.Config())
}

func (h *SimulationHandler) persist(ctx context.Context, batch *models.SimulationBatch, userID string) {
	if h.store == nil || batch.Status != models.BatchCompleted {
		return
	}
	if err := h.store.Save(ctx, batch, userID); err != nil {
		h.logger.WithError(err).WithField("batch_id", batch.ID).Warn("failed to persist completed batch")
	}
}

func methodsOrDefault(methods []models.Method) []models.Method {
	if len(methods) > 0 {
		return methods
	}
	return models.AllMethods
}
