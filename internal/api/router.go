package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/lotto-engine/internal/api/handlers"
	"github.com/jstittsworth/lotto-engine/internal/api/middleware"
	"github.com/jstittsworth/lotto-engine/internal/services"
	"github.com/jstittsworth/lotto-engine/internal/simulation"
	"github.com/jstittsworth/lotto-engine/pkg/config"
)

// SetupRoutes configures all API routes on the given router group
func SetupRoutes(
	group *gin.RouterGroup,
	engine *simulation.Engine,
	draws *services.DrawService,
	drawSync *services.DrawSyncService,
	batchStore *services.BatchStore,
	cfg *config.Config,
	logger *logrus.Logger,
) {
	drawHandler := handlers.NewDrawHandler(draws, drawSync)
	analysisHandler := handlers.NewAnalysisHandler(draws)
	simulationHandler := handlers.NewSimulationHandler(engine, batchStore, logger)

	// Draw corpus endpoints
	group.GET("/draws", drawHandler.ListDraws)
	group.GET("/draws/latest", drawHandler.GetLatestRound)
	group.POST("/draws/sync", drawHandler.SyncDraws)

	// Pattern analysis endpoints
	group.GET("/analysis/patterns", analysisHandler.GetPatterns)
	group.GET("/analysis/frequency", analysisHandler.GetFrequency)
	group.POST("/analysis/check", analysisHandler.CheckCombination)

	// Simulation endpoints (optional auth: identity scopes stored history)
	sim := group.Group("/simulate")
	sim.Use(middleware.OptionalAuth(cfg.JWTSecret))
	{
		sim.POST("", simulationHandler.StartSimulation)
		sim.POST("/all", simulationHandler.RunAllMethods)
		sim.POST("/cancel", simulationHandler.CancelSimulation)
		sim.GET("/status", simulationHandler.GetStatus)
		sim.GET("/history", simulationHandler.GetHistory)
		sim.GET("/batches/:id", simulationHandler.GetBatch)
		sim.GET("/batches/:id/statistics", simulationHandler.GetStatistics)
		sim.GET("/config", simulationHandler.GetConfig)
		sim.PUT("/config", simulationHandler.UpdateConfig)
	}
}
