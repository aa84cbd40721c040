package main

import (
	"github.com/gin-gonic/gin"
	"github.com/tablostudio/guestflow/internal/config"
	"github.com/tablostudio/guestflow/internal/handlers"
	"github.com/tablostudio/guestflow/internal/middleware"
	"github.com/tablostudio/guestflow/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine. The
// returned limiter must be stopped on shutdown.
func registerRoutes(r *gin.Engine, cfg *config.Config, svc *appServices) *middleware.RateLimiter {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.Use(middleware.CORS(cfg.Server.AllowOrigins...))

	// Exports read every file of a gallery; throttle them per client
	exportLimiter := middleware.NewRateLimiter(cfg.Export.RateLimitRPS, cfg.Export.RateLimitBurst)

	r.GET("/health", svc.healthHandler.CheckHealth)
	r.GET("/metrics", handlers.Metrics())

	api := r.Group("/api")
	{
		api.GET("/galleries/:gallery_id/progress-summary", svc.monitoringHandler.GetProgressSummary)

		gallery := api.Group("/projects/:project_id/galleries/:gallery_id")
		{
			gallery.GET("/monitoring", svc.monitoringHandler.GetMonitoring)
			gallery.GET("/persons/:person_id/selections", svc.monitoringHandler.GetPersonSelections)

			exports := gallery.Group("", exportLimiter.Middleware())
			exports.GET("/monitoring/export", svc.exportHandler.ExportReport)
			exports.POST("/export-zip", svc.exportHandler.ExportZip)
			exports.POST("/export-zip/jobs", svc.exportHandler.EnqueueZip)
		}

		api.GET("/exports/:job_id", svc.exportHandler.GetJob)
	}

	return exportLimiter
}
