package main

import (
	"github.com/tablostudio/guestflow/internal/config"
	"github.com/tablostudio/guestflow/internal/handlers"
	"github.com/tablostudio/guestflow/internal/models"
	"github.com/tablostudio/guestflow/internal/services"
	"github.com/tablostudio/guestflow/internal/services/export"
	"github.com/tablostudio/guestflow/internal/storage"
	"github.com/tablostudio/guestflow/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	taskQueue         services.TaskQueue
	worker            *services.Worker
	janitor           *services.Janitor
	monitoringHandler *handlers.MonitoringHandler
	exportHandler     *handlers.ExportHandler
	healthHandler     *handlers.HealthHandler
}

// bootstrap initializes all application dependencies: database, storage, queue, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	// Initialize database
	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	db := models.GetDB()

	// The schema belongs to the main platform; only local setups migrate.
	if cfg.Database.Driver == "sqlite" {
		if err := models.AutoMigrate(db); err != nil {
			logger.Fatalf("Failed to migrate database: %v", err)
		}
	}

	if err := handlers.RegisterRuntimeMetrics(db); err != nil {
		logger.Warn().Err(err).Msg("Failed to register runtime metrics")
	}

	files, err := storage.NewFiles(&cfg.Storage)
	if err != nil {
		logger.Fatalf("Failed to initialize media storage: %v", err)
	}

	store := services.NewGormStore(db)
	linker := services.NewLinker(store, store, store)
	monitoring := services.NewMonitoringService(linker, store)
	selection := services.NewSelectionService(linker, store, storage.NewURLBuilder(cfg.Storage.PublicBaseURL))
	exporter := export.NewExporter(linker, store, files, cfg.Export.TempDir)
	jobs := export.NewJobRunner(exporter, store, cfg.Export.OutputDir)

	// Initialize task queue (uses Redis if enabled, otherwise sync mode)
	taskQueue := services.InitTaskQueue(cfg)
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(jobs.Process)
	}

	// Start async worker if Redis is enabled
	var worker *services.Worker
	if taskQueue.IsAsync() {
		worker = services.NewWorker(&cfg.Redis, cfg.Export.Concurrency)
		if worker != nil {
			worker.SetProcessor(jobs.Process)
			if err := worker.Start(); err != nil {
				logger.Fatalf("Failed to start export worker: %v", err)
			}
		}
	}

	janitor := services.NewExportJanitor(cfg)
	if err := janitor.Start(); err != nil {
		logger.Fatalf("Failed to start export janitor: %v", err)
	}

	return &appServices{
		taskQueue:         taskQueue,
		worker:            worker,
		janitor:           janitor,
		monitoringHandler: handlers.NewMonitoringHandler(monitoring, selection),
		exportHandler:     handlers.NewExportHandler(exporter, store, jobs, taskQueue),
		healthHandler:     handlers.NewHealthHandler(db, taskQueue),
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	s.janitor.Stop()
	logger.Info().Msg("Janitor stopped")

	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		if err := s.taskQueue.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close task queue")
		}
	}
}
