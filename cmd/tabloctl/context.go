package main

import (
	"os"
	"strings"
	"sync"

	"github.com/tablostudio/guestflow/internal/config"
	"github.com/tablostudio/guestflow/internal/models"
	"github.com/tablostudio/guestflow/internal/services"
	"github.com/tablostudio/guestflow/internal/services/export"
	"github.com/tablostudio/guestflow/internal/storage"
	"github.com/tablostudio/guestflow/pkg/logger"
)

// app is the service graph the commands work with.
type app struct {
	cfg        *config.Config
	store      *services.GormStore
	monitoring *services.MonitoringService
	selection  *services.SelectionService
	exporter   *export.Exporter
}

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	appOnce sync.Once
	app     *app
	appErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		path := os.Getenv("CONFIG_PATH")
		if c.configFlag != nil && strings.TrimSpace(*c.configFlag) != "" {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		// Keep stdout for command output.
		logger.Init(cfg.LogLevel)
		logger.SetOutput(os.Stderr)
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureApp() (*app, error) {
	c.appOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.appErr = err
			return
		}
		db, err := models.Open(&cfg.Database)
		if err != nil {
			c.appErr = err
			return
		}
		files, err := storage.NewFiles(&cfg.Storage)
		if err != nil {
			c.appErr = err
			return
		}

		store := services.NewGormStore(db)
		linker := services.NewLinker(store, store, store)
		c.app = &app{
			cfg:        cfg,
			store:      store,
			monitoring: services.NewMonitoringService(linker, store),
			selection:  services.NewSelectionService(linker, store, storage.NewURLBuilder(cfg.Storage.PublicBaseURL)),
			exporter:   export.NewExporter(linker, store, files, cfg.Export.TempDir),
		}
	})
	return c.app, c.appErr
}

func (c *commandContext) janitor() (*services.Janitor, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return services.NewExportJanitor(cfg), nil
}
