package app

import (
	"fmt"
	"net/http"

	"snapserver/internal/cache"
	"snapserver/internal/compare"
	"snapserver/internal/config"
	"snapserver/internal/logger"
	"snapserver/internal/motion"
	"snapserver/internal/repository/sqlite"
	"snapserver/internal/routes"
	"snapserver/internal/services"
	"snapserver/internal/services/websocket"
	"snapserver/internal/snapshot"
)

type App struct {
	config     *config.Config
	logger     *logger.Logger
	db         *sqlite.DB
	manager    *services.Manager
	hubService *websocket.HubService
	comparator *motion.Comparator
}

func NewApp() (*App, error) {
	cfg := config.Load()

	log, err := logger.New(cfg.LogDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	cameraRepo := sqlite.NewCameraRepository(db)
	snapshotRepo := sqlite.NewSnapshotRepository(db)

	// Register cameras from the optional YAML registry so the comparator's
	// camera lookups resolve from the first frame on.
	cameras, err := cfg.LoadCameras()
	if err != nil {
		db.Close()
		return nil, err
	}
	for i := range cameras {
		if _, err := cameraRepo.Upsert(&cameras[i]); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to register camera %s: %w", cameras[i].Name, err)
		}
	}
	if len(cameras) > 0 {
		log.Info("Registered %d camera(s) from %s", len(cameras), cfg.CamerasFile)
	}

	store := snapshot.NewStore(cfg.StorageRoot)
	frames := cache.NewMemory()
	differ := compare.NewDiffer(float32(cfg.CompareThreshold))

	comparator := motion.NewComparator(frames, differ, cameraRepo, snapshotRepo,
		cfg.CompareWorkers, log)

	hub := websocket.NewHubService(log)
	manager := services.NewManager(store, snapshotRepo, frames, comparator, hub, log)

	return &App{
		config:     cfg,
		logger:     log,
		db:         db,
		manager:    manager,
		hubService: hub,
		comparator: comparator,
	}, nil
}

func (a *App) Run() error {
	// Start background services
	go a.hubService.Run()

	// Setup routes
	router := routes.SetupRoutes(a.manager, a.config, a.logger)

	a.logger.Info("Snapshot server listening on port %d", a.config.Port)
	a.logger.Info("Storage root: %s", a.config.StorageRoot)
	a.logger.Info("Database: %s", a.config.DatabasePath)

	return http.ListenAndServe(fmt.Sprintf(":%d", a.config.Port), router)
}

// Close drains the comparison pipeline and releases the database.
func (a *App) Close() error {
	a.manager.Stop()
	return a.db.Close()
}
