package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"github.com/cesargomez89/showmover/internal/app"
	"github.com/cesargomez89/showmover/internal/config"
	httpapp "github.com/cesargomez89/showmover/internal/http"
	"github.com/cesargomez89/showmover/internal/jellyfin"
	"github.com/cesargomez89/showmover/internal/logger"
	"github.com/cesargomez89/showmover/internal/mover"
	"github.com/cesargomez89/showmover/internal/scanner"
	"github.com/cesargomez89/showmover/internal/settings"
	"github.com/cesargomez89/showmover/internal/store"
)

func main() {
	cfg := config.Load()

	appLogger := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		appLogger.Error("Configuration error", "error", err)
		os.Exit(1)
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			appLogger.Error("Failed to create data directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}

	// Only one process may run the mover against a database
	lock := flock.New(cfg.LockPath)
	locked, err := lock.TryLock()
	if err != nil {
		appLogger.Error("Failed to acquire lock", "path", cfg.LockPath, "error", err)
		os.Exit(1)
	}
	if !locked {
		appLogger.Error("Another showmover server is already running", "lock", cfg.LockPath)
		os.Exit(1)
	}
	defer lock.Unlock()

	// Initialize DB
	db, err := store.NewSQLiteDB(cfg.DBPath)
	if err != nil {
		appLogger.Error("Failed to init DB", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	settingsStore, created, err := settings.Open(cfg.SettingsPath, settings.Settings{
		HotRoot:  cfg.SeedHotRoot,
		ColdRoot: cfg.SeedColdRoot,
	})
	if err != nil {
		appLogger.Error("Failed to load settings", "path", cfg.SettingsPath, "error", err)
		os.Exit(1)
	}
	if created {
		appLogger.Info("Created settings file", "path", settingsStore.Path())
	}
	if !settingsStore.Snapshot().Ready() {
		appLogger.Warn("Hot and cold roots are not configured; moves and scans are disabled until they are set")
	}

	// Initialize Services
	jobService := app.NewJobService(db, settingsStore, appLogger)
	scanService := app.NewScanService(scanner.New(db, appLogger), jobService, settingsStore, appLogger)
	jobService.Scans = scanService

	// Initialize Worker
	w := mover.NewWorker(db, settingsStore, appLogger)
	w.Notifier = jellyfin.NewNotifier(settingsStore, nil, appLogger)
	w.Start()

	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()

	h := httpapp.NewHandler(db, settingsStore, jobService, scanService, appLogger)
	h.BaseCtx = baseCtx

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", "error", err)
	}

	cancelBase()
	scanService.Wait()
	w.Stop()

	appLogger.Info("Server exiting")
}
