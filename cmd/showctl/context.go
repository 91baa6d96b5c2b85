package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/gofrs/flock"

	"github.com/cesargomez89/showmover/internal/app"
	"github.com/cesargomez89/showmover/internal/config"
	"github.com/cesargomez89/showmover/internal/constants"
	"github.com/cesargomez89/showmover/internal/logger"
	"github.com/cesargomez89/showmover/internal/scanner"
	"github.com/cesargomez89/showmover/internal/settings"
	"github.com/cesargomez89/showmover/internal/store"
)

var errServerRunning = errors.New("the showmover server holds the lock; trigger the scan through its API instead")

// environment is the opened database plus the services built on it.
type environment struct {
	cfg      *config.Config
	db       *store.DB
	settings *settings.Store
	shows    *app.ShowService
	jobs     *app.JobService
	scans    *app.ScanService
}

type commandContext struct {
	dbFlag       *string
	settingsFlag *string
	logLevel     *string

	openOnce sync.Once
	env      *environment
	openErr  error
}

func newCommandContext(dbFlag, settingsFlag, logLevel *string) *commandContext {
	return &commandContext{dbFlag: dbFlag, settingsFlag: settingsFlag, logLevel: logLevel}
}

// loadConfig returns the environment configuration with flag overrides applied.
// The lock path follows an overridden database path.
func (c *commandContext) loadConfig() *config.Config {
	cfg := config.Load()
	if c.dbFlag != nil {
		if db := strings.TrimSpace(*c.dbFlag); db != "" {
			cfg.DBPath = db
			cfg.LockPath = db + constants.LockFileSuffix
		}
	}
	if c.settingsFlag != nil {
		if path := strings.TrimSpace(*c.settingsFlag); path != "" {
			cfg.SettingsPath = path
		}
	}
	if c.logLevel != nil && *c.logLevel != "" {
		cfg.LogLevel = *c.logLevel
	}
	return cfg
}

func (c *commandContext) open() (*environment, error) {
	c.openOnce.Do(func() {
		cfg := c.loadConfig()
		log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: os.Stderr})

		db, err := store.NewSQLiteDB(cfg.DBPath)
		if err != nil {
			c.openErr = fmt.Errorf("open database: %w", err)
			return
		}
		cfgStore, _, err := settings.Open(cfg.SettingsPath, settings.Settings{
			HotRoot:  cfg.SeedHotRoot,
			ColdRoot: cfg.SeedColdRoot,
		})
		if err != nil {
			db.Close()
			c.openErr = fmt.Errorf("open settings: %w", err)
			return
		}

		jobs := app.NewJobService(db, cfgStore, log)
		c.env = &environment{
			cfg:      cfg,
			db:       db,
			settings: cfgStore,
			shows:    app.NewShowService(db, cfgStore),
			jobs:     jobs,
			scans:    app.NewScanService(scanner.New(db, log), jobs, cfgStore, log),
		}
	})
	return c.env, c.openErr
}

func (c *commandContext) close() {
	if c.env != nil {
		c.env.db.Close()
	}
}

// withEnv opens the environment for the duration of fn.
func (c *commandContext) withEnv(fn func(*environment) error) error {
	env, err := c.open()
	if err != nil {
		return err
	}
	defer c.close()
	return fn(env)
}

// withServerLock runs fn only while no server holds the lock file.
func withServerLock(path string, fn func() error) error {
	lock := flock.New(path)
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock %s: %w", path, err)
	}
	if !locked {
		return errServerRunning
	}
	defer lock.Unlock()
	return fn()
}
