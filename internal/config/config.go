package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cesargomez89/showmover/internal/constants"
)

// Config holds process configuration. Library settings live in internal/settings.
type Config struct {
	Port         string
	DBPath       string
	SettingsPath string
	LockPath     string
	LogLevel     string
	LogFormat    string
	SeedHotRoot  string
	SeedColdRoot string
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	dbPath := getEnv("SHOWMOVER_DB_PATH", constants.DefaultDBPath)

	return &Config{
		Port:         getEnv("SHOWMOVER_PORT", constants.DefaultPort),
		DBPath:       dbPath,
		SettingsPath: getEnv("SHOWMOVER_SETTINGS_PATH", constants.DefaultSettingsPath),
		LockPath:     getEnv("SHOWMOVER_LOCK_PATH", dbPath+constants.LockFileSuffix),
		LogLevel:     getEnv("SHOWMOVER_LOG_LEVEL", constants.DefaultLogLevel),
		LogFormat:    getEnv("SHOWMOVER_LOG_FORMAT", constants.DefaultLogFormat),
		SeedHotRoot:  strings.TrimSpace(getEnv("SHOWMOVER_HOT_ROOT", "")),
		SeedColdRoot: strings.TrimSpace(getEnv("SHOWMOVER_COLD_ROOT", "")),
	}
}

// Validate validates the configuration and returns detailed errors
func (c *Config) Validate() error {
	var errors []string

	if c.Port == "" {
		errors = append(errors, "SHOWMOVER_PORT cannot be empty")
	} else {
		port, err := strconv.Atoi(c.Port)
		if err != nil {
			errors = append(errors, fmt.Sprintf("SHOWMOVER_PORT must be a valid number, got: %s", c.Port))
		} else if port < 1 || port > 65535 {
			errors = append(errors, fmt.Sprintf("SHOWMOVER_PORT must be between 1 and 65535, got: %d", port))
		}
	}

	if c.DBPath == "" {
		errors = append(errors, "SHOWMOVER_DB_PATH cannot be empty")
	}

	if c.SettingsPath == "" {
		errors = append(errors, "SHOWMOVER_SETTINGS_PATH cannot be empty")
	}

	if c.LockPath == "" {
		errors = append(errors, "SHOWMOVER_LOCK_PATH cannot be empty")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		errors = append(errors, fmt.Sprintf("SHOWMOVER_LOG_LEVEL must be one of: debug, info, warn, error, got: %s", c.LogLevel))
	}

	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
		"auto": true,
	}
	if !validLogFormats[c.LogFormat] {
		errors = append(errors, fmt.Sprintf("SHOWMOVER_LOG_FORMAT must be one of: text, json, auto, got: %s", c.LogFormat))
	}

	if c.SeedHotRoot != "" && c.SeedHotRoot == c.SeedColdRoot {
		errors = append(errors, "SHOWMOVER_HOT_ROOT and SHOWMOVER_COLD_ROOT must differ")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
