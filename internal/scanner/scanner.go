// Package scanner walks library directories and indexes every immediate
// subdirectory as a show.
package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cesargomez89/showmover/internal/domain"
	"github.com/cesargomez89/showmover/internal/logger"
	"github.com/cesargomez89/showmover/internal/settings"
)

// ShowWriter persists scanned shows.
type ShowWriter interface {
	UpsertShow(ctx context.Context, show *domain.Show) (bool, error)
}

// Summary counts what a scan touched.
type Summary struct {
	ScannedLibraries int `json:"scanned_libraries"`
	ShowsProcessed   int `json:"shows_processed"`
	Inserted         int `json:"inserted"`
	Updated          int `json:"updated"`
}

type Scanner struct {
	Repo   ShowWriter
	Logger *logger.Logger
	now    func() time.Time
}

func New(repo ShowWriter, log *logger.Logger) *Scanner {
	return &Scanner{
		Repo:   repo,
		Logger: log.WithComponent("scanner"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Run indexes every library path in cfg. Library paths that are missing or
// unreadable are skipped with a warning; a database error aborts the scan.
func (s *Scanner) Run(ctx context.Context, cfg settings.Settings) (Summary, error) {
	var summary Summary

	hotRoot := cfg.HotRoot
	coldRoot := cfg.ColdRoot

	for _, libraryPath := range cfg.ScanPaths() {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		info, err := os.Stat(libraryPath)
		if err != nil || !info.IsDir() {
			s.Logger.Warn("Skipping library path that does not exist or is not a directory", "path", libraryPath)
			continue
		}

		s.Logger.Info("Scanning library path", "path", libraryPath)
		summary.ScannedLibraries++

		shows, err := s.scanLibrary(libraryPath, hotRoot, coldRoot)
		if err != nil {
			s.Logger.Warn("Failed to scan library path", "path", libraryPath, "error", err)
			continue
		}

		for _, show := range shows {
			if err := ctx.Err(); err != nil {
				return summary, err
			}
			summary.ShowsProcessed++
			inserted, err := s.Repo.UpsertShow(ctx, show)
			if err != nil {
				return summary, fmt.Errorf("store show %s: %w", show.Path, err)
			}
			if inserted {
				summary.Inserted++
			} else {
				summary.Updated++
			}
		}
	}

	s.Logger.Info("Filesystem scan complete",
		"scanned", summary.ScannedLibraries,
		"processed", summary.ShowsProcessed,
		"inserted", summary.Inserted,
		"updated", summary.Updated,
	)

	return summary, nil
}

// isTierRoot reports whether path is the configured hot or cold root.
func isTierRoot(path string, roots ...string) bool {
	p := filepath.Clean(path)
	for _, r := range roots {
		if r != "" && p == filepath.Clean(r) {
			return true
		}
	}
	return false
}

func (s *Scanner) scanLibrary(libraryPath, hotRoot, coldRoot string) ([]*domain.Show, error) {
	entries, err := os.ReadDir(libraryPath)
	if err != nil {
		return nil, err
	}

	var shows []*domain.Show
	for _, entry := range entries {
		path := filepath.Join(libraryPath, entry.Name())
		info, err := os.Stat(path)
		if err != nil {
			s.Logger.Warn("Failed to read entry inside library", "path", path, "error", err)
			continue
		}
		if !info.IsDir() {
			continue
		}
		if isTierRoot(path, hotRoot, coldRoot) {
			s.Logger.Debug("Skipping tier root inside library", "path", path)
			continue
		}

		show := s.buildCandidate(path, hotRoot, coldRoot)
		s.Logger.Debug("Discovered show candidate", "path", show.Path, "title", show.Title)
		shows = append(shows, show)
	}
	return shows, nil
}
