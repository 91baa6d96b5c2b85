package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/cesargomez89/showmover/internal/domain"
	"github.com/cesargomez89/showmover/internal/logger"
	"github.com/cesargomez89/showmover/internal/settings"
	"github.com/cesargomez89/showmover/internal/store"
)

// SettingsSource hands out immutable settings snapshots.
type SettingsSource interface {
	Snapshot() settings.Settings
}

// ScanActivity reports whether a library scan is currently running.
type ScanActivity interface {
	Running() bool
}

type JobService struct {
	Repo     *store.DB
	Settings SettingsSource
	Scans    ScanActivity
	Logger   *logger.Logger
}

func NewJobService(repo *store.DB, cfg SettingsSource, log *logger.Logger) *JobService {
	return &JobService{Repo: repo, Settings: cfg, Logger: log.WithComponent("jobs")}
}

// CreateMoveJob validates a relocation request and enqueues it. Nothing is
// written when any check fails.
func (s *JobService) CreateMoveJob(ctx context.Context, showID, target string) (*domain.Job, error) {
	if s.Scans != nil && s.Scans.Running() {
		return nil, domain.ErrScanInProgress
	}

	loc, err := domain.ParseLocation(target)
	if err != nil {
		return nil, err
	}

	show, err := s.Repo.GetShow(ctx, showID)
	if err != nil {
		return nil, fmt.Errorf("%w: load show: %v", domain.ErrStore, err)
	}
	if show == nil {
		return nil, domain.ErrShowNotFound
	}

	cfg := s.Settings.Snapshot()
	hotRoot, err := cfg.RootFor(domain.LocationHot)
	if err != nil {
		return nil, err
	}
	coldRoot, err := cfg.RootFor(domain.LocationCold)
	if err != nil {
		return nil, err
	}

	current := domain.LocationOf(show.Path, hotRoot, coldRoot)
	if current == domain.LocationUnknown {
		return nil, fmt.Errorf("%w: %s", domain.ErrPathMismatch, show.Path)
	}
	if current == loc {
		return nil, domain.ErrAlreadyInLocation
	}

	fromRoot, toRoot := hotRoot, coldRoot
	if current == domain.LocationCold {
		fromRoot, toRoot = coldRoot, hotRoot
	}
	if filepath.Clean(show.Path) == filepath.Clean(fromRoot) {
		return nil, fmt.Errorf("%w: %s is the %s root itself", domain.ErrPathMismatch, show.Path, current)
	}
	destination, err := domain.Rebase(show.Path, fromRoot, toRoot)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	job := &domain.Job{
		ID:              uuid.New().String(),
		ShowID:          show.ID,
		SourcePath:      show.Path,
		DestinationPath: destination,
		Status:          domain.JobStatusQueued,
		TotalBytes:      max(show.SizeBytes, 0),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.Repo.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("%w: create job: %v", domain.ErrStore, err)
	}
	s.Logger.WithJob(job.ID, show.ID).Info("Move job enqueued",
		"source", job.SourcePath, "destination", job.DestinationPath, "target", loc)
	return job, nil
}

// ListActiveJobs returns the queued and running jobs, oldest first.
func (s *JobService) ListActiveJobs(ctx context.Context) ([]*domain.Job, error) {
	jobs, err := s.Repo.ListActiveJobs(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list active jobs: %v", domain.ErrStore, err)
	}
	return jobs, nil
}

func (s *JobService) ListJobs(ctx context.Context, limit, offset int) ([]*domain.Job, error) {
	jobs, err := s.Repo.ListJobs(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list jobs: %v", domain.ErrStore, err)
	}
	return jobs, nil
}

func (s *JobService) GetJob(ctx context.Context, id string) (*domain.Job, error) {
	job, err := s.Repo.GetJob(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: get job: %v", domain.ErrStore, err)
	}
	if job == nil {
		return nil, domain.ErrJobNotFound
	}
	return job, nil
}

func (s *JobService) HasActiveJobs(ctx context.Context) (bool, error) {
	active, err := s.Repo.HasActiveJobs(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: count active jobs: %v", domain.ErrStore, err)
	}
	return active, nil
}

func (s *JobService) GetJobStats(ctx context.Context) (*domain.JobStats, error) {
	stats, err := s.Repo.GetJobStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: job stats: %v", domain.ErrStore, err)
	}
	return stats, nil
}
