package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cesargomez89/showmover/internal/domain"
	"github.com/cesargomez89/showmover/internal/logger"
	"github.com/cesargomez89/showmover/internal/scanner"
	"github.com/cesargomez89/showmover/internal/settings"
)

// ScanRunner performs one library scan.
type ScanRunner interface {
	Run(ctx context.Context, cfg settings.Settings) (scanner.Summary, error)
}

// ActiveJobs reports whether move jobs are pending.
type ActiveJobs interface {
	HasActiveJobs(ctx context.Context) (bool, error)
}

type ScanState string

const (
	ScanStateIdle    ScanState = "idle"
	ScanStateRunning ScanState = "running"
)

// ScanStatus describes the current or most recent scan.
type ScanStatus struct {
	State        ScanState        `json:"state"`
	LastStarted  *time.Time       `json:"last_started,omitempty"`
	LastFinished *time.Time       `json:"last_finished,omitempty"`
	LastError    string           `json:"last_error,omitempty"`
	LastSummary  *scanner.Summary `json:"last_summary,omitempty"`
}

type ScanService struct {
	Runner   ScanRunner
	Jobs     ActiveJobs
	Settings SettingsSource
	Logger   *logger.Logger

	mu     sync.Mutex
	status ScanStatus
	wg     sync.WaitGroup
}

func NewScanService(runner ScanRunner, jobs ActiveJobs, cfg SettingsSource, log *logger.Logger) *ScanService {
	return &ScanService{
		Runner:   runner,
		Jobs:     jobs,
		Settings: cfg,
		Logger:   log.WithComponent("scan"),
		status:   ScanStatus{State: ScanStateIdle},
	}
}

// Running reports whether a scan is in progress.
func (s *ScanService) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status.State == ScanStateRunning
}

// Status returns a copy of the scan status.
func (s *ScanService) Status() ScanStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.status
	if st.LastSummary != nil {
		sum := *st.LastSummary
		st.LastSummary = &sum
	}
	return st
}

// TriggerScan starts a scan in the background on a settings snapshot taken
// now. The scan runs on ctx, which should outlive the triggering request.
func (s *ScanService) TriggerScan(ctx context.Context) error {
	cfg, err := s.admit(ctx)
	if err != nil {
		return err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_, _ = s.execute(ctx, cfg)
	}()
	return nil
}

// RunScan performs a scan synchronously, subject to the same admission checks.
func (s *ScanService) RunScan(ctx context.Context) (scanner.Summary, error) {
	cfg, err := s.admit(ctx)
	if err != nil {
		return scanner.Summary{}, err
	}
	return s.execute(ctx, cfg)
}

// Wait blocks until background scans have finished.
func (s *ScanService) Wait() {
	s.wg.Wait()
}

func (s *ScanService) admit(ctx context.Context) (settings.Settings, error) {
	cfg := s.Settings.Snapshot()
	if !cfg.Ready() {
		return cfg, domain.ErrSettingsIncomplete
	}

	active, err := s.Jobs.HasActiveJobs(ctx)
	if err != nil {
		return cfg, fmt.Errorf("%w: check active jobs: %v", domain.ErrStore, err)
	}
	if active {
		return cfg, domain.ErrJobsActive
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.State == ScanStateRunning {
		return cfg, domain.ErrScanRunning
	}
	now := time.Now().UTC()
	s.status.State = ScanStateRunning
	s.status.LastStarted = &now
	s.status.LastError = ""
	return cfg, nil
}

func (s *ScanService) execute(ctx context.Context, cfg settings.Settings) (summary scanner.Summary, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during scan: %v", r)
		}
		s.finish(summary, err)
	}()

	s.Logger.Info("Library scan started")
	return s.Runner.Run(ctx, cfg)
}

func (s *ScanService) finish(summary scanner.Summary, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	s.status.State = ScanStateIdle
	s.status.LastFinished = &now
	if err != nil {
		s.status.LastError = err.Error()
		s.Logger.Error("Library scan failed", "error", err)
		return
	}
	s.status.LastSummary = &summary
	s.Logger.Info("Library scan finished",
		"inserted", summary.Inserted, "updated", summary.Updated, "processed", summary.ShowsProcessed)
}
