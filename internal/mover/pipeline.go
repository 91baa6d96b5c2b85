package mover

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/cesargomez89/showmover/internal/domain"
	"github.com/cesargomez89/showmover/internal/logger"
	"github.com/cesargomez89/showmover/internal/settings"
	"github.com/cesargomez89/showmover/internal/storage"
	"github.com/cesargomez89/showmover/internal/store"
)

// ErrInterrupted is returned when shutdown was observed between two files.
var ErrInterrupted = errors.New("move interrupted by shutdown")

type Step string

const (
	StepPrepareDestination Step = "prepare-destination"
	StepCopyTree           Step = "copy-tree"
	StepFinalize           Step = "finalize"
	StepRemoveSource       Step = "remove-source"
)

// StepError names the pipeline step a job failed in.
type StepError struct {
	Err  error
	Step Step
}

func (e *StepError) Error() string {
	return string(e.Step) + ": " + e.Err.Error()
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// execute runs the move pipeline for one job. Only prepare-destination,
// copy-tree and finalize can fail the job.
func (w *Worker) execute(ctx context.Context, job *domain.Job, cfg settings.Settings, log *logger.Logger) error {
	log.Info("Starting move job",
		"source", job.SourcePath, "destination", job.DestinationPath,
		"total", humanize.Bytes(uint64(max(job.TotalBytes, 0))))

	if err := w.prepareDestination(job, log); err != nil {
		return &StepError{Step: StepPrepareDestination, Err: err}
	}

	copied, err := w.copyTree(ctx, job)
	if err != nil {
		if errors.Is(err, ErrInterrupted) {
			return err
		}
		return &StepError{Step: StepCopyTree, Err: err}
	}

	if err := w.finalize(context.WithoutCancel(ctx), job, cfg, copied); err != nil {
		log.Error("Failed to finalize move job transaction",
			"source", job.SourcePath, "destination", job.DestinationPath, "error", err)
		return &StepError{Step: StepFinalize, Err: err}
	}

	if err := w.removeSource(job.SourcePath); err != nil {
		log.Warn("Failed to delete source directory after move",
			"step", StepRemoveSource, "source", job.SourcePath, "error", err)
	}

	log.Info("Move job completed", "moved", humanize.Bytes(uint64(copied)))
	return nil
}

// prepareDestination clears whatever a previous attempt left behind.
func (w *Worker) prepareDestination(job *domain.Job, log *logger.Logger) error {
	if err := storage.RemoveTree(job.DestinationPath); err != nil {
		log.Warn("Failed to clean existing destination directory before move",
			"destination", job.DestinationPath, "error", err)
	}
	return storage.EnsureDir(job.DestinationPath)
}

// copyTree mirrors the source tree under the destination and persists
// progress after every file. It returns the copied byte counter, which
// starts from the job's persisted progress.
func (w *Worker) copyTree(ctx context.Context, job *domain.Job) (int64, error) {
	persistCtx := context.WithoutCancel(ctx)
	total := max(job.TotalBytes, 0)
	copied := max(job.ProgressBytes, 0)
	started := w.now()

	err := filepath.WalkDir(job.SourcePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == job.SourcePath {
			return nil
		}

		rel, err := filepath.Rel(job.SourcePath, path)
		if err != nil {
			return fmt.Errorf("%w: %s", domain.ErrPathMismatch, path)
		}
		target := filepath.Join(job.DestinationPath, rel)

		if d.IsDir() {
			return storage.EnsureDir(target)
		}
		if ctx.Err() != nil {
			return ErrInterrupted
		}

		var n int64
		if d.Type()&fs.ModeSymlink != 0 {
			err = storage.CopySymlink(path, target)
		} else {
			n, err = storage.CopyFile(path, target)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", rel, err)
		}

		copied += n
		p := computeProgress(copied, total, w.now().Sub(started))
		if err := w.Repo.UpdateJobProgress(persistCtx, job.ID, p.Bytes, p.Speed, p.ETA); err != nil {
			return fmt.Errorf("persist progress: %w", err)
		}
		return nil
	})
	return copied, err
}

// finalize commits the new show path and location together with the job's
// success. The location is derived from the destination against the roots
// of this job's settings snapshot.
func (w *Worker) finalize(ctx context.Context, job *domain.Job, cfg settings.Settings, copied int64) error {
	loc := domain.LocationOf(job.DestinationPath, cfg.HotRoot, cfg.ColdRoot)
	if loc == domain.LocationUnknown {
		return fmt.Errorf("%w: %s", domain.ErrPathMismatch, job.DestinationPath)
	}

	return w.Repo.CompleteMove(ctx, store.MoveCompletion{
		JobID:           job.ID,
		ShowID:          job.ShowID,
		DestinationPath: job.DestinationPath,
		Location:        loc,
		ProgressBytes:   min(copied, max(job.TotalBytes, 0)),
	})
}
