package mover

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cesargomez89/showmover/internal/app"
	"github.com/cesargomez89/showmover/internal/constants"
	"github.com/cesargomez89/showmover/internal/domain"
	"github.com/cesargomez89/showmover/internal/logger"
	"github.com/cesargomez89/showmover/internal/storage"
	"github.com/cesargomez89/showmover/internal/store"
)

// JobStore is the part of the store the worker drives.
type JobStore interface {
	NextEligibleJob(ctx context.Context) (*domain.Job, error)
	MarkJobRunning(ctx context.Context, id string) error
	UpdateJobProgress(ctx context.Context, id string, progress, speed, eta int64) error
	FailJob(ctx context.Context, id string, errorMsg string) error
	CompleteMove(ctx context.Context, c store.MoveCompletion) error
}

// LibraryNotifier is told when a move has changed the library layout.
type LibraryNotifier interface {
	Rescan(ctx context.Context) error
}

// Worker executes move jobs one at a time. Claiming a job is not atomic, so
// only one Worker may run against a store.
type Worker struct {
	ctx          context.Context
	Repo         JobStore
	Settings     app.SettingsSource
	Notifier     LibraryNotifier
	Logger       *logger.Logger
	cancel       context.CancelFunc
	now          func() time.Time
	removeSource func(path string) error
	wg           sync.WaitGroup
	IdleInterval time.Duration
	Cooldown     time.Duration
	ErrorBackoff time.Duration
}

func NewWorker(repo JobStore, cfg app.SettingsSource, log *logger.Logger) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	if log == nil {
		log = logger.Default()
	}

	return &Worker{
		Repo:         repo,
		Settings:     cfg,
		Logger:       log.WithComponent("mover"),
		IdleInterval: constants.WorkerIdleInterval,
		Cooldown:     constants.WorkerCooldown,
		ErrorBackoff: constants.WorkerErrorBackoff,
		ctx:          ctx,
		cancel:       cancel,
		now:          time.Now,
		removeSource: storage.RemoveTree,
	}
}

func (w *Worker) Start() {
	w.Logger.Info("Starting worker")

	w.wg.Add(1)
	go w.processJobs()
}

// Stop cancels the loop and waits for the file copy in progress to finish.
// An interrupted job is left running and picked up again on the next Start.
func (w *Worker) Stop() {
	w.Logger.Info("Stopping worker")
	w.cancel()
	w.wg.Wait()
}

func (w *Worker) processJobs() {
	defer w.wg.Done()

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-timer.C:
			timer.Reset(w.poll(w.ctx))
		}
	}
}

// poll runs at most one job and returns how long to wait before polling again.
func (w *Worker) poll(ctx context.Context) time.Duration {
	job, err := w.Repo.NextEligibleJob(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.Logger.Error("Failed to fetch next job", "error", err)
		}
		return w.ErrorBackoff
	}
	if job == nil {
		return w.IdleInterval
	}

	if job.Status == domain.JobStatusQueued {
		if err := w.Repo.MarkJobRunning(ctx, job.ID); err != nil {
			w.Logger.Error("Failed to mark job running", "job_id", job.ID, "error", err)
			return w.ErrorBackoff
		}
		job.Status = domain.JobStatusRunning
		job.ErrorMessage = nil
	}

	w.runJob(ctx, job)
	return w.Cooldown
}

func (w *Worker) runJob(ctx context.Context, job *domain.Job) {
	log := w.Logger.WithJob(job.ID, job.ShowID)
	persistCtx := context.WithoutCancel(ctx)

	defer func() {
		if r := recover(); r != nil {
			log.Error("Panic in job", "panic", r)
			if failErr := w.Repo.FailJob(persistCtx, job.ID, fmt.Sprintf("Panic: %v", r)); failErr != nil {
				log.Error("Failed to record job failure", "error", failErr)
			}
		}
	}()

	cfg := w.Settings.Snapshot()

	err := w.execute(ctx, job, cfg, log)
	switch {
	case err == nil:
		w.notify(persistCtx, log)
	case errors.Is(err, ErrInterrupted):
		log.Info("Move interrupted, job stays running until the next start")
	default:
		log.Error("Move job failed", "error", err)
		if failErr := w.Repo.FailJob(persistCtx, job.ID, err.Error()); failErr != nil {
			log.Error("Failed to record job failure", "error", failErr)
		}
	}
}

func (w *Worker) notify(ctx context.Context, log *logger.Logger) {
	if w.Notifier == nil {
		return
	}
	if err := w.Notifier.Rescan(ctx); err != nil {
		log.Warn("Media server rescan failed", "error", err)
	}
}
