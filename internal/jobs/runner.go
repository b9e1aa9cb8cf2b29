package jobs

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Runner polls for pending render jobs and executes them one at a time.
// Per-scene parallelism happens inside the compositor; running whole jobs
// concurrently would multiply external encoder load unpredictably.
type Runner struct {
	service      *Service
	repo         Repository
	logger       *slog.Logger
	pollInterval time.Duration
	running      atomic.Bool
	paused       atomic.Bool
}

func NewRunner(service *Service, repo Repository, logger *slog.Logger) *Runner {
	return &Runner{
		service:      service,
		repo:         repo,
		logger:       logger,
		pollInterval: 2 * time.Second,
	}
}

func (r *Runner) Start(ctx context.Context) {
	if r.running.Swap(true) {
		return
	}

	r.logger.Info("render job runner started")

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("render job runner stopping")
			r.running.Store(false)
			return
		case <-ticker.C:
			if !r.paused.Load() {
				r.processNextJob(ctx)
			}
		}
	}
}

func (r *Runner) Pause() {
	r.paused.Store(true)
	r.logger.Info("render job runner paused")
}

func (r *Runner) Resume() {
	r.paused.Store(false)
	r.logger.Info("render job runner resumed")
}

func (r *Runner) IsPaused() bool {
	return r.paused.Load()
}

func (r *Runner) IsRunning() bool {
	return r.running.Load()
}

func (r *Runner) processNextJob(ctx context.Context) {
	pending, err := r.repo.ListPendingJobs(ctx)
	if err != nil {
		r.logger.Error("failed to list pending render jobs", "error", err)
		return
	}
	if len(pending) == 0 {
		return
	}

	job := pending[0]
	r.logger.Info("processing render job", "job_id", job.ID)

	if err := r.service.Execute(ctx, job); err != nil {
		r.logger.Error("render job execution failed", "job_id", job.ID, "error", err)
	}
}
