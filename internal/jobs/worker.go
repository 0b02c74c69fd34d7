package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	jobsrepo "github.com/vaultmedia/vaultmedia-backend/internal/data/repos/jobs"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/dbctx"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/envutil"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/logger"
)

type Worker struct {
	deps     *Deps
	registry *Registry
	log      *logger.Logger

	pollInterval time.Duration
	workerCount  int
	maxAttempts  int
	staleRunning time.Duration
}

func NewWorker(deps *Deps, registry *Registry, baseLog *logger.Logger) *Worker {
	return &Worker{
		deps:         deps,
		registry:     registry,
		log:          baseLog.With("component", "JobWorker"),
		pollInterval: time.Duration(envutil.GetEnvAsInt("JOB_POLL_INTERVAL_MS", 1000, baseLog)) * time.Millisecond,
		workerCount:  envutil.GetEnvAsInt("JOB_WORKER_COUNT", 4, baseLog),
		maxAttempts:  envutil.GetEnvAsInt("JOB_MAX_ATTEMPTS", 3, baseLog),
		staleRunning: time.Duration(envutil.GetEnvAsInt("JOB_STALE_RUNNING_SECONDS", 120, baseLog)) * time.Second,
	}
}

// Start launches the worker pool and returns immediately. The pool drains
// when ctx is canceled; Wait on the returned group during shutdown.
func (w *Worker) Start(ctx context.Context) *errgroup.Group {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < w.workerCount; i++ {
		g.Go(func() error {
			w.loop(ctx)
			return nil
		})
	}
	w.log.Info("job workers started", "count", w.workerCount)
	return g
}

func (w *Worker) loop(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Drain everything runnable before sleeping again.
			for {
				if !w.runOne(ctx) {
					break
				}
			}
		}
	}
}

// runOne claims and executes a single job. Returns false when the queue is
// empty or the claim failed.
func (w *Worker) runOne(ctx context.Context) bool {
	job, err := w.deps.Jobs.ClaimNextRunnable(dbctx.Context{Ctx: ctx}, jobsrepo.RunnablePolicy{
		MaxAttempts:  w.maxAttempts,
		StaleRunning: w.staleRunning,
	})
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			w.log.Warn("claim failed", "error", err)
		}
		return false
	}
	if job == nil {
		return w.reapOne(ctx)
	}

	jc := NewContext(ctx, job, w.deps)
	h, ok := w.registry.Get(job.JobType)
	if !ok {
		jc.Fail(Permanent(fmt.Errorf("no handler registered for job_type=%s", job.JobType)), true, w.maxAttempts)
		return true
	}

	// A panicking handler must not take the worker down with it.
	runErr := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				w.log.Error("job handler panic", "job_id", job.ID, "job_type", job.JobType, "panic", r)
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return h.Run(jc)
	}()

	if runErr != nil {
		var perm *permanentError
		jc.Fail(runErr, errors.As(runErr, &perm), w.maxAttempts)
	}
	return true
}

// reapOne finalizes a job whose worker died on its last attempt. The claim
// query excludes attempt-exhausted rows, so they need an explicit sweep to
// reach FAILED and flip the asset with it; a manual retry takes over from
// there.
func (w *Worker) reapOne(ctx context.Context) bool {
	job, err := w.deps.Jobs.ClaimStaleExhausted(dbctx.Context{Ctx: ctx}, jobsrepo.RunnablePolicy{
		MaxAttempts:  w.maxAttempts,
		StaleRunning: w.staleRunning,
	})
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			w.log.Warn("stale sweep failed", "error", err)
		}
		return false
	}
	if job == nil {
		return false
	}
	jc := NewContext(ctx, job, w.deps)
	jc.Fail(Permanent(fmt.Errorf("worker lost after %d attempts", job.Attempts)), true, w.maxAttempts)
	return true
}
