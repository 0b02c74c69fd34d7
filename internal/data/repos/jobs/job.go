package jobs

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vaultmedia/vaultmedia-backend/internal/domain"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/dbctx"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/logger"
)

// RunnablePolicy controls which rows ClaimNextRunnable will pick up.
type RunnablePolicy struct {
	MaxAttempts  int
	StaleRunning time.Duration
}

type JobRepo interface {
	Enqueue(dbc dbctx.Context, job *domain.ProcessingJob) (*domain.ProcessingJob, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.ProcessingJob, error)
	// ClaimNextRunnable atomically claims the oldest runnable job and marks
	// it RUNNING. Jobs whose asset already has a RUNNING job are skipped so
	// per-asset processing stays serialized. Returns nil when nothing is
	// runnable.
	ClaimNextRunnable(dbc dbctx.Context, policy RunnablePolicy) (*domain.ProcessingJob, error)
	// ClaimStaleExhausted picks up a RUNNING job whose worker died after the
	// attempt budget was spent. ClaimNextRunnable never returns such rows, so
	// without this sweep the job would stay RUNNING and its asset PROCESSING
	// forever. Returns nil when there is nothing to sweep.
	ClaimStaleExhausted(dbc dbctx.Context, policy RunnablePolicy) (*domain.ProcessingJob, error)
	MarkSucceeded(dbc dbctx.Context, id uuid.UUID) error
	MarkFailed(dbc dbctx.Context, id uuid.UUID, lastError string) error
	// ReturnToQueue puts a RUNNING job back to QUEUED after a retryable
	// failure, keeping the attempt count.
	ReturnToQueue(dbc dbctx.Context, id uuid.UUID, lastError string) error
	// Requeue returns a FAILED or stuck job to QUEUED for a manual retry.
	Requeue(dbc dbctx.Context, id uuid.UUID) error
	HasActiveJobForAsset(dbc dbctx.Context, assetID uuid.UUID) (bool, error)
}

type jobRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewJobRepo(db *gorm.DB, baseLog *logger.Logger) JobRepo {
	return &jobRepo{db: db, log: baseLog.With("repo", "JobRepo")}
}

func (r *jobRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *jobRepo) Enqueue(dbc dbctx.Context, job *domain.ProcessingJob) (*domain.ProcessingJob, error) {
	if err := r.handle(dbc).WithContext(dbc.Ctx).Create(job).Error; err != nil {
		return nil, err
	}
	return job, nil
}

func (r *jobRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.ProcessingJob, error) {
	var job domain.ProcessingJob
	err := r.handle(dbc).WithContext(dbc.Ctx).Where("id = ?", id).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

const claimSQL = `
UPDATE processing_job
SET status = 'RUNNING',
    attempts = attempts + 1,
    started_at = now(),
    updated_at = now()
WHERE id = (
    SELECT j.id
    FROM processing_job j
    WHERE (j.status = 'QUEUED'
           OR (j.status = 'RUNNING' AND j.updated_at < now() - ?::interval))
      AND j.attempts < ?
      AND NOT EXISTS (
          SELECT 1 FROM processing_job running
          WHERE running.asset_id = j.asset_id
            AND running.status = 'RUNNING'
            AND running.updated_at >= now() - ?::interval
            AND running.id <> j.id
      )
    ORDER BY j.created_at
    FOR UPDATE SKIP LOCKED
    LIMIT 1
)
RETURNING *`

func (r *jobRepo) ClaimNextRunnable(dbc dbctx.Context, policy RunnablePolicy) (*domain.ProcessingJob, error) {
	stale := policy.StaleRunning
	if stale <= 0 {
		stale = 2 * time.Minute
	}
	maxAttempts := policy.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	interval := stale.String()

	var job domain.ProcessingJob
	res := r.handle(dbc).WithContext(dbc.Ctx).
		Raw(claimSQL, interval, maxAttempts, interval).
		Scan(&job)
	if res.Error != nil {
		return nil, res.Error
	}
	if job.ID == uuid.Nil {
		return nil, nil
	}
	return &job, nil
}

const sweepSQL = `
UPDATE processing_job
SET updated_at = now()
WHERE id = (
    SELECT j.id
    FROM processing_job j
    WHERE j.status = 'RUNNING'
      AND j.updated_at < now() - ?::interval
      AND j.attempts >= ?
    ORDER BY j.updated_at
    FOR UPDATE SKIP LOCKED
    LIMIT 1
)
RETURNING *`

// Touching updated_at keeps other sweepers off the row while the caller
// finalizes it.
func (r *jobRepo) ClaimStaleExhausted(dbc dbctx.Context, policy RunnablePolicy) (*domain.ProcessingJob, error) {
	stale := policy.StaleRunning
	if stale <= 0 {
		stale = 2 * time.Minute
	}
	maxAttempts := policy.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}

	var job domain.ProcessingJob
	res := r.handle(dbc).WithContext(dbc.Ctx).
		Raw(sweepSQL, stale.String(), maxAttempts).
		Scan(&job)
	if res.Error != nil {
		return nil, res.Error
	}
	if job.ID == uuid.Nil {
		return nil, nil
	}
	return &job, nil
}

func (r *jobRepo) MarkSucceeded(dbc dbctx.Context, id uuid.UUID) error {
	now := time.Now()
	return r.handle(dbc).WithContext(dbc.Ctx).
		Model(&domain.ProcessingJob{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":      domain.JobSucceeded,
			"finished_at": now,
			"updated_at":  now,
		}).Error
}

func (r *jobRepo) MarkFailed(dbc dbctx.Context, id uuid.UUID, lastError string) error {
	now := time.Now()
	return r.handle(dbc).WithContext(dbc.Ctx).
		Model(&domain.ProcessingJob{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":      domain.JobFailed,
			"last_error":  lastError,
			"finished_at": now,
			"updated_at":  now,
		}).Error
}

func (r *jobRepo) ReturnToQueue(dbc dbctx.Context, id uuid.UUID, lastError string) error {
	return r.handle(dbc).WithContext(dbc.Ctx).
		Model(&domain.ProcessingJob{}).
		Where("id = ? AND status = ?", id, domain.JobRunning).
		Updates(map[string]any{
			"status":     domain.JobQueued,
			"last_error": lastError,
			"started_at": nil,
			"updated_at": time.Now(),
		}).Error
}

func (r *jobRepo) Requeue(dbc dbctx.Context, id uuid.UUID) error {
	return r.handle(dbc).WithContext(dbc.Ctx).
		Model(&domain.ProcessingJob{}).
		Where("id = ? AND status IN ?", id, []domain.JobStatus{domain.JobFailed, domain.JobRunning}).
		Updates(map[string]any{
			"status":      domain.JobQueued,
			"attempts":    0,
			"last_error":  "",
			"started_at":  nil,
			"finished_at": nil,
			"updated_at":  time.Now(),
		}).Error
}

func (r *jobRepo) HasActiveJobForAsset(dbc dbctx.Context, assetID uuid.UUID) (bool, error) {
	var count int64
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Model(&domain.ProcessingJob{}).
		Where("asset_id = ? AND status IN ?", assetID, []domain.JobStatus{domain.JobQueued, domain.JobRunning}).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
