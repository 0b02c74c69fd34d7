package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/vaultmedia/vaultmedia-backend/internal/clients/gcs"
	activityrepo "github.com/vaultmedia/vaultmedia-backend/internal/data/repos/activity"
	assetsrepo "github.com/vaultmedia/vaultmedia-backend/internal/data/repos/assets"
	jobsrepo "github.com/vaultmedia/vaultmedia-backend/internal/data/repos/jobs"
	"github.com/vaultmedia/vaultmedia-backend/internal/domain"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/dbctx"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/logger"
)

// Deps is everything a processing handler may touch. Handlers never reach
// past this struct; all terminal state changes go through Context.
type Deps struct {
	DB            *gorm.DB
	Log           *logger.Logger
	Bucket        gcs.BucketService
	Jobs          jobsrepo.JobRepo
	Assets        assetsrepo.AssetRepo
	Variants      assetsrepo.VariantRepo
	Activities    activityrepo.ActivityRepo
	Notifications activityrepo.NotificationRepo
}

// Context is the execution handle for one claimed job. Complete and Fail
// are the only sanctioned ways to finish a run: both commit the job row and
// the asset row in a single transaction so the two can never disagree.
type Context struct {
	Ctx  context.Context
	Job  *domain.ProcessingJob
	Deps *Deps
	log  *logger.Logger
}

func NewContext(ctx context.Context, job *domain.ProcessingJob, deps *Deps) *Context {
	return &Context{
		Ctx:  ctx,
		Job:  job,
		Deps: deps,
		log:  deps.Log.With("component", "JobContext", "job_id", job.ID, "job_type", job.JobType),
	}
}

// MarkProcessing flips the asset to PROCESSING before the handler starts
// real work. It runs unconditionally; Complete restores COMPLETED when a
// rerun finishes.
func (jc *Context) MarkProcessing() error {
	return jc.Deps.Assets.UpdateFields(dbctx.Context{Ctx: jc.Ctx}, jc.Job.AssetID, map[string]any{
		"processing_status": domain.ProcessingRunning,
		"updated_at":        time.Now(),
	})
}

// SaveVariant uploads nothing; it records a derived rendition row. The
// (asset_id, kind) unique index makes reruns replace the previous row.
func (jc *Context) SaveVariant(v *domain.AssetVariant) error {
	_, err := jc.Deps.Variants.Upsert(dbctx.Context{Ctx: jc.Ctx}, v)
	return err
}

// Complete marks the job SUCCEEDED and the asset COMPLETED atomically.
// assetUpdates may carry extra columns such as thumbnail_key or metadata.
func (jc *Context) Complete(assetUpdates map[string]any) error {
	updates := map[string]any{
		"processing_status": domain.ProcessingCompleted,
		"processing_error":  "",
		"updated_at":        time.Now(),
	}
	for k, v := range assetUpdates {
		updates[k] = v
	}
	err := jc.Deps.DB.WithContext(jc.Ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: jc.Ctx, Tx: tx}
		if err := jc.Deps.Jobs.MarkSucceeded(dbc, jc.Job.ID); err != nil {
			return err
		}
		return jc.Deps.Assets.UpdateFields(dbc, jc.Job.AssetID, updates)
	})
	if err != nil {
		jc.log.Error("failed to finalize job", "error", err)
		return err
	}
	jc.log.Info("job completed", "asset_id", jc.Job.AssetID)
	return nil
}

// Fail terminates this run. Retryable failures return the job to the queue
// with the attempt count intact; terminal failures (unprocessable input, or
// the attempt budget is spent) mark the asset FAILED, log a processing
// activity and notify the uploader, all in one transaction.
func (jc *Context) Fail(runErr error, terminal bool, maxAttempts int) {
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	if !terminal && jc.Job.Attempts < maxAttempts {
		if err := jc.Deps.Jobs.ReturnToQueue(dbctx.Context{Ctx: jc.Ctx}, jc.Job.ID, msg); err != nil {
			jc.log.Error("failed to requeue job", "error", err)
		}
		jc.log.Warn("job failed, will retry", "attempt", jc.Job.Attempts, "error", msg)
		return
	}

	err := jc.Deps.DB.WithContext(jc.Ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: jc.Ctx, Tx: tx}
		if err := jc.Deps.Jobs.MarkFailed(dbc, jc.Job.ID, msg); err != nil {
			return err
		}
		asset, err := jc.Deps.Assets.GetByID(dbc, jc.Job.AssetID)
		if err != nil {
			return err
		}
		if asset == nil {
			return fmt.Errorf("asset %s not found", jc.Job.AssetID)
		}
		if err := jc.Deps.Assets.UpdateFields(dbc, asset.ID, map[string]any{
			"processing_status": domain.ProcessingFailed,
			"processing_error":  msg,
			"updated_at":        time.Now(),
		}); err != nil {
			return err
		}
		detail, _ := json.Marshal(map[string]any{"job_id": jc.Job.ID, "error": msg})
		if _, err := jc.Deps.Activities.Create(dbc, &domain.Activity{
			UserID:  asset.UploadedByID,
			AssetID: &asset.ID,
			Type:    domain.ActivityProcessingFailed,
			Detail:  datatypes.JSON(detail),
		}); err != nil {
			return err
		}
		_, err = jc.Deps.Notifications.Create(dbc, &domain.Notification{
			RecipientID: asset.UploadedByID,
			AssetID:     &asset.ID,
			Type:        domain.NotificationProcessingFailed,
			Title:       "Processing failed",
			Body:        fmt.Sprintf("%s could not be processed: %s", asset.OriginalFilename, msg),
		})
		return err
	})
	if err != nil {
		jc.log.Error("failed to finalize failed job", "error", err)
		return
	}
	jc.log.Warn("job failed terminally", "asset_id", jc.Job.AssetID, "error", msg)
}

// permanentError marks a failure that retrying cannot fix, such as a file
// that does not decode.
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func dbcOf(jc *Context) dbctx.Context {
	return dbctx.Context{Ctx: jc.Ctx}
}

// VariantKey is the deterministic storage key for a derived rendition, so
// reprocessing overwrites in place instead of leaking objects.
func VariantKey(assetID uuid.UUID, kind domain.VariantKind, ext string) string {
	return fmt.Sprintf("%s%s.%s", VariantPrefix(assetID), kindSlug(kind), ext)
}

// VariantPrefix is the common key prefix of every rendition of an asset.
func VariantPrefix(assetID uuid.UUID) string {
	return fmt.Sprintf("variants/%s/", assetID)
}

func kindSlug(kind domain.VariantKind) string {
	switch kind {
	case domain.VariantThumbnail:
		return "thumbnail"
	case domain.VariantPreview:
		return "preview"
	case domain.VariantPoster:
		return "poster"
	default:
		return "variant"
	}
}
