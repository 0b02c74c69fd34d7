package services

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/vaultmedia/vaultmedia-backend/internal/clients/gcs"
	activityrepo "github.com/vaultmedia/vaultmedia-backend/internal/data/repos/activity"
	assetsrepo "github.com/vaultmedia/vaultmedia-backend/internal/data/repos/assets"
	jobsrepo "github.com/vaultmedia/vaultmedia-backend/internal/data/repos/jobs"
	"github.com/vaultmedia/vaultmedia-backend/internal/domain"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/apierr"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/dbctx"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/envutil"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/logger"
)

// MaxBatchSize bounds one batch-prepare call.
const MaxBatchSize = 100

type PrepareRequest struct {
	FileName string          `json:"file_name"`
	FileSize domain.ByteSize `json:"file_size"`
	FileType string          `json:"file_type"`
}

type PreparedUpload struct {
	UploadID  uuid.UUID `json:"upload_id"`
	FileKey   string    `json:"file_key"`
	UploadURL string    `json:"upload_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PreparedBatch groups the per-file grants of one batch-prepare call under
// a shared identifier, so the client can correlate completions later.
type PreparedBatch struct {
	BatchID uuid.UUID         `json:"batch_id"`
	Files   []*PreparedUpload `json:"files"`
}

type CompleteRequest struct {
	FileKey          string          `json:"file_key"`
	OriginalFilename string          `json:"original_filename"`
	MimeType         string          `json:"mime_type"`
	FileSize         domain.ByteSize `json:"file_size"`
	Metadata         map[string]any  `json:"metadata"`
}

type UploadService interface {
	// PrepareUpload validates the declared type and size, then issues a
	// presigned PUT URL. No asset record exists until CompleteUpload.
	PrepareUpload(dbc dbctx.Context, uploaderID uuid.UUID, req PrepareRequest) (*PreparedUpload, error)
	PrepareBatch(dbc dbctx.Context, uploaderID uuid.UUID, reqs []PrepareRequest) (*PreparedBatch, error)
	// CompleteUpload confirms the object landed, creates the asset in
	// PENDING and enqueues processing.
	CompleteUpload(dbc dbctx.Context, uploaderID uuid.UUID, req CompleteRequest) (*domain.Asset, error)
}

type uploadService struct {
	db           *gorm.DB
	log          *logger.Logger
	bucket       gcs.BucketService
	assetRepo    assetsrepo.AssetRepo
	jobRepo      jobsrepo.JobRepo
	activityRepo activityrepo.ActivityRepo
	urlTTL       time.Duration
}

func NewUploadService(
	db *gorm.DB,
	baseLog *logger.Logger,
	bucket gcs.BucketService,
	assetRepo assetsrepo.AssetRepo,
	jobRepo jobsrepo.JobRepo,
	activityRepo activityrepo.ActivityRepo,
) UploadService {
	return &uploadService{
		db:           db,
		log:          baseLog.With("service", "UploadService"),
		bucket:       bucket,
		assetRepo:    assetRepo,
		jobRepo:      jobRepo,
		activityRepo: activityRepo,
		urlTTL:       time.Duration(envutil.GetEnvAsInt("SIGNED_URL_TTL_SECONDS", 3600, baseLog)) * time.Second,
	}
}

func (us *uploadService) PrepareUpload(dbc dbctx.Context, uploaderID uuid.UUID, req PrepareRequest) (*PreparedUpload, error) {
	if strings.TrimSpace(req.FileName) == "" {
		return nil, apierr.Validation(fmt.Errorf("file_name is required"))
	}
	if err := ValidateUpload(req.FileType, req.FileSize); err != nil {
		return nil, apierr.Validation(err)
	}

	uploadID := uuid.New()
	fileKey := buildFileKey(req.FileType, uploaderID, uploadID, req.FileName)

	signed, err := us.bucket.SignedUploadURL(dbc.Ctx, fileKey, req.FileType, us.urlTTL)
	if err != nil {
		return nil, fmt.Errorf("sign upload url: %w", err)
	}
	return &PreparedUpload{
		UploadID:  uploadID,
		FileKey:   fileKey,
		UploadURL: signed.URL,
		ExpiresAt: signed.ExpiresAt,
	}, nil
}

// PrepareBatch is all-or-nothing on validation: one bad entry fails the
// whole batch before any URL is signed.
func (us *uploadService) PrepareBatch(dbc dbctx.Context, uploaderID uuid.UUID, reqs []PrepareRequest) (*PreparedBatch, error) {
	if len(reqs) == 0 {
		return nil, apierr.Validation(fmt.Errorf("at least one file is required"))
	}
	if len(reqs) > MaxBatchSize {
		return nil, apierr.Validation(fmt.Errorf("batch size %d exceeds the limit of %d", len(reqs), MaxBatchSize))
	}
	for i, req := range reqs {
		if strings.TrimSpace(req.FileName) == "" {
			return nil, apierr.Validation(fmt.Errorf("file %d: file_name is required", i))
		}
		if err := ValidateUpload(req.FileType, req.FileSize); err != nil {
			return nil, apierr.Validation(fmt.Errorf("file %d (%s): %w", i, req.FileName, err))
		}
	}

	batch := &PreparedBatch{
		BatchID: uuid.New(),
		Files:   make([]*PreparedUpload, 0, len(reqs)),
	}
	for _, req := range reqs {
		prepared, err := us.PrepareUpload(dbc, uploaderID, req)
		if err != nil {
			return nil, err
		}
		batch.Files = append(batch.Files, prepared)
	}
	return batch, nil
}

func (us *uploadService) CompleteUpload(dbc dbctx.Context, uploaderID uuid.UUID, req CompleteRequest) (*domain.Asset, error) {
	if strings.TrimSpace(req.FileKey) == "" {
		return nil, apierr.Validation(fmt.Errorf("file_key is required"))
	}
	if !strings.HasPrefix(keyOwnerSegment(req.FileKey), uploaderID.String()) {
		return nil, apierr.Forbidden(fmt.Errorf("file_key does not belong to the caller"))
	}

	existing, err := us.assetRepo.GetByFileKey(dbc, req.FileKey)
	if err != nil {
		return nil, fmt.Errorf("check existing asset: %w", err)
	}
	if existing != nil {
		return nil, apierr.Conflict(fmt.Errorf("upload already completed"))
	}

	exists, err := us.bucket.ObjectExists(dbc.Ctx, req.FileKey)
	if err != nil {
		return nil, fmt.Errorf("verify object: %w", err)
	}
	if !exists {
		return nil, apierr.Validation(fmt.Errorf("no object found at file_key; upload the file first"))
	}

	assetType := domain.TypeFromMime(req.MimeType)
	var meta datatypes.JSON
	if len(req.Metadata) > 0 {
		b, err := json.Marshal(req.Metadata)
		if err != nil {
			return nil, apierr.Validation(fmt.Errorf("metadata is not serializable"))
		}
		meta = datatypes.JSON(b)
	}

	asset := &domain.Asset{
		ID:               uuid.New(),
		UploadedByID:     uploaderID,
		Type:             assetType,
		FileKey:          req.FileKey,
		OriginalFilename: strings.TrimSpace(req.OriginalFilename),
		MimeType:         strings.ToLower(strings.TrimSpace(req.MimeType)),
		FileSize:         req.FileSize,
		ProcessingStatus: domain.ProcessingPending,
		Metadata:         meta,
	}

	err = us.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}
		if _, err := us.assetRepo.Create(txc, asset); err != nil {
			return fmt.Errorf("create asset: %w", err)
		}
		if _, err := us.activityRepo.Create(txc, &domain.Activity{
			UserID:  uploaderID,
			AssetID: &asset.ID,
			Type:    domain.ActivityAssetUploaded,
		}); err != nil {
			return fmt.Errorf("log activity: %w", err)
		}

		jobType := jobTypeForAsset(assetType)
		if jobType == "" {
			// Nothing to derive for this type; the asset is usable as-is.
			return us.assetRepo.UpdateFields(txc, asset.ID, map[string]any{
				"processing_status": domain.ProcessingCompleted,
			})
		}
		_, err := us.jobRepo.Enqueue(txc, &domain.ProcessingJob{
			ID:      uuid.New(),
			AssetID: asset.ID,
			JobType: jobType,
			Status:  domain.JobQueued,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	us.log.Info("upload completed", "asset_id", asset.ID, "type", asset.Type, "uploader_id", uploaderID)
	return asset, nil
}

func jobTypeForAsset(t domain.AssetType) string {
	switch t {
	case domain.AssetTypeImage:
		return domain.JobTypeProcessImage
	case domain.AssetTypeVideo:
		return domain.JobTypeProcessVideo
	default:
		return ""
	}
}

// buildFileKey yields "<coarse-type>/<uploaderID>/<uploadID>-<name>". The
// uploader id segment allows prefix-scoped access checks.
func buildFileKey(mimeType string, uploaderID, uploadID uuid.UUID, fileName string) string {
	coarse, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(mimeType)), "/")
	if coarse == "" {
		coarse = "other"
	}
	return fmt.Sprintf("%s/%s/%s-%s", coarse, uploaderID, uploadID, sanitizeFilename(fileName))
}

func keyOwnerSegment(fileKey string) string {
	parts := strings.SplitN(fileKey, "/", 3)
	if len(parts) < 3 {
		return ""
	}
	return parts[1]
}

func sanitizeFilename(name string) string {
	base := path.Base(strings.TrimSpace(name))
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "file"
	}
	return b.String()
}
