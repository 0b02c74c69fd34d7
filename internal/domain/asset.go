package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AssetType string

const (
	AssetTypeImage    AssetType = "IMAGE"
	AssetTypeVideo    AssetType = "VIDEO"
	AssetTypeDocument AssetType = "DOCUMENT"
	AssetTypeAudio    AssetType = "AUDIO"
	AssetTypeModel3D  AssetType = "MODEL_3D"
	AssetTypeDesign   AssetType = "DESIGN"
	AssetTypeOther    AssetType = "OTHER"
)

type ProcessingStatus string

const (
	ProcessingPending       ProcessingStatus = "PENDING"
	ProcessingRunning       ProcessingStatus = "PROCESSING"
	ProcessingCompleted     ProcessingStatus = "COMPLETED"
	ProcessingFailed        ProcessingStatus = "FAILED"
	ProcessingNeedsRevision ProcessingStatus = "NEEDS_REVISION"
)

// Asset is the relational record of one uploaded object. FileKey and
// UploadedByID are immutable after creation; rows are never deleted, only
// archived.
type Asset struct {
	ID                 uuid.UUID        `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UploadedByID       uuid.UUID        `gorm:"type:uuid;not null;index" json:"uploaded_by_id"`
	UploadedBy         *User            `gorm:"foreignKey:UploadedByID;references:ID" json:"uploaded_by,omitempty"`
	Type               AssetType        `gorm:"not null;index" json:"type"`
	FileKey            string           `gorm:"column:file_key;uniqueIndex;not null" json:"file_key"`
	OriginalFilename   string           `gorm:"column:original_filename;not null" json:"original_filename"`
	MimeType           string           `gorm:"column:mime_type" json:"mime_type"`
	FileSize           ByteSize         `gorm:"column:file_size;not null;default:0" json:"file_size"`
	ThumbnailKey       string           `gorm:"column:thumbnail_key" json:"thumbnail_key,omitempty"`
	ProcessingStatus   ProcessingStatus `gorm:"column:processing_status;not null;default:'PENDING';index" json:"processing_status"`
	ProcessingError    string           `gorm:"column:processing_error" json:"processing_error,omitempty"`
	ReadyForPublishing bool             `gorm:"column:ready_for_publishing;not null;default:false" json:"ready_for_publishing"`
	IsArchived         bool             `gorm:"column:is_archived;not null;default:false;index" json:"is_archived"`
	DownloadCount      int64            `gorm:"column:download_count;not null;default:0" json:"download_count"`
	Metadata           datatypes.JSON   `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt          time.Time        `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt          time.Time        `gorm:"not null;default:now()" json:"updated_at"`
}

func (Asset) TableName() string { return "asset" }

// TypeFromMime maps the coarse segment of a MIME type to an AssetType.
func TypeFromMime(mimeType string) AssetType {
	mt, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(mimeType)), "/")
	switch mt {
	case "image":
		return AssetTypeImage
	case "video":
		return AssetTypeVideo
	case "audio":
		return AssetTypeAudio
	case "model":
		return AssetTypeModel3D
	case "application", "text":
		return AssetTypeDocument
	default:
		return AssetTypeOther
	}
}
