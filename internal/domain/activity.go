package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ActivityType string

const (
	ActivityAssetUploaded     ActivityType = "ASSET_UPLOADED"
	ActivityAssetViewed       ActivityType = "ASSET_VIEWED"
	ActivityAssetDownloaded   ActivityType = "ASSET_DOWNLOADED"
	ActivityAssetArchived     ActivityType = "ASSET_ARCHIVED"
	ActivityReviewSubmitted   ActivityType = "REVIEW_SUBMITTED"
	ActivityAssetApproved     ActivityType = "ASSET_APPROVED"
	ActivityAssetRejected     ActivityType = "ASSET_REJECTED"
	ActivityRevisionRequested ActivityType = "REVISION_REQUESTED"
	ActivityProcessingFailed  ActivityType = "PROCESSING_FAILED"
)

// Activity is an append-only domain event. Rows are immutable once created;
// there is deliberately no UpdatedAt column.
type Activity struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	AssetID      *uuid.UUID     `gorm:"type:uuid;index" json:"asset_id,omitempty"`
	CollectionID *uuid.UUID     `gorm:"type:uuid" json:"collection_id,omitempty"`
	Type         ActivityType   `gorm:"not null;index" json:"type"`
	Detail       datatypes.JSON `gorm:"type:jsonb" json:"detail,omitempty"`
	CreatedAt    time.Time      `gorm:"not null;default:now();index" json:"created_at"`
}

func (Activity) TableName() string { return "activity" }

// Collection groups assets for browsing. Only the reference is modeled here;
// collection management lives outside the lifecycle core.
type Collection struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OwnerID   uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`
	Name      string    `gorm:"not null" json:"name"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (Collection) TableName() string { return "collection" }
