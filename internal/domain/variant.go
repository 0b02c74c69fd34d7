package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type VariantKind string

const (
	VariantThumbnail VariantKind = "THUMBNAIL"
	VariantPreview   VariantKind = "PREVIEW"
	VariantPoster    VariantKind = "POSTER"
)

// AssetVariant is a derived rendition owned by its parent asset. The
// (asset_id, kind) pair is unique so re-running a processing job replaces
// the row instead of duplicating it.
type AssetVariant struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	AssetID    uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_variant_asset_kind" json:"asset_id"`
	Asset      *Asset         `gorm:"constraint:OnDelete:CASCADE;foreignKey:AssetID;references:ID" json:"-"`
	Kind       VariantKind    `gorm:"not null;uniqueIndex:idx_variant_asset_kind" json:"kind"`
	StorageKey string         `gorm:"column:storage_key;not null" json:"storage_key"`
	MimeType   string         `gorm:"column:mime_type" json:"mime_type"`
	Width      int            `json:"width,omitempty"`
	Height     int            `json:"height,omitempty"`
	SizeBytes  int64          `gorm:"column:size_bytes" json:"size_bytes"`
	Metadata   datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt  time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (AssetVariant) TableName() string { return "asset_variant" }
