package domain

import (
	"time"

	"github.com/google/uuid"
)

// AssetAnalytics is the denormalized per-day counter row, one per
// (asset, calendar day). Increments go through an atomic upsert; see
// assets.AnalyticsRepo.
type AssetAnalytics struct {
	ID            uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	AssetID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_asset_analytics_day" json:"asset_id"`
	Day           time.Time `gorm:"type:date;not null;uniqueIndex:idx_asset_analytics_day" json:"day"`
	ViewCount     int64     `gorm:"column:view_count;not null;default:0" json:"view_count"`
	DownloadCount int64     `gorm:"column:download_count;not null;default:0" json:"download_count"`
	UpdatedAt     time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (AssetAnalytics) TableName() string { return "asset_analytics" }
