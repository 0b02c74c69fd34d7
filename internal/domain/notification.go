package domain

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationReviewCompleted   NotificationType = "REVIEW_COMPLETED"
	NotificationRevisionRequested NotificationType = "REVISION_REQUESTED"
	NotificationProcessingFailed  NotificationType = "PROCESSING_FAILED"
)

// Notification belongs to exactly one recipient; only the recipient may
// toggle IsRead.
type Notification struct {
	ID          uuid.UUID        `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	RecipientID uuid.UUID        `gorm:"type:uuid;not null;index" json:"recipient_id"`
	Recipient   *User            `gorm:"constraint:OnDelete:CASCADE;foreignKey:RecipientID;references:ID" json:"-"`
	AssetID     *uuid.UUID       `gorm:"type:uuid" json:"asset_id,omitempty"`
	Type        NotificationType `gorm:"not null" json:"type"`
	Title       string           `gorm:"not null" json:"title"`
	Body        string           `json:"body,omitempty"`
	IsRead      bool             `gorm:"column:is_read;not null;default:false;index" json:"is_read"`
	CreatedAt   time.Time        `gorm:"not null;default:now()" json:"created_at"`
}

func (Notification) TableName() string { return "notification" }
