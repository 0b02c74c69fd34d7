package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ReviewStatus string

const (
	ReviewPending       ReviewStatus = "PENDING"
	ReviewApproved      ReviewStatus = "APPROVED"
	ReviewRejected      ReviewStatus = "REJECTED"
	ReviewNeedsRevision ReviewStatus = "NEEDS_REVISION"
)

// Terminal reports whether no further transition is allowed.
func (s ReviewStatus) Terminal() bool {
	return s == ReviewApproved || s == ReviewRejected
}

// Review is the approval record for one asset. At most one PENDING review
// exists per asset; the invariant is enforced in the review service inside
// the submit transaction.
type Review struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	AssetID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"asset_id"`
	Asset      *Asset         `gorm:"constraint:OnDelete:CASCADE;foreignKey:AssetID;references:ID" json:"-"`
	ReviewerID *uuid.UUID     `gorm:"type:uuid;index" json:"reviewer_id,omitempty"`
	Status     ReviewStatus   `gorm:"not null;default:'PENDING';index" json:"status"`
	Comments   string         `json:"comments,omitempty"`
	Reasons    datatypes.JSON `gorm:"type:jsonb" json:"reasons,omitempty"`
	DecidedAt  *time.Time     `gorm:"column:decided_at" json:"decided_at,omitempty"`
	CreatedAt  time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (Review) TableName() string { return "review" }
