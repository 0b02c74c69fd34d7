package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AppSetting stores one persisted configuration value (storage or email
// credentials). CipherText is AES-GCM sealed; plaintext never reaches the
// table or the API.
type AppSetting struct {
	Key        string    `gorm:"primaryKey" json:"key"`
	CipherText string    `gorm:"column:cipher_text;not null" json:"-"`
	UpdatedBy  uuid.UUID `gorm:"type:uuid;not null" json:"updated_by"`
	UpdatedAt  time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (AppSetting) TableName() string { return "app_setting" }

// AuditLog records every configuration change: who, what, when.
type AuditLog struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ActorID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"actor_id"`
	Action    string         `gorm:"not null" json:"action"`
	TargetKey string         `gorm:"column:target_key" json:"target_key,omitempty"`
	Detail    datatypes.JSON `gorm:"type:jsonb" json:"detail,omitempty"`
	CreatedAt time.Time      `gorm:"not null;default:now();index" json:"created_at"`
}

func (AuditLog) TableName() string { return "audit_log" }
