package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type JobStatus string

const (
	JobQueued    JobStatus = "QUEUED"
	JobRunning   JobStatus = "RUNNING"
	JobSucceeded JobStatus = "SUCCEEDED"
	JobFailed    JobStatus = "FAILED"
)

const (
	JobTypeProcessImage = "asset.process.image"
	JobTypeProcessVideo = "asset.process.video"
)

// ProcessingJob is one durable queue entry. Workers claim rows with
// FOR UPDATE SKIP LOCKED; the claim query refuses a row while another job
// for the same asset is RUNNING, which serializes per-asset processing.
type ProcessingJob struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	AssetID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"asset_id"`
	JobType    string         `gorm:"column:job_type;not null;index" json:"job_type"`
	Status     JobStatus      `gorm:"not null;default:'QUEUED';index" json:"status"`
	Attempts   int            `gorm:"not null;default:0" json:"attempts"`
	LastError  string         `gorm:"column:last_error" json:"last_error,omitempty"`
	Payload    datatypes.JSON `gorm:"type:jsonb" json:"payload,omitempty"`
	StartedAt  *time.Time     `gorm:"column:started_at" json:"started_at,omitempty"`
	FinishedAt *time.Time     `gorm:"column:finished_at" json:"finished_at,omitempty"`
	CreatedAt  time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (ProcessingJob) TableName() string { return "processing_job" }
