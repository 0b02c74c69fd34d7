package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleMember   Role = "MEMBER"
	RoleReviewer Role = "REVIEWER"
	RoleAdmin    Role = "ADMIN"
)

// CanReview reports whether the role may decide reviews.
func (r Role) CanReview() bool { return r == RoleReviewer || r == RoleAdmin }

type User struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Email       string    `gorm:"uniqueIndex;not null" json:"email"`
	Password    string    `gorm:"not null" json:"-"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Role        Role      `gorm:"not null;default:'MEMBER'" json:"role"`
	CanDownload bool      `gorm:"not null;default:true" json:"can_download"`
	CreatedAt   time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (User) TableName() string { return "app_user" }

type UserToken struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	Token     string    `gorm:"uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (UserToken) TableName() string { return "user_token" }
