package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/develand/impulsos-backend/pkg/enums"
)

// User represents the canonical identity entity. ReferralCode is the code
// this user hands out; ReferredBy points at the user whose code was used at
// signup, when any.
type User struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string         `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash string         `gorm:"column:password_hash;not null"`
	FullName     string         `gorm:"column:full_name;not null"`
	ReferralCode string         `gorm:"column:referral_code;not null;uniqueIndex"`
	ReferredBy   *uuid.UUID     `gorm:"column:referred_by;type:uuid"`
	Role         enums.UserRole `gorm:"column:role;type:text;not null;default:user"`
	IsActive     bool           `gorm:"column:is_active;not null;default:true"`
	LastLoginAt  *time.Time     `gorm:"column:last_login_at"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
