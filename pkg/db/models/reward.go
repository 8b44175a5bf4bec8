package models

import "time"

// Reward is an admin-defined award preset: a token amount tied to an event
// such as attending a class or winning a contest. Presets only prefill the
// award form; the ledger entry itself records the actual amount granted.
type Reward struct {
	ID                int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Amount            int       `gorm:"column:amount;not null"`
	EventTitle        string    `gorm:"column:event_title;not null"`
	DefaultExpiryDays int       `gorm:"column:default_expiry_days;not null;default:180"`
	Active            bool      `gorm:"column:active;not null;default:true"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
