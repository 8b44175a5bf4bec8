package models

import "time"

// Setting is a key/value row for runtime-tunable parameters such as the
// referral reward sizes. Values are stored as text and parsed by the
// settings service.
type Setting struct {
	Key         string    `gorm:"column:key;primaryKey"`
	Value       string    `gorm:"column:value;not null"`
	Description string    `gorm:"column:description;not null;default:''"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
