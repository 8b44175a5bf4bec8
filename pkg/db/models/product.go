package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/develand/impulsos-backend/pkg/enums"
)

// Product is a store catalog item. TokenPrice is the full token cost for
// standard and promotion items; free items are paid in tokens up to MaxTokens
// with the remainder settled in money against RealPrice.
type Product struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string            `gorm:"column:name;not null"`
	Description string            `gorm:"column:description;not null"`
	Type        enums.ProductType `gorm:"column:type;type:text;not null;default:standard"`
	TokenPrice  int               `gorm:"column:token_price;not null;default:0"`
	RealPrice   decimal.Decimal   `gorm:"column:real_price;type:numeric(12,2);not null;default:0"`
	MaxTokens   *int              `gorm:"column:max_tokens"`
	ImageURL    *string           `gorm:"column:image_url"`
	Stock       *int              `gorm:"column:stock"`
	IsActive    bool              `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
