package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/develand/impulsos-backend/pkg/enums"
)

// Order records a store purchase. TokensSpent is what left the buyer's
// ledger and SpendTxID points at that debit entry; MoneyPaid carries any
// cash remainder on capped free-type items.
type Order struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	ProductID   uuid.UUID         `gorm:"column:product_id;type:uuid;not null"`
	ProductName string            `gorm:"column:product_name;not null"`
	TokensSpent int               `gorm:"column:tokens_spent;not null"`
	MoneyPaid   decimal.Decimal   `gorm:"column:money_paid;type:numeric(12,2);not null;default:0"`
	SpendTxID   *int64            `gorm:"column:spend_tx_id"`
	Status      enums.OrderStatus `gorm:"column:status;type:text;not null;default:completed"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
}
