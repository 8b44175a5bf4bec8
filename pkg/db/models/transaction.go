package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/develand/impulsos-backend/pkg/enums"
)

// Transaction is a single immutable ledger entry. Rows are only ever
// appended; the sole permitted mutations are flipping Expired when a credit
// passes its ExpiresAt, and flipping Refunded when a reversal entry is
// recorded. RefundOf links a reversal back to the entry it cancels.
//
// The int64 autoincrement id doubles as the ledger ordering key.
type Transaction struct {
	ID           int64                 `gorm:"column:id;primaryKey;autoIncrement"`
	UserID       uuid.UUID             `gorm:"column:user_id;type:uuid;not null;index:idx_transactions_user_created,priority:1"`
	Amount       int                   `gorm:"column:amount;not null"`
	Type         enums.TransactionType `gorm:"column:type;type:text;not null"`
	Description  string                `gorm:"column:description;not null"`
	Observations *string               `gorm:"column:observations"`
	ExpiresAt    *time.Time            `gorm:"column:expires_at;index"`
	Expired      bool                  `gorm:"column:expired;not null;default:false"`
	Refunded     bool                  `gorm:"column:refunded;not null;default:false"`
	RefundOf     *int64                `gorm:"column:refund_of;index"`
	CreatedBy    *uuid.UUID            `gorm:"column:created_by;type:uuid"`
	CreatedAt    time.Time             `gorm:"column:created_at;autoCreateTime;index:idx_transactions_user_created,priority:2"`
}

// IsCredit reports whether the entry adds to the live balance when neither
// expired nor refunded.
func (t *Transaction) IsCredit() bool {
	return t.Type.IsCredit()
}
