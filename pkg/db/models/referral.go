package models

import (
	"time"

	"github.com/google/uuid"
)

// Referral records a completed signup-through-referral. The unique index on
// the pair makes re-processing the same signup a constraint violation rather
// than a double payout.
type Referral struct {
	ID             int64      `gorm:"column:id;primaryKey;autoIncrement"`
	ReferrerID     uuid.UUID  `gorm:"column:referrer_id;type:uuid;not null;uniqueIndex:idx_referrals_pair,priority:1"`
	ReferredID     uuid.UUID  `gorm:"column:referred_id;type:uuid;not null;uniqueIndex:idx_referrals_pair,priority:2"`
	ReferrerTxID   *int64     `gorm:"column:referrer_tx_id"`
	ReferredTxID   *int64     `gorm:"column:referred_tx_id"`
	TokensAwarded  int        `gorm:"column:tokens_awarded;not null"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
}
