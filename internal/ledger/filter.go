package ledger

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/develand/impulsos-backend/pkg/enums"
	"github.com/develand/impulsos-backend/pkg/pagination"
)

// Filter narrows admin listings over the transactions table. Zero-value
// fields are ignored so callers only set what they need.
type Filter struct {
	UserID     *uuid.UUID
	Types      []enums.TransactionType
	From       *time.Time
	To         *time.Time
	Refunded   *bool
	Expired    *bool
	RefundOf   *int64
	AmountMin  *int
	AmountMax  *int
	Pagination pagination.Params
}

// Apply adds the filter's WHERE clauses to the query. Pagination is applied
// separately so callers can count before paging.
func (f Filter) Apply(q *gorm.DB) *gorm.DB {
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if len(f.Types) > 0 {
		q = q.Where("type IN ?", f.Types)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}
	if f.Refunded != nil {
		q = q.Where("refunded = ?", *f.Refunded)
	}
	if f.Expired != nil {
		q = q.Where("expired = ?", *f.Expired)
	}
	if f.RefundOf != nil {
		q = q.Where("refund_of = ?", *f.RefundOf)
	}
	if f.AmountMin != nil {
		q = q.Where("amount >= ?", *f.AmountMin)
	}
	if f.AmountMax != nil {
		q = q.Where("amount <= ?", *f.AmountMax)
	}
	return q
}
