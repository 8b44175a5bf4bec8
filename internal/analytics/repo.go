package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/develand/impulsos-backend/pkg/enums"
)

// Repository aggregates platform activity for the admin dashboard. The
// queries are read-only and cross several domains, so they live here rather
// than on any one domain repository.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an analytics repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// DailyCount is one day of signups.
type DailyCount struct {
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

// DailyTypeTotal is one day of ledger activity for one transaction type.
type DailyTypeTotal struct {
	Day    string                `json:"day"`
	Type   enums.TransactionType `json:"type"`
	Count  int64                 `json:"count"`
	Tokens int64                 `json:"tokens"`
}

// UserBalance pairs a user with their derived token balance.
type UserBalance struct {
	UserID   uuid.UUID `json:"user_id"`
	FullName string    `json:"full_name"`
	Email    string    `json:"email"`
	Balance  int64     `json:"balance"`
}

// ProductPopularity counts completed purchases per product.
type ProductPopularity struct {
	ProductID   uuid.UUID `json:"product_id"`
	Name        string    `json:"name"`
	Purchases   int64     `json:"purchases"`
	TokensSpent int64     `json:"tokens_spent"`
}

func (r *Repository) SignupsPerDay(ctx context.Context, since time.Time) ([]DailyCount, error) {
	var rows []DailyCount
	err := r.db.WithContext(ctx).Raw(`
		SELECT DATE(created_at) AS day, COUNT(*) AS count
		FROM users
		WHERE created_at >= ?
		GROUP BY DATE(created_at)
		ORDER BY day DESC`, since).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) TransactionTrends(ctx context.Context, since time.Time) ([]DailyTypeTotal, error) {
	var rows []DailyTypeTotal
	err := r.db.WithContext(ctx).Raw(`
		SELECT DATE(created_at) AS day, type, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS tokens
		FROM transactions
		WHERE created_at >= ?
		GROUP BY DATE(created_at), type
		ORDER BY day DESC, type ASC`, since).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// TopBalances ranks regular users by their derived balance. The balance
// arithmetic mirrors the ledger's: reversal rows count zero, credits drop
// out once expired or refunded, debits drop out once refunded.
func (r *Repository) TopBalances(ctx context.Context, limit int) ([]UserBalance, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []UserBalance
	err := r.db.WithContext(ctx).Raw(`
		SELECT u.id AS user_id, u.full_name, u.email, COALESCE((
			SELECT SUM(CASE
				WHEN t.refund_of IS NOT NULL THEN 0
				WHEN t.type IN ('earn', 'admin_award', 'referral') AND NOT t.expired AND NOT t.refunded THEN t.amount
				WHEN t.type IN ('spend', 'expire') AND NOT t.refunded THEN -t.amount
				ELSE 0
			END)
			FROM transactions t
			WHERE t.user_id = u.id
		), 0) AS balance
		FROM users u
		WHERE u.role = 'user'
		ORDER BY balance DESC
		LIMIT ?`, limit).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) PopularProducts(ctx context.Context, limit int) ([]ProductPopularity, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []ProductPopularity
	err := r.db.WithContext(ctx).Raw(`
		SELECT p.id AS product_id, p.name,
			COUNT(o.id) AS purchases,
			COALESCE(SUM(o.tokens_spent), 0) AS tokens_spent
		FROM products p
		LEFT JOIN orders o ON o.product_id = p.id AND o.status = 'completed'
		GROUP BY p.id, p.name
		ORDER BY purchases DESC
		LIMIT ?`, limit).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
