package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/develand/impulsos-backend/pkg/db/models"
	"github.com/develand/impulsos-backend/pkg/enums"
	"github.com/develand/impulsos-backend/pkg/pagination"
)

// Repository manages persistence for ledger transactions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, txn *models.Transaction) error
	GetByID(ctx context.Context, id int64) (*models.Transaction, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Transaction, error)
	LockUser(ctx context.Context, userID uuid.UUID) error
	Balance(ctx context.Context, userID uuid.UUID) (int, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.Transaction, error)
	List(ctx context.Context, filter Filter) ([]models.Transaction, int64, error)
	MarkRefunded(ctx context.Context, id int64) (bool, error)
	ExpiringWithin(ctx context.Context, userID uuid.UUID, until time.Time) ([]models.Transaction, error)
	ListExpiredCandidates(ctx context.Context, now time.Time, limit int) ([]int64, error)
	MarkExpired(ctx context.Context, ids []int64) (int64, error)
	TotalsByType(ctx context.Context) (map[enums.TransactionType]int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a transaction repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, txn *models.Transaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) GetByID(ctx context.Context, id int64) (*models.Transaction, error) {
	var txn models.Transaction
	if err := r.db.WithContext(ctx).First(&txn, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *repository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Transaction, error) {
	q := r.db.WithContext(ctx)
	if r.supportsRowLocks() {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var txn models.Transaction
	if err := q.First(&txn, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

// LockUser serializes concurrent ledger writes for one user by holding the
// user row until commit. SQLite serializes writers on its own, so the lock
// is skipped there.
func (r *repository) LockUser(ctx context.Context, userID uuid.UUID) error {
	if !r.supportsRowLocks() {
		return nil
	}
	var id string
	return r.db.WithContext(ctx).
		Raw("SELECT id FROM users WHERE id = ? FOR UPDATE", userID).
		Scan(&id).Error
}

const balanceExpr = `COALESCE(SUM(CASE
	WHEN refund_of IS NOT NULL THEN 0
	WHEN type IN ('earn', 'admin_award', 'referral') AND NOT expired AND NOT refunded THEN amount
	WHEN type IN ('spend', 'expire') AND NOT refunded THEN -amount
	ELSE 0
END), 0)`

// Balance derives the spendable balance from the full ledger in one
// aggregate pass. Credits drop out once expired or refunded; debits drop
// out once refunded. Reversal rows never count: flipping the refunded
// flag on the original is what moves the balance, the reversal is the
// audit record of who did it and why.
func (r *repository) Balance(ctx context.Context, userID uuid.UUID) (int, error) {
	var balance int
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Select(balanceExpr).
		Where("user_id = ?", userID).
		Scan(&balance).Error
	if err != nil {
		return 0, err
	}
	return balance, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.Transaction, error) {
	page = page.Normalize()
	var txns []models.Transaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *repository) List(ctx context.Context, filter Filter) ([]models.Transaction, int64, error) {
	base := filter.Apply(r.db.WithContext(ctx).Model(&models.Transaction{}))

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Pagination.Normalize()
	var txns []models.Transaction
	err := filter.Apply(r.db.WithContext(ctx)).
		Order("id DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&txns).Error
	if err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

// MarkRefunded flips the refunded flag only if it was still clear. The
// boolean result tells the caller whether this call won the flip.
func (r *repository) MarkRefunded(ctx context.Context, id int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ? AND NOT refunded", id).
		Update("refunded", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) ExpiringWithin(ctx context.Context, userID uuid.UUID, until time.Time) ([]models.Transaction, error) {
	var txns []models.Transaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("type IN ?", enums.CreditTransactionTypes).
		Where("expires_at IS NOT NULL AND expires_at <= ?", until).
		Where("NOT expired AND NOT refunded").
		Order("expires_at ASC").
		Find(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *repository) ListExpiredCandidates(ctx context.Context, now time.Time, limit int) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("type IN ?", enums.CreditTransactionTypes).
		Where("expires_at IS NOT NULL AND expires_at <= ?", now).
		Where("NOT expired").
		Order("id ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repository) MarkExpired(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id IN ? AND NOT expired", ids).
		Update("expired", true)
	return res.RowsAffected, res.Error
}

func (r *repository) TotalsByType(ctx context.Context) (map[enums.TransactionType]int64, error) {
	type row struct {
		Type  enums.TransactionType
		Total int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Select("type, COALESCE(SUM(amount), 0) AS total").
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	totals := make(map[enums.TransactionType]int64, len(rows))
	for _, r := range rows {
		totals[r.Type] = r.Total
	}
	return totals, nil
}

func (r *repository) supportsRowLocks() bool {
	return r.db.Dialector != nil && r.db.Dialector.Name() == "postgres"
}
